package ddb

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/pkg/zerror"
)

// WrapErr turns a DynamoDB failure into an apperr.StorageErr whose message
// names the operation and the AWS error code. Application errors pass through.
func WrapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var zErr zerror.ZError
	if errors.As(err, &zErr) {
		return err
	}

	msg := op
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		msg = fmt.Sprintf("%s (%s)", op, apiErr.ErrorCode())
	}

	return apperr.StorageErr.
		WithMsg(fmt.Sprintf("%s: %s", apperr.StorageErr.Msg(), msg)).
		WrapParent(err)
}
