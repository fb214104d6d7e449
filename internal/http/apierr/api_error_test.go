package apierr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/apierr"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

func TestNew(t *testing.T) {
	storageErr := fmt.Errorf("list products: %w", apperr.StorageErr.WrapParent(errors.New("timeout")))

	testCases := []struct {
		name       string
		err        error
		strict     bool
		wantStatus int
		wantCode   string
	}{
		{name: "strict validation", err: apperr.ValidationErr, strict: true, wantStatus: http.StatusBadRequest, wantCode: apperr.ValidationErrorCode},
		{name: "strict not found", err: apperr.ProductNotFoundErr, strict: true, wantStatus: http.StatusNotFound, wantCode: apperr.ProductNotFoundErrorCode},
		{name: "strict conflict", err: apperr.ProductAlreadyExistsErr, strict: true, wantStatus: http.StatusConflict, wantCode: apperr.ProductAlreadyExistsErrorCode},
		{name: "strict storage", err: storageErr, strict: true, wantStatus: http.StatusBadGateway, wantCode: apperr.StorageErrorCode},
		{name: "strict unknown", err: errors.New("boom"), strict: true, wantStatus: http.StatusInternalServerError, wantCode: apierr.InternalServerErr.Code},
		{name: "legacy not found", err: apperr.ProductNotFoundErr, wantStatus: http.StatusBadRequest, wantCode: apperr.ProductNotFoundErrorCode},
		{name: "legacy storage", err: storageErr, wantStatus: http.StatusBadRequest, wantCode: apperr.StorageErrorCode},
		{name: "legacy unknown", err: errors.New("boom"), wantStatus: http.StatusBadRequest, wantCode: apierr.InternalServerErr.Code},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := apierr.New(tc.err, tc.strict)

			assert.Equal(t, tc.wantStatus, res.StatusCode)
			assert.Equal(t, tc.wantCode, res.Code)
			assert.NotEmpty(t, res.Message)
		})
	}

	t.Run("Should expose raw message of unknown error in legacy mode", func(t *testing.T) {
		assert.Equal(t, "boom", apierr.New(errors.New("boom"), false).Message)
		assert.Equal(t, apierr.InternalServerErr.Message, apierr.New(errors.New("boom"), true).Message)
	})

	t.Run("Should include field details", func(t *testing.T) {
		v, err := validator.NewDefaultValidator()
		require.NoError(t, err)

		type input struct {
			Price float64 `json:"price" validate:"gt=0"`
		}
		verr := v.Validate(input{})
		require.Error(t, verr)

		res := apierr.New(apperr.ValidationErr.WrapParent(verr), true)

		require.NotNil(t, res.Details)
		require.Len(t, *res.Details, 1)
		assert.Equal(t, "price", (*res.Details)[0].Field)
		assert.Equal(t, apperr.ValidationErrorCode, res.Code)
	})
}
