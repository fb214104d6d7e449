package apierr

import (
	"errors"
	"net/http"

	govalidator "github.com/go-playground/validator/v10"

	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
	"github.com/tuanvumaihuynh/product-catalog/pkg/zerror"
)

// FieldError describes an invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the error response for the API.
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details *[]FieldError `json:"details,omitempty"`

	// StatusCode is the status code for the error response.
	StatusCode int `json:"-"`
}

// New maps err to a response. When strict is false every error is reported
// with status 400 and unknown errors carry their raw message.
func New(err error, strict bool) ErrorResponse {
	res := errorToErrorResponse(err)
	if strict {
		return res
	}

	if res.Code == InternalServerErr.Code {
		res.Message = err.Error()
	}
	res.StatusCode = http.StatusBadRequest
	return res
}

var InternalServerErr = ErrorResponse{
	Code:       "internalServerError",
	Message:    "an unknown error occurred",
	StatusCode: http.StatusInternalServerError,
}

func errorToErrorResponse(err error) ErrorResponse {
	details := fieldErrors(err)

	if zErr, ok := zerror.As(err); ok {
		return ErrorResponse{
			Code:       zErr.Code(),
			Message:    zErr.Msg(),
			Details:    details,
			StatusCode: ZErrorStatusToHTTPStatus(zErr.Status()),
		}
	}

	if details != nil {
		return ErrorResponse{
			Code:       "validationError",
			Message:    "validation error",
			Details:    details,
			StatusCode: http.StatusBadRequest,
		}
	}

	return InternalServerErr
}

func fieldErrors(err error) *[]FieldError {
	var validationErrs govalidator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}

	details := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		details[i] = FieldError{
			Field:   fe.Field(),
			Message: validator.ValidationErrorMessage(fe),
		}
	}
	return &details
}

func ZErrorStatusToHTTPStatus(status zerror.Status) int {
	switch status {
	case zerror.StatusUnauthorized:
		return http.StatusUnauthorized
	case zerror.StatusForbidden:
		return http.StatusForbidden
	case zerror.StatusNotFound:
		return http.StatusNotFound
	case zerror.StatusUnprocessableEntity:
		return http.StatusUnprocessableEntity
	case zerror.StatusConflict:
		return http.StatusConflict
	case zerror.StatusTooManyRequests:
		return http.StatusTooManyRequests
	case zerror.StatusBadRequest:
		return http.StatusBadRequest
	case zerror.StatusValidationFailed:
		return http.StatusBadRequest
	case zerror.StatusUnknown, zerror.StatusInternalServerError:
		return http.StatusInternalServerError
	case zerror.StatusTimeout:
		return http.StatusGatewayTimeout
	case zerror.StatusNotImplemented:
		return http.StatusNotImplemented
	case zerror.StatusBadGateway:
		return http.StatusBadGateway
	case zerror.StatusServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
