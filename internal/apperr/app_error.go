package apperr

import "github.com/tuanvumaihuynh/product-catalog/pkg/zerror"

const (
	ValidationErrorCode           = "VALIDATION_FAILED"
	ProductNotFoundErrorCode      = "PRODUCT_NOT_FOUND"
	ProductAlreadyExistsErrorCode = "PRODUCT_ALREADY_EXISTS"
	StorageErrorCode              = "STORAGE_FAILED"
)

var (
	ValidationErr           = zerror.NewValidationFailed(ValidationErrorCode, "validation error")
	ProductNotFoundErr      = zerror.NewNotFound(ProductNotFoundErrorCode, "product not found")
	ProductAlreadyExistsErr = zerror.NewConflict(ProductAlreadyExistsErrorCode, "product already exists")
	StorageErr              = zerror.NewBadGateway(StorageErrorCode, "storage request failed")
)
