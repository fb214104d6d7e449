package zerror

// Status is the transport-independent category of a ZError.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusBadRequest
	StatusValidationFailed
	StatusUnauthorized
	StatusForbidden
	StatusNotFound
	StatusConflict
	StatusUnprocessableEntity
	StatusTooManyRequests
	StatusInternalServerError
	StatusNotImplemented
	StatusBadGateway
	StatusServiceUnavailable
	StatusTimeout
)

var statusNames = [...]string{
	StatusUnknown:             "UNKNOWN",
	StatusBadRequest:          "BAD_REQUEST",
	StatusValidationFailed:    "VALIDATION_FAILED",
	StatusUnauthorized:        "UNAUTHORIZED",
	StatusForbidden:           "FORBIDDEN",
	StatusNotFound:            "NOT_FOUND",
	StatusConflict:            "CONFLICT",
	StatusUnprocessableEntity: "UNPROCESSABLE_ENTITY",
	StatusTooManyRequests:     "TOO_MANY_REQUESTS",
	StatusInternalServerError: "INTERNAL_SERVER_ERROR",
	StatusNotImplemented:      "NOT_IMPLEMENTED",
	StatusBadGateway:          "BAD_GATEWAY",
	StatusServiceUnavailable:  "SERVICE_UNAVAILABLE",
	StatusTimeout:             "TIMEOUT",
}

// String returns the string representation of the status.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return statusNames[StatusUnknown]
}
