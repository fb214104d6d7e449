package zerror

import (
	"errors"
	"fmt"
)

// ZError is an application error with a transport independent status and a
// stable machine readable code, e.g. PRODUCT_NOT_FOUND.
//
// Predefined ZErrors are values: WrapParent and WithMsg return copies, and
// errors.Is matches on code so the copies still match the original.
type ZError struct {
	parent error
	status Status
	code   string
	msg    string
}

// NewZError initializes a ZError instance.
func NewZError(parent error, status Status, code, msg string) ZError {
	return ZError{
		parent: parent,
		status: status,
		code:   code,
		msg:    msg,
	}
}

func (e ZError) Error() string {
	if e.parent != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.parent)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

// WrapParent attaches the underlying cause. A nil parent leaves e unchanged.
func (e ZError) WrapParent(parent error) ZError {
	if parent == nil {
		return e
	}
	e.parent = parent
	return e
}

// WithMsg returns a copy of e with a more specific message.
func (e ZError) WithMsg(msg string) ZError {
	e.msg = msg
	return e
}

func (e ZError) Unwrap() error {
	return e.parent
}

func (e ZError) Is(target error) bool {
	t, ok := target.(ZError)
	return ok && e.code == t.code
}

func (e ZError) Status() Status { return e.status }
func (e ZError) Code() string   { return e.code }
func (e ZError) Msg() string    { return e.msg }
func (e ZError) Parent() error  { return e.parent }

// As finds the first ZError in err's chain.
func As(err error) (ZError, bool) {
	var zErr ZError
	if errors.As(err, &zErr) {
		return zErr, true
	}
	return ZError{}, false
}

func NewValidationFailed(code, msg string) ZError {
	return NewZError(nil, StatusValidationFailed, code, msg)
}

func NewNotFound(code, msg string) ZError {
	return NewZError(nil, StatusNotFound, code, msg)
}

func NewConflict(code, msg string) ZError {
	return NewZError(nil, StatusConflict, code, msg)
}

func NewBadGateway(code, msg string) ZError {
	return NewZError(nil, StatusBadGateway, code, msg)
}
