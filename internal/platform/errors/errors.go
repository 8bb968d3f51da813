// Package errors carries a coded error type through the pipeline.
// Import it as perr.
package errors

import (
	stderrs "errors"
	"fmt"
)

// Error pairs a caller-facing message with a code, an optional offending
// field, and the cause it wraps
type Error struct {
	code  ErrorCode
	msg   string
	field string
	cause error
}

// Wire is the serialized shape of an Error
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.cause == nil:
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Code is the classification
func (e *Error) Code() ErrorCode { return e.code }

// Message excludes the cause; it is what transports show
func (e *Error) Message() string { return e.msg }

// Field names the rejected input, if any
func (e *Error) Field() string { return e.field }

// New builds an error with a fixed message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf builds an error with a formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap attaches code and message to cause; the cause stays reachable through
// errors.Is and errors.As but never reaches Message
func Wrap(cause error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, cause: cause}
}

// Wrapf is Wrap with a formatted message
func Wrapf(cause error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), cause: cause}
}

// WithField returns a copy of err naming the offending field.
// Errors from outside this package are returned unchanged.
func WithField(err error, field string) error {
	e, ok := As(err)
	if !ok {
		return err
	}
	cp := *e
	cp.field = field
	return &cp
}

// As finds the outermost *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrs.As(err, &e)
	return e, ok
}

// CodeOf is the code of the outermost *Error, or Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether CodeOf(err) is code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus maps any error onto an HTTP status
func HTTPStatus(err error) int { return CodeOf(err).Status() }

// WireFrom converts err for transport. Foreign errors become Unknown with their text.
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return Wire{Code: e.code, Message: e.msg, Field: e.field}
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// Root unwraps err to its innermost cause
func Root(err error) error {
	for {
		next := stderrs.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func NotFoundf(format string, a ...any) error   { return Newf(ErrorCodeNotFound, format, a...) }
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }
func Validationf(format string, a ...any) error { return Newf(ErrorCodeValidation, format, a...) }
func JSONErrf(format string, a ...any) error    { return Newf(ErrorCodeJSON, format, a...) }
func PanicErrf(format string, a ...any) error   { return Newf(ErrorCodePanic, format, a...) }
func Storagef(format string, a ...any) error    { return Newf(ErrorCodeStorage, format, a...) }
func Gatewayf(format string, a ...any) error    { return Newf(ErrorCodeGateway, format, a...) }
func Internalf(format string, a ...any) error   { return Newf(ErrorCodeUnknown, format, a...) }

func ConversionExhaustedf(format string, a ...any) error {
	return Newf(ErrorCodeConversionExhausted, format, a...)
}
