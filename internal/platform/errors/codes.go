package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode classifies a failure for transports and batch outcomes.
// It travels on the wire as its name, so renaming one is a breaking change.
type ErrorCode uint16

const (
	ErrorCodeUnknown ErrorCode = iota
	ErrorCodePanic
	ErrorCodeUnavailable
	ErrorCodeTooManyRequests
	ErrorCodeInvalidArgument
	// ErrorCodeValidation rejects caller input: extension, identifier, detection shape
	ErrorCodeValidation
	ErrorCodeJSON
	// ErrorCodeNotFound means a prerequisite artifact is absent
	ErrorCodeNotFound
	// ErrorCodeStorage covers artifact I/O other than absence
	ErrorCodeStorage
	// ErrorCodeGateway covers the detection and generation services
	ErrorCodeGateway
	// ErrorCodeConversionExhausted means every raster strategy failed
	ErrorCodeConversionExhausted
)

var codeNames = [...]string{
	ErrorCodeUnknown:             "unknown",
	ErrorCodePanic:               "panic",
	ErrorCodeUnavailable:         "unavailable",
	ErrorCodeTooManyRequests:     "too_many_requests",
	ErrorCodeInvalidArgument:     "invalid_argument",
	ErrorCodeValidation:          "validation",
	ErrorCodeJSON:                "json",
	ErrorCodeNotFound:            "not_found",
	ErrorCodeStorage:             "storage",
	ErrorCodeGateway:             "gateway",
	ErrorCodeConversionExhausted: "conversion_exhausted",
}

func (c ErrorCode) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return codeNames[ErrorCodeUnknown]
}

// MarshalText writes the code name
func (c ErrorCode) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText accepts a code name
func (c *ErrorCode) UnmarshalText(b []byte) error {
	for i, n := range codeNames {
		if n == string(b) {
			*c = ErrorCode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown error code %q", b)
}

// Status maps the code onto an HTTP status
func (c ErrorCode) Status() int {
	switch c {
	case ErrorCodeValidation, ErrorCodeJSON:
		return http.StatusBadRequest
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeInvalidArgument:
		return http.StatusUnprocessableEntity
	case ErrorCodeTooManyRequests:
		return http.StatusTooManyRequests
	case ErrorCodeGateway:
		return http.StatusBadGateway
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ClientSafe reports whether messages of this code describe the caller's own
// input and may be shown verbatim to an end user
func (c ErrorCode) ClientSafe() bool {
	switch c {
	case ErrorCodeValidation, ErrorCodeJSON, ErrorCodeNotFound, ErrorCodeConversionExhausted:
		return true
	}
	return false
}

// Codes lists every defined code in declaration order
func Codes() []ErrorCode {
	out := make([]ErrorCode, len(codeNames))
	for i := range codeNames {
		out[i] = ErrorCode(i)
	}
	return out
}
