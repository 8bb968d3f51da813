package net

import (
	"net/http"

	perr "radiodx/internal/platform/errors"
)

// Wire is the envelope every JSON reply uses. Error carries the error's
// Message, never its wrapped cause.
type Wire struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Reply wraps data with an explicit status
func Reply(status int, data any, reqID string) Wire {
	return Wire{
		StatusCode: status,
		Status:     http.StatusText(status),
		RequestID:  reqID,
		Data:       data,
	}
}

// OK is Reply with 200
func OK(data any, reqID string) Wire { return Reply(http.StatusOK, data, reqID) }

// Error maps err onto its status; a nil err is an empty 200
func Error(err error, reqID string) Wire {
	if err == nil {
		return OK(nil, reqID)
	}
	status := perr.HTTPStatus(err)
	w := perr.WireFrom(err)
	return Wire{
		StatusCode: status,
		Status:     http.StatusText(status),
		Code:       w.Code,
		Error:      w.Message,
		Field:      w.Field,
		RequestID:  reqID,
	}
}
