package http

import (
	"encoding/json"
	stdhttp "net/http"
	"strconv"

	"radiodx/internal/platform/logger"
	pnet "radiodx/internal/platform/net"
)

// Envelope is the JSON body of every non-binary reply
type Envelope = pnet.Wire

// Response is what return-style handlers produce. A Raw body is written as
// is; anything else is wrapped in an Envelope.
type Response struct {
	Status      int
	Body        any
	err         error
	Raw         []byte
	ContentType string
}

// OK wraps data with 200
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Status wraps data with an explicit status
func Status(status int, data any) Response { return Response{Status: status, Body: data} }

// NoContent is an empty 204
func NoContent() Response { return Response{Status: stdhttp.StatusNoContent} }

// Error derives the status and envelope from err
func Error(err error) Response { return Response{err: err} }

// Bytes serves b with contentType outside the envelope, e.g. a PNG raster
func Bytes(contentType string, b []byte) Response {
	if b == nil {
		b = []byte{}
	}
	return Response{Status: stdhttp.StatusOK, Raw: b, ContentType: contentType}
}

// Handle adapts a return-style handler
func Handle(h func(*stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) { h(r).Write(w, r) }
}

// Write renders resp for r
func (resp Response) Write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	reqID := pnet.RequestID(r.Context())
	switch {
	case resp.err != nil:
		env := pnet.Error(resp.err, reqID)
		if env.StatusCode >= stdhttp.StatusInternalServerError {
			logger.C(r.Context()).Error().Err(resp.err).Msg("request failed")
		}
		JSON(w, env.StatusCode, env)
	case resp.Status == stdhttp.StatusNoContent:
		w.WriteHeader(stdhttp.StatusNoContent)
	case resp.Raw != nil:
		w.Header().Set("Content-Type", resp.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(resp.Raw)))
		w.WriteHeader(statusOr200(resp.Status))
		_, _ = w.Write(resp.Raw)
	default:
		status := statusOr200(resp.Status)
		JSON(w, status, pnet.Reply(status, resp.Body, reqID))
	}
}

// JSON writes v with status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOr200(s int) int {
	if s == 0 {
		return stdhttp.StatusOK
	}
	return s
}
