// Package httpkit is what modules import to declare endpoints. It keeps
// transport plumbing out of module code.
package httpkit

import (
	"net/http"

	phttp "radiodx/internal/platform/net/http"
	"radiodx/internal/platform/net/http/bind"
)

type (
	Router   = phttp.Router
	Handler  = phttp.Handler
	Response = phttp.Response
	Envelope = phttp.Envelope
)

func OK(data any) Response                        { return phttp.OK(data) }
func Status(status int, data any) Response        { return phttp.Status(status, data) }
func Error(err error) Response                    { return phttp.Error(err) }
func Bytes(contentType string, b []byte) Response { return phttp.Bytes(contentType, b) }

// Handle mounts a handler that builds its own Response, e.g. binary bodies
func Handle(fn func(*http.Request) Response) Handler { return phttp.Handle(fn) }

// Call wraps a handler's result in the envelope. A returned Response is
// written as is, which lets a handler choose its status.
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.Handle(func(r *http.Request) Response {
		out, err := fn(r)
		if err != nil {
			return phttp.Error(err)
		}
		if resp, ok := out.(Response); ok {
			return resp
		}
		return phttp.OK(out)
	})
}

// Get mounts a body-less GET
func Get(r Router, path string, fn func(*http.Request) (any, error)) { r.Get(path, Call(fn)) }

// Post mounts a POST that reads its own body, or none
func Post(r Router, path string, fn func(*http.Request) (any, error)) { r.Post(path, Call(fn)) }

// PostJSON mounts a POST whose body is bound and validated into T first
func PostJSON[T any](r Router, path string, fn func(*http.Request, T) (any, error)) {
	r.Post(path, Call(func(req *http.Request) (any, error) {
		in, err := bind.ParseJSON[T](req)
		if err != nil {
			return nil, err
		}
		return fn(req, in)
	}))
}
