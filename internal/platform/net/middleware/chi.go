// Package middleware collects the HTTP middleware the API stacks in front of
// every module; chi types stay behind these constructors
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Middleware is the standard net/http decorator
type Middleware = func(http.Handler) http.Handler

// RequestID reuses an incoming X-Request-Id or mints one
func RequestID() Middleware { return chimw.RequestID }

// RealIP trusts X-Forwarded-For and X-Real-IP
func RealIP() Middleware { return chimw.RealIP }

// NoCache marks replies uncacheable; rasters change when a study is re-uploaded
func NoCache() Middleware { return chimw.NoCache }

// StripSlashes routes /report/{id}/ like /report/{id}
func StripSlashes() Middleware { return chimw.StripSlashes }

// Heartbeat answers GET path before routing
func Heartbeat(path string) Middleware { return chimw.Heartbeat(path) }

// Timeout cancels the request context after d
func Timeout(d time.Duration) Middleware { return chimw.Timeout(d) }

// Compress encodes JSON and HTML replies; PNG rasters are already compressed
func Compress(level int) Middleware {
	return chimw.Compress(level, "application/json", "text/html", "text/plain")
}
