package middleware

import (
	"net/http"
	"time"

	"radiodx/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLog writes one line per request through the request scoped logger.
// Requests slower than slow log at warn; zero disables that.
func AccessLog(slow time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			took := time.Since(start)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log := logger.C(r.Context())
			ev := log.Info()
			switch {
			case status >= http.StatusInternalServerError:
				ev = log.Error()
			case slow > 0 && took >= slow:
				ev = log.Warn()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("took", took).
				Msg("request")
		})
	}
}
