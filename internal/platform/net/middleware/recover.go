package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	perr "radiodx/internal/platform/errors"
	"radiodx/internal/platform/logger"
	pnet "radiodx/internal/platform/net"
)

// RecoverJSON turns a handler panic into the standard 500 envelope and logs
// the stack. http.ErrAbortHandler is re-raised.
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")

			env := pnet.Error(perr.PanicErrf("internal error"), pnet.RequestID(r.Context()))
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(env.StatusCode)
			_ = json.NewEncoder(w).Encode(env)
		}()
		next.ServeHTTP(w, r)
	})
}
