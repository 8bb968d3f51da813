package httpkit

import (
	"compress/flate"
	"time"

	"radiodx/internal/platform/net/middleware"
)

// RequestTimeout bounds one request; a batch of large studies is the slow path
const RequestTimeout = 5 * time.Minute

// CommonStack is the middleware in front of every versioned route, outermost first
func CommonStack() []middleware.Middleware {
	return []middleware.Middleware{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(2 * time.Second),
		middleware.RecoverJSON,
		middleware.CORS(middleware.CORSOptions{}),
		middleware.NoCache(),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(RequestTimeout),
	}
}

// MountAPIV1 scopes mount under /api/v1 behind mw
func MountAPIV1(r Router, mw []middleware.Middleware, mount func(Router)) {
	r.Route("/api/v1", func(api Router) {
		api.Use(mw...)
		mount(api)
	})
}
