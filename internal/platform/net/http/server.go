package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"radiodx/internal/platform/config"
	"radiodx/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// Server owns the chi mux and the listener lifecycle
type Server struct {
	mux   *chi.Mux
	srv   *stdhttp.Server
	grace time.Duration
}

// NewServer reads API_PORT and SHUTDOWN_GRACE from cfg. Each hook sees the
// bare mux before anything is mounted.
func NewServer(cfg config.Conf, hooks ...func(*chi.Mux)) *Server {
	m := chi.NewRouter()
	for _, h := range hooks {
		h(m)
	}
	return &Server{
		mux: m,
		srv: &stdhttp.Server{
			Addr:              cfg.MayString("API_PORT", ":4000"),
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
			// no ReadTimeout: request bodies carry multi-megabyte studies
			IdleTimeout: 2 * time.Minute,
		},
		grace: cfg.MayDuration("SHUTDOWN_GRACE", 15*time.Second),
	}
}

// Router is the mount point for modules
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr is the configured listen address
func (s *Server) Addr() string { return s.srv.Addr }

// Run serves until the listener fails or ctx ends. On ctx end in-flight
// requests get the shutdown grace period to finish; that path returns nil.
func (s *Server) Run(ctx context.Context) error {
	log := logger.Named("http")

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("listening")
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Dur("grace", s.grace).Msg("draining")
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.grace)
	defer cancel()
	return s.srv.Shutdown(sctx)
}
