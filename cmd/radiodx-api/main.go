// @title         radiodx API
// @version       0.1.0
// @description   Dental radiograph conversion, pathology detection and diagnostic reports

package main

import (
	"context"
	"os/signal"
	"syscall"

	"radiodx/internal/adapters/artifacts"
	"radiodx/internal/platform/config"
	"radiodx/internal/platform/logger"
	phttp "radiodx/internal/platform/net/http"

	"radiodx/internal/services/api"
)

func main() {
	// .env first so LOG_* and CORE_* below see it
	dotenvErr := config.LoadDotEnv()

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	l := logger.Get()
	if dotenvErr != nil {
		l.Panic().Err(dotenvErr).Msg("load .env failed")
	}

	store, spool, err := artifacts.Open(artifacts.FromConfig(root.Prefix("STORAGE_")))
	if err != nil {
		l.Panic().Err(err).Msg("artifacts.Open failed")
	}

	// http server (reads CORE_API_PORT)
	srv := phttp.NewServer(root.Prefix("CORE_"))

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Artifacts:      store,
			Spool:          spool,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
	l.Info().Msg("bye")
}
