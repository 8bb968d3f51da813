package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"radiodx/internal/adapters/artifacts"
	"radiodx/internal/adapters/telegram"
	"radiodx/internal/modkit"
	"radiodx/internal/platform/config"
	"radiodx/internal/platform/logger"

	radiomod "radiodx/internal/services/radiograph/module"
)

func main() {
	dotenvErr := config.LoadDotEnv()

	root := config.New()
	tgCfg := root.Prefix("TELEGRAM_")
	l := logger.Get()
	if dotenvErr != nil {
		l.Panic().Err(dotenvErr).Msg("load .env failed")
	}

	store, spool, err := artifacts.Open(artifacts.FromConfig(root.Prefix("STORAGE_")))
	if err != nil {
		l.Panic().Err(err).Msg("artifacts.Open failed")
	}

	pipeline := radiomod.Pipeline(
		modkit.Deps{Log: l, Cfg: root, Artifacts: store, Spool: spool},
		radiomod.FromConfig(root),
	)

	bot, err := telegram.New(telegram.Config{
		Token:       tgCfg.MustString("TOKEN"),
		Workers:     tgCfg.MayInt("WORKERS", 2),
		MaxFileSize: tgCfg.MayMegabytes("MAX_FILE_MB", 20),
		PollTimeout: int(tgCfg.MayDuration("POLL_TIMEOUT", time.Minute).Seconds()),
	}, pipeline.Service)
	if err != nil {
		l.Panic().Err(err).Msg("telegram.New failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bot.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("bot stopped")
	}
	l.Info().Msg("bye")
}
