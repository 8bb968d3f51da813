package main

import (
	"os"

	"radiodx/internal/adapters/artifacts"
	"radiodx/internal/modkit"
	"radiodx/internal/platform/config"
	"radiodx/internal/platform/logger"
	"radiodx/internal/services/radiograph/domain"

	radiomod "radiodx/internal/services/radiograph/module"
)

func main() {
	dotenvErr := config.LoadDotEnv()
	l := logger.Get()
	if dotenvErr != nil {
		l.Panic().Err(dotenvErr).Msg("load .env failed")
	}

	open := func() (domain.ServicePort, error) {
		root := config.New()
		store, spool, err := artifacts.Open(artifacts.FromConfig(root.Prefix("STORAGE_")))
		if err != nil {
			return nil, err
		}
		p := radiomod.Pipeline(modkit.Deps{Log: l, Cfg: root, Artifacts: store, Spool: spool}, radiomod.FromConfig(root))
		return p.Service, nil
	}

	if err := newRootCmd(open, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
