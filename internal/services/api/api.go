// Package api composes the HTTP surface: the versioned modules, swagger,
// the profiler and the load balancer heartbeat
package api

import (
	"radiodx/internal/adapters/artifacts"
	"radiodx/internal/platform/config"
	"radiodx/internal/platform/logger"
	phttp "radiodx/internal/platform/net/http"
	"radiodx/internal/platform/net/middleware"

	"radiodx/internal/modkit"
	"radiodx/internal/modkit/httpkit"
	"radiodx/internal/modkit/module"
	"radiodx/internal/modkit/swaggerkit"

	metamod "radiodx/internal/services/api/meta/module"
	radiomod "radiodx/internal/services/radiograph/module"
)

type Options struct {
	Config         config.Conf
	Artifacts      *artifacts.FS
	Spool          *artifacts.Spool
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount wires every module onto r. The pipeline is built here, once.
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{
		Log:       opt.Logger,
		Cfg:       opt.Config,
		Artifacts: opt.Artifacts,
		Spool:     opt.Spool,
	}

	// before any route so probes skip the API stack
	r.Use(middleware.Heartbeat("/health"))

	radiograph := radiomod.New(deps)
	module.Register(radiograph.Name(), radiograph.Ports())

	var metaOpts []modkit.Option
	if pp, ok := module.PortsAs[metamod.PipelinePorts](radiograph.Name()); ok {
		metaOpts = append(metaOpts, modkit.WithPorts(pp))
	}
	mods := []module.Module{metamod.New(deps, metaOpts...), radiograph}

	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
		deps.Logger("api").Info().Strs("modules", module.Names()).Msg("modules mounted")
	})
}
