// Package module mounts the meta endpoints: liveness, readiness, build info
// and the providers the pipeline was wired with
package module

import (
	"time"

	modkit "radiodx/internal/modkit"
	"radiodx/internal/modkit/httpkit"

	metahttp "radiodx/internal/services/api/meta/http"
)

// ServiceName is reported by health, service and version
const ServiceName = "radiodx-api"

// PipelinePorts is what meta reads from the pipeline module, handed in with modkit.WithPorts
type PipelinePorts interface {
	Strategies() []string
	DetectorName() string
	GeneratorName() string
	OverlayEngine() string
}

type Module struct {
	built modkit.Built
	deps  metahttp.Deps
}

// New mounts under /meta unless opts say otherwise
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	hd := metahttp.Deps{
		ServiceName: ServiceName,
		StartedAt:   time.Now(),
		Checks:      readinessChecks(deps),
	}
	if pp, ok := b.Ports.(PipelinePorts); ok {
		hd.Pipeline = func() metahttp.PipelineResponse {
			return metahttp.PipelineResponse{
				Strategies: pp.Strategies(),
				Detector:   pp.DetectorName(),
				Generator:  pp.GeneratorName(),
				Overlay:    pp.OverlayEngine(),
			}
		}
	}
	return &Module{built: b, deps: hd}
}

// readinessChecks keeps typed nil stores out of the Pinger interface
func readinessChecks(deps modkit.Deps) []metahttp.Check {
	checks := []metahttp.Check{{Name: "artifacts"}, {Name: "spool"}}
	if deps.Artifacts != nil {
		checks[0].Pinger = deps.Artifacts
	}
	if deps.Spool != nil {
		checks[1].Pinger = deps.Spool
	}
	return checks
}

func (m *Module) Name() string { return m.built.Name }

func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(rr httpkit.Router) { metahttp.Register(rr, m.deps) })
}

// Ports is nil; nothing depends on meta
func (m *Module) Ports() any { return nil }
