// Package module wires the radiograph pipeline into the API using modkit
package module

import (
	"radiodx/internal/adapters/openai"
	"radiodx/internal/adapters/overlay"
	"radiodx/internal/adapters/roboflow"
	"radiodx/internal/core/narrative"
	"radiodx/internal/core/raster"
	modkit "radiodx/internal/modkit"
	"radiodx/internal/modkit/httpkit"
	radiohttp "radiodx/internal/services/radiograph/http"
	"radiodx/internal/services/radiograph/service"
)

// Module serves the pipeline over HTTP at the API root
type Module struct {
	built  modkit.Built
	ports  Ports
	upload radiohttp.Options
}

// New builds the pipeline from deps.Cfg
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	return NewWithOptions(deps, FromConfig(deps.Cfg), opts...)
}

// NewWithOptions builds the pipeline from o
func NewWithOptions(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	return &Module{
		built:  modkit.Build(append([]modkit.Option{modkit.WithName("radiograph")}, opts...)...),
		ports:  Pipeline(deps, o),
		upload: radiohttp.Options{MaxUploadBytes: o.MaxUploadBytes},
	}
}

// Pipeline assembles the converter, detector, composer and service over the
// shared artifact store; the cli and bot use it without the http module
func Pipeline(deps modkit.Deps, o Options) Ports {
	log := deps.Logger("radiograph")

	conv := raster.New(raster.WithSeed(o.RasterSeed))
	det := roboflow.New(o.Roboflow)

	gen := openai.New(o.OpenAI)
	comp := narrative.NewComposer(gen)

	svcOpts := []service.Option{service.WithWorkers(o.Workers), service.WithLogger(log)}
	if o.ReportSeed >= 0 {
		svcOpts = append(svcOpts, service.WithReportSeed(uint64(o.ReportSeed)))
	}
	svc := service.New(deps.Artifacts, deps.Spool, conv, det, comp, svcOpts...)

	generator := "template"
	if gen != nil {
		generator = gen.Name()
	}
	log.Info().
		Strs("strategies", conv.Strategies()).
		Str("detector", det.Name()).
		Str("generator", generator).
		Str("overlay", overlay.Engine).
		Msg("pipeline ready")

	return Ports{
		Service:    svc,
		strategies: conv.Strategies(),
		detector:   det.Name(),
		generator:  generator,
	}
}

func (m *Module) Name() string { return m.built.Name }

func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(rr httpkit.Router) {
		radiohttp.Register(rr, m.ports.Service, m.upload)
	})
}
