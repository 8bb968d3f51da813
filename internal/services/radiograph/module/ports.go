package module

import (
	"slices"

	"radiodx/internal/adapters/overlay"
	"radiodx/internal/services/radiograph/domain"
)

// Ports exposes the pipeline to other modules and binaries
type Ports struct {
	Service domain.ServicePort

	strategies []string
	detector   string
	generator  string
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Strategies lists the raster strategies in cascade order
func (p Ports) Strategies() []string { return slices.Clone(p.strategies) }

// DetectorName names the detection backend
func (p Ports) DetectorName() string { return p.detector }

// GeneratorName names the report generator, "template" without a model
func (p Ports) GeneratorName() string { return p.generator }

// OverlayEngine names the box renderer compiled in
func (p Ports) OverlayEngine() string { return overlay.Engine }
