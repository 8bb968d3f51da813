// Package module is the contract the API composes modules through, plus a
// bootstrap registry where one module looks up another's ports
package module

import (
	phttp "radiodx/internal/platform/net/http"
)

// Module is one mountable slice of the API
type Module interface {
	Name() string
	MountRoutes(r phttp.Router)
	// Ports is what the module offers others; nil when it offers nothing
	Ports() any
}
