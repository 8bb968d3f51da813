package modkit

import (
	"radiodx/internal/modkit/httpkit"
	"radiodx/internal/platform/net/middleware"
	str "radiodx/internal/platform/strings"
)

// Option adjusts how a module is named and mounted
type Option func(*Built)

// Built is the option set a module keeps after Build
type Built struct {
	Name string
	// Prefix is normalized; "" mounts on the parent router itself
	Prefix string
	Mw     []middleware.Middleware
	// Ports are another module's ports handed in with WithPorts
	Ports any
}

// Build applies opts in order; modules pass their defaults first so callers win
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	b.Prefix = str.Prefix(b.Prefix)
	return b
}

func WithName(name string) Option { return func(b *Built) { b.Name = name } }

func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends per-module middleware, outermost first
func WithMiddlewares(mw ...middleware.Middleware) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts hands a module the ports it consumes; the importing module owns the type
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// Mount attaches register under b.Prefix behind b.Mw
func (b Built) Mount(r httpkit.Router, register func(httpkit.Router)) {
	mount := func(rr httpkit.Router) {
		if len(b.Mw) > 0 {
			rr.Use(b.Mw...)
		}
		register(rr)
	}
	if b.Prefix == "" {
		r.Group(mount)
		return
	}
	r.Route(b.Prefix, mount)
}
