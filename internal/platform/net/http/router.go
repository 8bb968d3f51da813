// Package http is the HTTP seam: a router facade over chi, the reply
// envelope writer and the server lifecycle
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler is a plain net/http handler func
type Handler = func(http.ResponseWriter, *http.Request)

// Router is the surface modules mount against
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)
	Handle(path string, h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	Group(fn func(Router))
	Route(prefix string, fn func(Router))
	Mux() http.Handler
}

// AdaptChi exposes m as a Router
func AdaptChi(m *chi.Mux) Router { return chiRouter{r: m} }

type chiRouter struct{ r chi.Router }

func (c chiRouter) Get(p string, h Handler)  { c.r.Get(p, h) }
func (c chiRouter) Post(p string, h Handler) { c.r.Post(p, h) }

func (c chiRouter) Handle(p string, h http.Handler)           { c.r.Handle(p, h) }
func (c chiRouter) Use(mw ...func(http.Handler) http.Handler) { c.r.Use(mw...) }

func (c chiRouter) Group(fn func(Router)) {
	c.r.Group(func(sub chi.Router) { fn(chiRouter{r: sub}) })
}

func (c chiRouter) Route(prefix string, fn func(Router)) {
	c.r.Route(prefix, func(sub chi.Router) { fn(chiRouter{r: sub}) })
}

func (c chiRouter) Mux() http.Handler { return c.r }
