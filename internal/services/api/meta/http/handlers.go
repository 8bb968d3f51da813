// Package http serves the meta endpoints
package http

import (
	"context"
	"net/http"
	"time"

	"radiodx/internal/core/version"
	"radiodx/internal/modkit/httpkit"

	"golang.org/x/sync/errgroup"
)

// PingTimeout bounds one readiness probe
const PingTimeout = 2 * time.Second

// Pinger is satisfied by the artifact store and the upload spool
type Pinger interface {
	Ping(context.Context) error
}

// Check is one readiness dependency; a nil Pinger is reported as skipped
type Check struct {
	Name   string
	Pinger Pinger
}

type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Checks      []Check
	// Pipeline describes the wired providers; nil leaves them blank
	Pipeline func() PipelineResponse
}

// Register mounts health, ready, version and pipeline
func Register(r httpkit.Router, d Deps) {
	httpkit.Get(r, "/health", d.health)
	httpkit.Get(r, "/ready", d.ready)
	httpkit.Get(r, "/version", d.version)
	httpkit.Get(r, "/pipeline", d.pipeline)
}

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime_seconds"`
}

type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok, fail, skipped
	Error  string `json:"error,omitempty"`
}

type ReadyResponse struct {
	Status string       `json:"status"` // ok, degraded, fail
	Checks []ReadyCheck `json:"checks"`
}

type PipelineResponse struct {
	Strategies []string          `json:"strategies"`
	Detector   string            `json:"detector"`
	Generator  string            `json:"generator"`
	Overlay    string            `json:"overlay"`
	Build      version.BuildInfo `json:"build"`
}

func (d Deps) health(*http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: d.ServiceName,
		Started: d.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(time.Since(d.StartedAt).Seconds()),
	}, nil
}

// ready pings every check at once. A failed ping answers 503; a skipped
// check only degrades.
func (d Deps) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), PingTimeout)
	defer cancel()

	out := ReadyResponse{Status: "ok", Checks: make([]ReadyCheck, len(d.Checks))}
	var g errgroup.Group
	for i, c := range d.Checks {
		out.Checks[i] = ReadyCheck{Name: c.Name, Status: "skipped"}
		if c.Pinger == nil {
			continue
		}
		g.Go(func() error {
			if err := c.Pinger.Ping(ctx); err != nil {
				out.Checks[i].Status, out.Checks[i].Error = "fail", err.Error()
			} else {
				out.Checks[i].Status = "ok"
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, c := range out.Checks {
		switch {
		case c.Status == "fail":
			out.Status = "fail"
		case c.Status == "skipped" && out.Status == "ok":
			out.Status = "degraded"
		}
	}
	if out.Status == "fail" {
		return httpkit.Status(http.StatusServiceUnavailable, out), nil
	}
	return out, nil
}

func (d Deps) version(*http.Request) (any, error) { return version.Info(d.ServiceName), nil }

func (d Deps) pipeline(*http.Request) (any, error) {
	var out PipelineResponse
	if d.Pipeline != nil {
		out = d.Pipeline()
	}
	out.Build = version.Info(d.ServiceName)
	return out, nil
}
