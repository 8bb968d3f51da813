package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"radiodx/internal/platform/config"
	perr "radiodx/internal/platform/errors"
	phttp "radiodx/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) phttp.Envelope {
	t.Helper()
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("body %q: %v", rec.Body.String(), err)
	}
	return env
}

func TestRouterScopes(t *testing.T) {
	r := phttp.AdaptChi(chi.NewRouter())
	r.Route("/api/v1", func(api phttp.Router) {
		api.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.Header().Set("X-Scope", "v1")
				next.ServeHTTP(w, req)
			})
		})
		api.Group(func(g phttp.Router) {
			g.Get("/image/{id}", func(w http.ResponseWriter, req *http.Request) {
				_, _ = io.WriteString(w, chi.URLParam(req, "id"))
			})
		})
		api.Post("/detect/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
		api.Handle("/raw", http.NotFoundHandler())
	})

	rec := serve(t, r.Mux(), http.MethodGet, "/api/v1/image/abc")
	if rec.Body.String() != "abc" || rec.Header().Get("X-Scope") != "v1" {
		t.Fatalf("group route: %q scope=%q", rec.Body.String(), rec.Header().Get("X-Scope"))
	}
	if rec := serve(t, r.Mux(), http.MethodPost, "/api/v1/detect/abc"); rec.Code != http.StatusAccepted {
		t.Fatalf("post: %d", rec.Code)
	}
	if rec := serve(t, r.Mux(), http.MethodGet, "/api/v1/detect/abc"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method: %d", rec.Code)
	}
}

func TestResponseWrite(t *testing.T) {
	m := chi.NewRouter()
	m.Get("/ok", phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.OK(map[string]string{"file_id": "abc"})
	}))
	m.Get("/partial", phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.Status(http.StatusUnprocessableEntity, []string{})
	}))
	m.Get("/missing", phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.Error(perr.NotFoundf("Image not found"))
	}))
	m.Get("/broken", phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.Error(perr.Wrap(errors.New("disk gone"), perr.ErrorCodeStorage, "read raster"))
	}))
	m.Get("/png", phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.Bytes("image/png", []byte("\x89PNG"))
	}))
	m.Get("/empty", phttp.Handle(func(*http.Request) phttp.Response { return phttp.NoContent() }))

	rec := serve(t, m, http.MethodGet, "/ok")
	env := envelope(t, rec)
	if rec.Code != 200 || env.Status != "OK" || env.Data.(map[string]any)["file_id"] != "abc" {
		t.Fatalf("ok: %d %+v", rec.Code, env)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type %q", ct)
	}

	if rec := serve(t, m, http.MethodGet, "/partial"); rec.Code != 422 || envelope(t, rec).StatusCode != 422 {
		t.Fatalf("partial: %d", rec.Code)
	}

	rec = serve(t, m, http.MethodGet, "/missing")
	env = envelope(t, rec)
	if rec.Code != 404 || env.Error != "Image not found" || env.Code != perr.ErrorCodeNotFound {
		t.Fatalf("missing: %d %+v", rec.Code, env)
	}

	rec = serve(t, m, http.MethodGet, "/broken")
	if env := envelope(t, rec); rec.Code != 500 || env.Error != "read raster" {
		t.Fatalf("broken: %d %+v", rec.Code, env)
	}

	rec = serve(t, m, http.MethodGet, "/png")
	if rec.Header().Get("Content-Type") != "image/png" || rec.Header().Get("Content-Length") != "4" || rec.Body.String() != "\x89PNG" {
		t.Fatalf("png: %v %q", rec.Header(), rec.Body.String())
	}

	if rec := serve(t, m, http.MethodGet, "/empty"); rec.Code != 204 || rec.Body.Len() != 0 {
		t.Fatalf("empty: %d %q", rec.Code, rec.Body.String())
	}
}

func TestProfiler(t *testing.T) {
	r := phttp.AdaptChi(chi.NewRouter())
	phttp.MountProfiler(r, "/debug", true)
	if rec := serve(t, r.Mux(), http.MethodGet, "/debug/pprof/cmdline"); rec.Code != http.StatusOK {
		t.Fatalf("pprof: %d", rec.Code)
	}

	off := phttp.AdaptChi(chi.NewRouter())
	phttp.MountProfiler(off, "/debug", false)
	if rec := serve(t, off.Mux(), http.MethodGet, "/debug/pprof/cmdline"); rec.Code != http.StatusNotFound {
		t.Fatalf("disabled pprof: %d", rec.Code)
	}
}

func TestServerConfig(t *testing.T) {
	t.Setenv("CORE_API_PORT", ":8181")
	hooked := false
	srv := phttp.NewServer(config.New().Prefix("CORE_"), func(*chi.Mux) { hooked = true })
	if srv.Addr() != ":8181" || !hooked {
		t.Fatalf("addr=%q hooked=%v", srv.Addr(), hooked)
	}
}

func TestServerRunStopsOnCancel(t *testing.T) {
	t.Setenv("T_API_PORT", "127.0.0.1:0")
	t.Setenv("T_SHUTDOWN_GRACE", "1s")
	srv := phttp.NewServer(config.New().Prefix("T_"))
	srv.Router().Get("/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "pong") })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestServerRunListenError(t *testing.T) {
	t.Setenv("BAD_API_PORT", "127.0.0.1:notaport")
	if err := phttp.NewServer(config.New().Prefix("BAD_")).Run(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}
