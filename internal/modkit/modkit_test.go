package modkit_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"radiodx/internal/modkit"
	"radiodx/internal/modkit/httpkit"
	phttp "radiodx/internal/platform/net/http"
	"radiodx/internal/platform/net/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func tag(v string) middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Trace", v)
			next.ServeHTTP(w, r)
		})
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestBuildCallerOptionsWin(t *testing.T) {
	defaults := []modkit.Option{modkit.WithName("meta"), modkit.WithPrefix("/meta")}
	b := modkit.Build(append(defaults, modkit.WithPrefix("status/"), modkit.WithPorts(42))...)

	if b.Name != "meta" || b.Prefix != "/status" || b.Ports != 42 {
		t.Fatalf("built = %+v", b)
	}
	if modkit.Build().Prefix != "" {
		t.Fatal("no prefix should mount at root")
	}
}

func TestMountUnderPrefix(t *testing.T) {
	r := phttp.AdaptChi(chi.NewRouter())
	b := modkit.Build(
		modkit.WithPrefix("/meta"),
		modkit.WithMiddlewares(tag("outer")),
		modkit.WithMiddlewares(tag("inner")),
	)
	b.Mount(r, func(rr httpkit.Router) {
		rr.Get("/health", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "ok") })
	})

	rec := get(t, r.Mux(), "/meta/health")
	if rec.Body.String() != "ok" {
		t.Fatalf("body %q", rec.Body.String())
	}
	if got := strings.Join(rec.Header().Values("X-Trace"), ","); got != "outer,inner" {
		t.Fatalf("middleware order %q", got)
	}
	if rec := get(t, r.Mux(), "/health"); rec.Code != http.StatusNotFound {
		t.Fatalf("unprefixed path: %d", rec.Code)
	}
}

func TestMountAtRootKeepsMiddlewareLocal(t *testing.T) {
	r := phttp.AdaptChi(chi.NewRouter())
	modkit.Build(modkit.WithMiddlewares(tag("radiograph"))).Mount(r, func(rr httpkit.Router) {
		rr.Get("/image/{id}", func(w http.ResponseWriter, _ *http.Request) {})
	})
	r.Get("/other", func(w http.ResponseWriter, _ *http.Request) {})

	if rec := get(t, r.Mux(), "/image/abc"); rec.Header().Get("X-Trace") != "radiograph" {
		t.Fatalf("module route missed its middleware: %v", rec.Header())
	}
	if rec := get(t, r.Mux(), "/other"); rec.Header().Get("X-Trace") != "" {
		t.Fatal("module middleware leaked to a sibling route")
	}
}

func TestDepsLogger(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	modkit.Deps{Log: &l}.Logger("radiograph").Info().Msg("ready")

	if !strings.Contains(buf.String(), `"component":"radiograph"`) {
		t.Fatalf("log line %q", buf.String())
	}
	if (modkit.Deps{}).Logger("meta") == nil {
		t.Fatal("unset Log should fall back to the root")
	}
}
