package middleware_test

import (
	"compress/flate"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pnet "radiodx/internal/platform/net"
	"radiodx/internal/platform/net/middleware"
)

func chain(h http.Handler, mws ...middleware.Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func TestRecoverJSON(t *testing.T) {
	h := chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("decoder exploded") }),
		middleware.RequestID(), middleware.RecoverJSON)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/detect/abc", nil)
	req.Header.Set("X-Request-Id", "req-9")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	var env pnet.Wire
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Error != "internal error" || env.RequestID != "req-9" || env.Code.String() != "panic" {
		t.Fatalf("envelope = %+v", env)
	}
	if strings.Contains(rec.Body.String(), "decoder exploded") {
		t.Fatal("panic value leaked to the client")
	}
}

func TestAccessLogPassesThrough(t *testing.T) {
	for _, slow := range []time.Duration{0, time.Nanosecond} {
		h := chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			_, _ = io.WriteString(w, "queued")
		}), middleware.AccessLog(slow))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/image/abc", nil))
		if rec.Code != http.StatusAccepted || rec.Body.String() != "queued" {
			t.Fatalf("slow=%v: %d %q", slow, rec.Code, rec.Body.String())
		}
	}
}

func TestHeartbeatAndSlashes(t *testing.T) {
	reached := ""
	h := chain(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) { reached = r.URL.Path }),
		middleware.Heartbeat("/health"), middleware.StripSlashes())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || reached != "" {
		t.Fatalf("heartbeat: %d reached=%q", rec.Code, reached)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/report/abc/", nil))
	if reached != "/report/abc" {
		t.Fatalf("strip: reached %q", reached)
	}
}

func TestCompressJSON(t *testing.T) {
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"report":"`+strings.Repeat("Findings ", 400)+`"}`)
	}), middleware.Compress(flate.BestSpeed))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/report/abc", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("encoding = %q", rec.Header().Get("Content-Encoding"))
	}
}

func TestCORSPreflight(t *testing.T) {
	h := chain(http.NotFoundHandler(), middleware.CORS(middleware.CORSOptions{AllowedOrigins: []string{"https://clinic.example"}}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
	req.Header.Set("Origin", "https://clinic.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://clinic.example" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestNoCacheAndTimeout(t *testing.T) {
	var deadline bool
	h := chain(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, deadline = r.Context().Deadline()
	}), middleware.NoCache(), middleware.Timeout(time.Minute), middleware.RealIP())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/image/abc", nil))
	if rec.Header().Get("Cache-Control") == "" || !deadline {
		t.Fatalf("cache-control=%q deadline=%v", rec.Header().Get("Cache-Control"), deadline)
	}
}
