package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	kit "radiodx/internal/platform/testkit"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func TestLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"loud":    zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := level(in); got != want {
			t.Errorf("level(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestBuildJSON(t *testing.T) {
	var buf bytes.Buffer
	l := build(Options{Level: "info", Format: "json", Service: "radiodx-api", Writer: &buf})

	l.Debug().Msg("hidden")
	l.Info().Str("strategy", "windowed").Msg("converted")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected exactly one json line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "radiodx-api" || line["strategy"] != "windowed" || line["message"] != "converted" {
		t.Fatalf("line = %v", line)
	}
}

func TestBuildConsole(t *testing.T) {
	var buf bytes.Buffer
	l := build(Options{Level: "debug", Format: "console", Writer: &buf})
	l.Debug().Msg("pipeline ready")
	kit.MustContain(t, buf.String(), "pipeline ready", "DBG")
}

func TestFromEnv(t *testing.T) {
	kit.Env(t, map[string]string{
		"LOG_LEVEL":        "debug",
		"LOG_FORMAT":       "json",
		"LOG_SERVICE":      "radiodx-bot",
		"LOG_CALLER":       "yes",
		"LOG_SAMPLE_EVERY": "x",
	})
	o := FromEnv()
	if o.Level != "debug" || o.Format != "json" || o.Service != "radiodx-bot" || !o.Caller || o.SampleEvery != 0 {
		t.Fatalf("options = %+v", o)
	}
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Format: "json", Writer: &buf})
	if Get().GetLevel() == zerolog.Disabled {
		t.Skip("root logger initialised elsewhere")
	}
	buf.Reset()

	ctx := context.WithValue(context.Background(), chimw.RequestIDKey, "req-7")
	ctx = WithFileID(ctx, "0b8f9a52-6a4d-4c1e-9f3b-7d2e5c8a1f00")
	C(ctx).Info().Msg("detect")
	Named("roboflow").Info().Msg("called")

	if buf.Len() == 0 {
		t.Skip("root logger writes elsewhere")
	}
	kit.MustContain(t, buf.String(),
		`"request_id":"req-7"`,
		`"file_id":"0b8f9a52-6a4d-4c1e-9f3b-7d2e5c8a1f00"`,
		`"component":"roboflow"`,
	)

	if WithFileID(context.Background(), "") != context.Background() {
		t.Fatal("empty id should not wrap ctx")
	}
}
