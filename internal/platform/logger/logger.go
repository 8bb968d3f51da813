// Package logger owns the process zerolog root and derives component and
// request scoped children from it
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"radiodx/internal/platform/config/raw"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the logging type handed around the codebase
type Logger = zerolog.Logger

// Options shape the root logger
type Options struct {
	Level   string
	Format  string // "json" or "console"
	Service string
	Caller  bool
	// SampleEvery keeps one in N events when above 1
	SampleEvery int
	Writer      io.Writer
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_SERVICE, LOG_CALLER and LOG_SAMPLE_EVERY
func FromEnv() Options {
	env := raw.Env("LOG_")
	return Options{
		Level:       env.Get("LEVEL", "info"),
		Format:      env.Get("FORMAT", "console"),
		Service:     env.Get("SERVICE", ""),
		Caller:      env.Bool("CALLER", false),
		SampleEvery: env.Int("SAMPLE_EVERY", 0),
	}
}

var (
	once sync.Once
	root zerolog.Logger
)

// Init builds the root logger. Only the first call, or the first Get, has effect.
func Init(opt Options) {
	once.Do(func() { root = build(opt) })
}

// Get returns the root, building it from the environment on first use
func Get() *Logger {
	Init(FromEnv())
	return &root
}

func build(opt Options) zerolog.Logger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var w io.Writer = os.Stdout
	if opt.Writer != nil {
		w = opt.Writer
	}
	if strings.EqualFold(opt.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	lc := zerolog.New(w).Level(level(opt.Level)).With().Timestamp()
	if opt.Service != "" {
		lc = lc.Str("service", opt.Service)
	}
	if opt.Caller {
		lc = lc.Caller()
	}
	l := lc.Logger()
	if opt.SampleEvery > 1 {
		l = l.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
	}
	return l
}

// level falls back to info; warning is accepted for warn
func level(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	l, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return l
}

// Named tags a child with the component it logs for
func Named(component string) *Logger {
	l := Get().With().Str("component", component).Logger()
	return &l
}

type fileIDKey struct{}

// WithFileID marks ctx as working on one stored radiograph
func WithFileID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, fileIDKey{}, id)
}

// C returns a child carrying the request id set by the RequestID middleware
// and the file id set with WithFileID, whichever ctx has
func C(ctx context.Context) *Logger {
	lc := Get().With()
	if id := chimw.GetReqID(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	if id, _ := ctx.Value(fileIDKey{}).(string); id != "" {
		lc = lc.Str("file_id", id)
	}
	l := lc.Logger()
	return &l
}
