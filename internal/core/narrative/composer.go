package narrative

import (
	"context"
	"strings"
	"time"

	"radiodx/internal/core/finding"
	perr "radiodx/internal/platform/errors"
	"radiodx/internal/platform/logger"
)

// Source names which path wrote a report
type Source string

const (
	// SourceTemplate is the deterministic template path
	SourceTemplate Source = "template"
	// SourceGenerative is an external language model
	SourceGenerative Source = "generative"
)

// Generator is an optional generative model
type Generator interface {
	Generate(ctx context.Context, det finding.Detection) (string, error)
	Name() string
}

// Report is the persisted narrative for one identifier
type Report struct {
	Text        string    `json:"report"`
	Source      Source    `json:"source"`
	Model       string    `json:"model,omitempty"`
	Seed        uint64    `json:"seed"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Composer picks the generative path when available and the template otherwise
type Composer struct {
	tmpl *Template
	gen  Generator
	log  *logger.Logger
	now  func() time.Time
}

// ComposerOption configures a Composer
type ComposerOption func(*Composer)

// WithTemplate overrides the template synthesizer
func WithTemplate(t *Template) ComposerOption { return func(c *Composer) { c.tmpl = t } }

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) ComposerOption { return func(c *Composer) { c.now = now } }

// WithComposerLogger overrides the component logger
func WithComposerLogger(l *logger.Logger) ComposerOption { return func(c *Composer) { c.log = l } }

// NewComposer builds a Composer; gen may be nil
func NewComposer(gen Generator, opts ...ComposerOption) *Composer {
	c := &Composer{gen: gen, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	if c.tmpl == nil {
		c.tmpl = NewTemplate(nil)
	}
	if c.log == nil {
		c.log = logger.Named("narrative")
	}
	return c
}

// Generative reports whether a generative model is wired
func (c *Composer) Generative() bool { return c.gen != nil }

// Compose returns a report for det. The only error is an invalid detection;
// every generator failure degrades to the template path
func (c *Composer) Compose(ctx context.Context, det finding.Detection, seed uint64) (Report, error) {
	if err := det.Validate(); err != nil {
		return Report{}, err
	}

	if c.gen != nil {
		text, err := c.gen.Generate(ctx, det)
		text = strings.TrimSpace(text)
		if err == nil && text == "" {
			err = perr.Gatewayf("generator returned an empty report")
		}
		if err == nil {
			return Report{
				Text:        text,
				Source:      SourceGenerative,
				Model:       c.gen.Name(),
				Seed:        seed,
				GeneratedAt: c.now().UTC(),
			}, nil
		}
		c.log.Warn().Err(err).Str("generator", c.gen.Name()).Msg("generative report failed; using template")
	}

	text, err := c.tmpl.Render(det, NewRand(seed))
	if err != nil {
		return Report{}, err
	}
	return Report{
		Text:        text,
		Source:      SourceTemplate,
		Seed:        seed,
		GeneratedAt: c.now().UTC(),
	}, nil
}
