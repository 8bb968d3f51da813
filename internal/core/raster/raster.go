// Package raster turns radiograph binaries into displayable 8-bit PNG rasters
//
// A Converter walks an ordered list of strategies and keeps the first one that
// produces an image. The built-in order is direct, windowed, synthetic; the
// synthetic strategy draws a placeholder and only fails if it is replaced.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	perr "radiodx/internal/platform/errors"
	"radiodx/internal/platform/logger"
)

// DefaultSeed drives the synthetic placeholder when no seed is configured
const DefaultSeed int64 = 42

// Window is a display window in stored-value units
type Window struct {
	Center float64
	Width  float64
}

// Payload is the decoded first frame of a radiograph
// Pixels is row-major with Samples values per pixel. Image is set instead of
// Pixels when the frame was stored compressed and decoded by an image codec
type Payload struct {
	Rows       int
	Cols       int
	Samples    int
	Pixels     []int
	BitsStored int
	Signed     bool
	Window     *Window
	Image      image.Image
}

// Decoder reads a payload from a file on disk
type Decoder interface {
	Decode(path string) (*Payload, error)
}

// DecoderFunc adapts a function to Decoder
type DecoderFunc func(path string) (*Payload, error)

// Decode implements Decoder
func (f DecoderFunc) Decode(path string) (*Payload, error) { return f(path) }

// Source is the input handed to strategies; the file is decoded at most once
type Source struct {
	Path    string
	decoder Decoder

	decoded bool
	payload *Payload
	err     error
}

// NewSource wraps a path with the decoder used to read it
func NewSource(path string, d Decoder) *Source {
	return &Source{Path: path, decoder: d}
}

// Payload decodes the file on first use and memoizes the result
func (s *Source) Payload() (*Payload, error) {
	if !s.decoded {
		s.decoded = true
		s.payload, s.err = s.decode()
	}
	return s.payload, s.err
}

// decode runs the decoder once; a panic becomes the memoized error so later
// strategies see the failure instead of an empty payload
func (s *Source) decode() (p *Payload, err error) {
	if s.decoder == nil {
		return nil, perr.Internalf("no decoder configured")
	}
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, perr.PanicErrf("decode %s panicked: %v", s.Path, r)
		}
	}()
	p, err = s.decoder.Decode(s.Path)
	if err == nil && p == nil {
		err = perr.Internalf("decoder returned no payload")
	}
	return p, err
}

// Strategy renders a Source into an image
type Strategy interface {
	Name() string
	Render(src *Source) (image.Image, error)
}

// Attempt records one strategy's outcome
type Attempt struct {
	Strategy string `json:"strategy"`
	Error    string `json:"error,omitempty"`
}

// Raster is a successful conversion
type Raster struct {
	PNG      []byte
	Strategy string
	Width    int
	Height   int
	Attempts []Attempt
}

// Converter runs the strategy cascade
type Converter struct {
	strategies []Strategy
	decoder    Decoder
	log        *logger.Logger
}

// Option configures a Converter
type Option func(*Converter)

// WithStrategies replaces the strategy order
func WithStrategies(s ...Strategy) Option {
	return func(c *Converter) { c.strategies = append([]Strategy(nil), s...) }
}

// WithDecoder overrides the payload decoder
func WithDecoder(d Decoder) Option {
	return func(c *Converter) { c.decoder = d }
}

// WithSeed sets the synthetic placeholder seed for the default order
func WithSeed(seed int64) Option {
	return func(c *Converter) { c.strategies = Defaults(seed) }
}

// WithLogger overrides the component logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Converter) { c.log = l }
}

// Defaults returns the built-in order: direct, windowed, synthetic
func Defaults(seed int64) []Strategy {
	return []Strategy{Direct(), Windowed(), Synthetic(seed)}
}

// New builds a converter with the DICOM decoder and default strategies
func New(opts ...Option) *Converter {
	c := &Converter{
		strategies: Defaults(DefaultSeed),
		decoder:    DICOMDecoder{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = logger.Named("raster")
	}
	return c
}

// Strategies returns the configured strategy names in order
func (c *Converter) Strategies() []string {
	out := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		out[i] = s.Name()
	}
	return out
}

// Convert tries each strategy in order and returns the first PNG produced
// It fails with ErrorCodeConversionExhausted only when every strategy failed
func (c *Converter) Convert(ctx context.Context, path string) (Raster, error) {
	src := NewSource(path, c.decoder)
	attempts := make([]Attempt, 0, len(c.strategies))
	var last error

	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return Raster{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "conversion cancelled")
		}
		img, err := render(s, src)
		if err == nil {
			var buf bytes.Buffer
			err = png.Encode(&buf, img)
			if err == nil {
				attempts = append(attempts, Attempt{Strategy: s.Name()})
				b := img.Bounds()
				c.log.Debug().Str("strategy", s.Name()).Str("path", path).Msg("raster converted")
				return Raster{
					PNG:      buf.Bytes(),
					Strategy: s.Name(),
					Width:    b.Dx(),
					Height:   b.Dy(),
					Attempts: attempts,
				}, nil
			}
			err = fmt.Errorf("png encode: %w", err)
		}
		last = err
		attempts = append(attempts, Attempt{Strategy: s.Name(), Error: err.Error()})
		c.log.Warn().Err(err).Str("strategy", s.Name()).Str("path", path).Msg("conversion strategy failed")
	}

	if last == nil {
		last = perr.Internalf("no strategies configured")
	}
	names := make([]string, len(attempts))
	for i, a := range attempts {
		names[i] = a.Strategy
	}
	c.log.Error().Err(last).Str("path", path).Str("tried", strings.Join(names, ",")).Msg("all conversion strategies failed")
	return Raster{Attempts: attempts}, perr.ConversionExhaustedf("All conversion methods failed. Last error: %v", last)
}

// render runs one strategy, turning a panic into that strategy's error
func render(s Strategy, src *Source) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, perr.PanicErrf("strategy %s panicked: %v", s.Name(), r)
		}
	}()
	img, err = s.Render(src)
	if err == nil && img == nil {
		err = perr.Internalf("strategy %s returned no image", s.Name())
	}
	return img, err
}
