package raster

import (
	"fmt"
	"image"
	"math"
)

const defaultBitsStored = 8

type windowed struct{}

// Windowed honors stored bit depth and the display window before rescaling
func Windowed() Strategy { return windowed{} }

func (windowed) Name() string { return "windowed" }

func (windowed) Render(src *Source) (image.Image, error) {
	p, err := src.Payload()
	if err != nil {
		return nil, err
	}
	if p.Image != nil {
		return nil, fmt.Errorf("windowing not supported for compressed frames")
	}
	if len(p.Pixels) == 0 {
		return nil, fmt.Errorf("empty pixel data")
	}

	vals := make([]float64, len(p.Pixels))
	lo, hi := storedRange(bitsStored(p), p.Signed)
	for i, v := range p.Pixels {
		vals[i] = math.Min(math.Max(float64(v), lo), hi)
	}

	if w := p.Window; w != nil && w.Width > 0 {
		wlo, whi := w.Center-w.Width/2, w.Center+w.Width/2
		for i, v := range vals {
			vals[i] = math.Min(math.Max(v, wlo), whi)
		}
	}

	mn, mx := vals[0], vals[0]
	for _, v := range vals[1:] {
		mn, mx = math.Min(mn, v), math.Max(mx, v)
	}
	span := mx - mn
	if span == 0 {
		span = 1
	}

	return build(p, func(i int) uint8 { return clamp8((vals[i] - mn) * 255 / span) })
}

// bitsStored is the declared depth, or the 8-bit default widened just enough
// to hold the observed samples when the header omits it
func bitsStored(p *Payload) int {
	if p.BitsStored > 0 {
		return p.BitsStored
	}
	lo, hi := minMax(p.Pixels)
	bits := defaultBitsStored
	for bits < 32 {
		l, h := storedRange(bits, p.Signed)
		if float64(lo) >= l && float64(hi) <= h {
			break
		}
		bits++
	}
	return bits
}

// storedRange is the representable sample range for a bit depth
func storedRange(bits int, signed bool) (lo, hi float64) {
	if bits <= 0 || bits > 32 {
		bits = defaultBitsStored
	}
	if signed {
		half := math.Ldexp(1, bits-1)
		return -half, half - 1
	}
	return 0, math.Ldexp(1, bits) - 1
}
