package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

type direct struct{}

// Direct maps the payload's observed range linearly onto 0..255
// A payload whose maximum is 0 is cast without rescaling
func Direct() Strategy { return direct{} }

func (direct) Name() string { return "direct" }

func (direct) Render(src *Source) (image.Image, error) {
	p, err := src.Payload()
	if err != nil {
		return nil, err
	}
	if p.Image != nil {
		g := image.NewGray(p.Image.Bounds())
		draw.Draw(g, g.Bounds(), p.Image, p.Image.Bounds().Min, draw.Src)
		return g, nil
	}
	if len(p.Pixels) == 0 {
		return nil, fmt.Errorf("empty pixel data")
	}

	lo, hi := minMax(p.Pixels)
	px := p.Pixels
	scale := func(i int) uint8 { return clamp8(float64(px[i])) }
	switch {
	case hi == 0:
	case hi == lo:
		scale = func(i int) uint8 { return clamp8(float64(px[i]) * 255 / float64(hi)) }
	default:
		span := float64(hi - lo)
		scale = func(i int) uint8 { return clamp8(float64(px[i]-lo) * 255 / span) }
	}
	return build(p, scale)
}

// build lays out samples as a gray or RGBA image; scale receives the sample index
func build(p *Payload, scale func(i int) uint8) (image.Image, error) {
	r := image.Rect(0, 0, p.Cols, p.Rows)
	n := p.Rows * p.Cols
	if n <= 0 || len(p.Pixels) < n*p.Samples {
		return nil, fmt.Errorf("pixel data does not cover %dx%d frame", p.Cols, p.Rows)
	}
	switch p.Samples {
	case 1:
		g := image.NewGray(r)
		for i := 0; i < n; i++ {
			g.Pix[i] = scale(i)
		}
		return g, nil
	case 3:
		out := image.NewRGBA(r)
		for i := 0; i < n; i++ {
			o := i * 3
			out.SetRGBA(i%p.Cols, i/p.Cols, color.RGBA{
				R: scale(o),
				G: scale(o + 1),
				B: scale(o + 2),
				A: 255,
			})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported samples per pixel: %d", p.Samples)
	}
}

func minMax(xs []int) (lo, hi int) {
	lo, hi = xs[0], xs[0]
	for _, v := range xs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
