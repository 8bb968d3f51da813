package raster

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Caption marks every synthetic placeholder so it is never mistaken for a real study
const Caption = "Sample X-ray (Conversion Fallback)"

const (
	syntheticW = 800
	syntheticH = 600
	teeth      = 10
)

type synthetic struct{ seed int64 }

// Synthetic draws a deterministic placeholder radiograph; the input is ignored
func Synthetic(seed int64) Strategy { return synthetic{seed: seed} }

func (synthetic) Name() string { return "synthetic" }

func (s synthetic) Render(_ *Source) (image.Image, error) {
	w, h := syntheticW, syntheticH
	img := image.NewGray(image.Rect(0, 0, w, h))
	rng := rand.New(rand.NewPCG(uint64(s.seed), uint64(s.seed)))

	// radial falloff from the centre
	cx, cy := float64(w)/2, float64(h)/2
	maxDim := float64(max(w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			img.Pix[y*img.Stride+x] = uint8(255 * (1 - math.Min(1, d/maxDim*1.5)))
		}
	}

	// tooth-like bars across the middle third
	barW := w / 15
	for i := 0; i < teeth; i++ {
		x0 := (i + 1) * w / 12
		for y := h / 3; y < 2*h/3; y++ {
			for x := x0; x < min(x0+barW, w); x++ {
				o := y*img.Stride + x
				img.Pix[o] = uint8(min(int(img.Pix[o])+50, 255))
			}
		}
	}

	// darkened lesion-like spots
	spots := 3 + rng.IntN(3)
	for i := 0; i < spots; i++ {
		sx := w/4 + rng.IntN(w/2)
		sy := h/3 + rng.IntN(h/3)
		r := 5 + rng.IntN(11)
		dark := 50 + rng.IntN(101)
		for y := max(sy-r, 0); y <= min(sy+r, h-1); y++ {
			for x := max(sx-r, 0); x <= min(sx+r, w-1); x++ {
				if (x-sx)*(x-sx)+(y-sy)*(y-sy) > r*r {
					continue
				}
				o := y*img.Stride + x
				img.Pix[o] = uint8(max(int(img.Pix[o])-dark, 0))
			}
		}
	}

	face := basicfont.Face7x13
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Gray{Y: 255}),
		Face: face,
		Dot:  fixed.P(10, 10+face.Ascent),
	}
	d.DrawString(Caption)
	return img, nil
}
