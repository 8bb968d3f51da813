//go:build !gocv

package overlay

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"

	"radiodx/internal/core/finding"
	perr "radiodx/internal/platform/errors"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Engine names the renderer compiled in
const Engine = "std"

// Annotate returns a PNG of src with every prediction outlined and labelled
func Annotate(src []byte, det finding.Detection) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeStorage, "decode stored raster")
	}
	b := img.Bounds()
	canvas := image.NewRGBA(b)
	draw.Draw(canvas, b, img, b.Min, draw.Src)

	face := basicfont.Face7x13
	for _, p := range det.Predictions {
		r := Rect(p).Add(b.Min)
		outline(canvas, r)

		d := &font.Drawer{Dst: canvas, Src: image.NewUniform(labelColor), Face: face}
		y := r.Min.Y - 4
		if y-face.Ascent < b.Min.Y {
			y = r.Min.Y + face.Ascent + stroke
		}
		d.Dot = fixed.P(r.Min.X, y)
		d.DrawString(Label(p))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeStorage, "encode annotated raster")
	}
	return buf.Bytes(), nil
}

// outline draws r's border; pixels outside the canvas are clipped by draw
func outline(dst *image.RGBA, r image.Rectangle) {
	c := image.NewUniform(boxColor)
	edges := [...]image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+stroke),
		image.Rect(r.Min.X, r.Max.Y-stroke, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+stroke, r.Max.Y),
		image.Rect(r.Max.X-stroke, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), c, image.Point{}, draw.Src)
	}
}
