// Package overlay draws detection boxes onto a stored raster
//
// Box coordinates are the detector's centre-based geometry. The default build
// draws with image/draw; building with -tags gocv renders through OpenCV.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"radiodx/internal/core/finding"
)

var (
	boxColor   = color.RGBA{G: 255, A: 255}
	labelColor = color.RGBA{R: 255, G: 255, A: 255}
)

const stroke = 2

// Label is the caption drawn above a box
func Label(p finding.Prediction) string {
	return fmt.Sprintf("%s %.2f", p.Class, p.Confidence)
}

// Rect converts a prediction to integer pixel bounds
func Rect(p finding.Prediction) image.Rectangle {
	x0, y0, x1, y1 := p.Bounds()
	return image.Rect(
		int(math.Round(x0)), int(math.Round(y0)),
		int(math.Round(x1)), int(math.Round(y1)),
	)
}
