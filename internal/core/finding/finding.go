// Package finding defines the detection result shared by the detector
// gateways, the report synthesizer and the artifact store
package finding

import (
	"fmt"
	"math"

	perr "radiodx/internal/platform/errors"
)

// Prediction is one detected pathology
// X and Y are the box centre; all geometry is in the detector's coordinate
// space and is stored exactly as received
type Prediction struct {
	Class       string  `json:"class"`
	Confidence  float64 `json:"confidence"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	ClassID     *int    `json:"class_id,omitempty"`
	DetectionID string  `json:"detection_id,omitempty"`
}

// ImageSize is the raster size the detector reports having seen
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Detection is the full detector output for one raster
type Detection struct {
	Predictions []Prediction `json:"predictions"`
	Image       *ImageSize   `json:"image,omitempty"`
	Time        float64      `json:"time,omitempty"`
}

// Empty reports whether nothing was detected
func (d Detection) Empty() bool { return len(d.Predictions) == 0 }

// Validate checks confidence range and box non-negativity
func (d Detection) Validate() error {
	for i, p := range d.Predictions {
		if err := p.Validate(); err != nil {
			return perr.WithField(err, fmt.Sprintf("predictions[%d]", i))
		}
	}
	return nil
}

// Validate checks a single prediction
func (p Prediction) Validate() error {
	if math.IsNaN(p.Confidence) || p.Confidence < 0 || p.Confidence > 1 {
		return perr.Validationf("confidence %v outside [0,1] for class %q", p.Confidence, p.Class)
	}
	for _, v := range [...]float64{p.X, p.Y, p.Width, p.Height} {
		if math.IsNaN(v) || v < 0 {
			return perr.Validationf("negative or undefined box geometry for class %q", p.Class)
		}
	}
	return nil
}

// Percent renders confidence as a percentage rounded to one decimal, e.g. 0.92 -> 92.0
func (p Prediction) Percent() float64 {
	return math.Round(p.Confidence*1000) / 10
}

// Bounds returns the box corners (x0, y0, x1, y1) from centre geometry
func (p Prediction) Bounds() (x0, y0, x1, y1 float64) {
	return p.X - p.Width/2, p.Y - p.Height/2, p.X + p.Width/2, p.Y + p.Height/2
}
