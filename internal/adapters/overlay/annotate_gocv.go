//go:build gocv

package overlay

import (
	"image"

	"gocv.io/x/gocv"

	"radiodx/internal/core/finding"
	perr "radiodx/internal/platform/errors"
)

// Engine names the renderer compiled in
const Engine = "gocv"

// Annotate returns a PNG of src with every prediction outlined and labelled
func Annotate(src []byte, det finding.Detection) ([]byte, error) {
	mat, err := gocv.IMDecode(src, gocv.IMReadColor)
	if err != nil || mat.Empty() {
		if err == nil {
			err = perr.Storagef("empty raster")
		}
		_ = mat.Close()
		return nil, perr.Wrap(err, perr.ErrorCodeStorage, "decode stored raster")
	}
	defer mat.Close()

	for _, p := range det.Predictions {
		r := Rect(p)
		gocv.Rectangle(&mat, r, boxColor, stroke)
		org := image.Pt(r.Min.X, r.Min.Y-6)
		if org.Y < 12 {
			org.Y = r.Min.Y + 16
		}
		gocv.PutText(&mat, Label(p), org, gocv.FontHersheySimplex, 0.5, labelColor, 1)
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeStorage, "encode annotated raster")
	}
	defer buf.Close()
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
