package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // encapsulated baseline JPEG frames
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// DICOMDecoder reads the first frame of a DICOM (.dcm/.rvg) file
type DICOMDecoder struct{}

// Decode implements Decoder
func (DICOMDecoder) Decode(path string) (*Payload, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("parse dicom: %w", err)
	}
	return payloadFromDataset(&ds)
}

func payloadFromDataset(ds *dicom.Dataset) (*Payload, error) {
	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("pixel data: %w", err)
	}
	info := dicom.MustGetPixelDataInfo(el.Value)
	if info.IntentionallySkipped || len(info.Frames) == 0 {
		return nil, fmt.Errorf("pixel data has no frames")
	}

	p := &Payload{Samples: 1}
	if v, ok := firstNumber(ds, tag.BitsStored); ok {
		p.BitsStored = int(v)
	}
	if v, ok := firstNumber(ds, tag.PixelRepresentation); ok {
		p.Signed = v == 1
	}
	if v, ok := firstNumber(ds, tag.SamplesPerPixel); ok && v > 0 {
		p.Samples = int(v)
	}
	c, okC := firstNumber(ds, tag.WindowCenter)
	w, okW := firstNumber(ds, tag.WindowWidth)
	if okC && okW {
		p.Window = &Window{Center: c, Width: w}
	}

	fr := info.Frames[0]
	if fr.Encapsulated {
		img, _, err := image.Decode(bytes.NewReader(fr.EncapsulatedData.Data))
		if err != nil {
			return nil, fmt.Errorf("decode encapsulated frame: %w", err)
		}
		b := img.Bounds()
		p.Rows, p.Cols, p.Image = b.Dy(), b.Dx(), img
		return p, nil
	}

	nd := fr.NativeData
	p.Rows, p.Cols = nd.Rows, nd.Cols
	if p.Rows <= 0 || p.Cols <= 0 {
		return nil, fmt.Errorf("frame has no geometry (%dx%d)", p.Cols, p.Rows)
	}
	if len(nd.Data) < p.Rows*p.Cols {
		return nil, fmt.Errorf("frame truncated: %d of %d pixels", len(nd.Data), p.Rows*p.Cols)
	}
	if len(nd.Data) > 0 && len(nd.Data[0]) > 0 {
		p.Samples = len(nd.Data[0])
	}
	p.Pixels = make([]int, 0, p.Rows*p.Cols*p.Samples)
	for _, px := range nd.Data[:p.Rows*p.Cols] {
		if len(px) != p.Samples {
			return nil, fmt.Errorf("inconsistent samples per pixel")
		}
		p.Pixels = append(p.Pixels, px...)
	}
	return p, nil
}

// firstNumber reads the first value of a numeric or numeric-string element
// Multi-valued window fields contribute only their first value
func firstNumber(ds *dicom.Dataset, t tag.Tag) (float64, bool) {
	el, err := ds.FindElementByTag(t)
	if err != nil || el == nil || el.Value == nil {
		return 0, false
	}
	switch v := el.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 {
			return float64(v[0]), true
		}
	case []float64:
		if len(v) > 0 {
			return v[0], true
		}
	case []string:
		for _, s := range v {
			// DS values may themselves carry backslash-separated multiples
			s = strings.TrimSpace(strings.SplitN(s, `\`, 2)[0])
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
			return 0, false
		}
	}
	return 0, false
}
