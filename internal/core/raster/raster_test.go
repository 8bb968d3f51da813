package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	perr "radiodx/internal/platform/errors"

	"github.com/stretchr/testify/require"
)

func payloadDecoder(p *Payload) Decoder {
	return DecoderFunc(func(string) (*Payload, error) { return p, nil })
}

func failingDecoder(calls *int) Decoder {
	return DecoderFunc(func(string) (*Payload, error) {
		*calls++
		return nil, errors.New("not a dicom file")
	})
}

type stubStrategy struct {
	name string
	img  image.Image
	err  error
	pan  bool
}

func (s stubStrategy) Name() string { return s.name }

func (s stubStrategy) Render(*Source) (image.Image, error) {
	if s.pan {
		panic("kaboom")
	}
	return s.img, s.err
}

func grayOf(t *testing.T, r Raster) *image.Gray {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(r.PNG))
	require.NoError(t, err)
	g, ok := img.(*image.Gray)
	require.True(t, ok, "expected gray png, got %T", img)
	return g
}

func TestDirectRescalesObservedRange(t *testing.T) {
	c := New(WithDecoder(payloadDecoder(&Payload{Rows: 2, Cols: 2, Samples: 1, Pixels: []int{0, 100, 200, 400}})))
	r, err := c.Convert(context.Background(), "x.dcm")
	require.NoError(t, err)
	require.Equal(t, "direct", r.Strategy)
	require.Equal(t, []uint8{0, 63, 127, 255}, grayOf(t, r).Pix)
	require.Len(t, r.Attempts, 1)
}

func TestDirectSkipsRescaleWhenMaxIsZero(t *testing.T) {
	c := New(WithDecoder(payloadDecoder(&Payload{Rows: 1, Cols: 3, Samples: 1, Pixels: []int{0, 0, 0}})))
	r, err := c.Convert(context.Background(), "x.dcm")
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 0, 0}, grayOf(t, r).Pix)
}

func TestDirectFlatPayload(t *testing.T) {
	img, err := Direct().Render(NewSource("x", payloadDecoder(&Payload{Rows: 1, Cols: 2, Samples: 1, Pixels: []int{7, 7}})))
	require.NoError(t, err)
	require.Equal(t, []uint8{255, 255}, img.(*image.Gray).Pix)
}

func TestWindowedClipsThenRescales(t *testing.T) {
	p := &Payload{
		Rows: 1, Cols: 5, Samples: 1,
		Pixels:     []int{0, 50, 100, 150, 4000},
		BitsStored: 12,
		Window:     &Window{Center: 100, Width: 100},
	}
	img, err := Windowed().Render(NewSource("x", payloadDecoder(p)))
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 0, 127, 255, 255}, img.(*image.Gray).Pix)
}

func TestWindowedHonorsBitDepth(t *testing.T) {
	// 8 bits stored: 300 is out of range and clamps to 255 before rescaling
	p := &Payload{Rows: 1, Cols: 3, Samples: 1, Pixels: []int{0, 255, 300}, BitsStored: 8}
	img, err := Windowed().Render(NewSource("x", payloadDecoder(p)))
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 255, 255}, img.(*image.Gray).Pix)
}

func TestWindowedWithoutBitDepthKeepsWideData(t *testing.T) {
	p := &Payload{Rows: 1, Cols: 3, Samples: 1, Pixels: []int{0, 1000, 2000}}
	img, err := Windowed().Render(NewSource("x", payloadDecoder(p)))
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 127, 255}, img.(*image.Gray).Pix)
}

func TestWindowedRejectsCompressedFrames(t *testing.T) {
	p := &Payload{Rows: 1, Cols: 1, Image: image.NewGray(image.Rect(0, 0, 1, 1))}
	_, err := Windowed().Render(NewSource("x", payloadDecoder(p)))
	require.Error(t, err)
}

func TestRGBPayload(t *testing.T) {
	p := &Payload{Rows: 1, Cols: 1, Samples: 3, Pixels: []int{0, 50, 100}}
	img, err := Direct().Render(NewSource("x", payloadDecoder(p)))
	require.NoError(t, err)
	rgba := img.(*image.RGBA)
	require.Equal(t, []uint8{0, 127, 255, 255}, rgba.Pix)
}

func TestCorruptInputFallsBackToSynthetic(t *testing.T) {
	calls := 0
	c := New(WithDecoder(failingDecoder(&calls)))
	r, err := c.Convert(context.Background(), "garbage.dcm")
	require.NoError(t, err)
	require.Equal(t, "synthetic", r.Strategy)
	require.Equal(t, 800, r.Width)
	require.Equal(t, 600, r.Height)
	require.Len(t, r.Attempts, 3)
	require.Equal(t, "direct", r.Attempts[0].Strategy)
	require.Contains(t, r.Attempts[0].Error, "not a dicom file")
	require.Equal(t, 1, calls, "payload should be decoded once per conversion")
}

func TestDecoderPanicIsMemoizedAsError(t *testing.T) {
	calls := 0
	dec := DecoderFunc(func(string) (*Payload, error) {
		calls++
		panic("bad pixel data")
	})
	r, err := New(WithDecoder(dec)).Convert(context.Background(), "odd.dcm")
	require.NoError(t, err)
	require.Equal(t, "synthetic", r.Strategy)
	require.Len(t, r.Attempts, 3)
	for _, a := range r.Attempts[:2] {
		require.Contains(t, a.Error, "decode odd.dcm panicked: bad pixel data", a.Strategy)
		require.NotContains(t, a.Error, "nil pointer", a.Strategy)
	}
	require.Equal(t, 1, calls)
}

func TestDecoderWithoutPayloadFails(t *testing.T) {
	src := NewSource("x", payloadDecoder(nil))
	p, err := src.Payload()
	require.Nil(t, p)
	require.True(t, perr.IsCode(err, perr.ErrorCodeUnknown))
}

func TestFirstSuccessWins(t *testing.T) {
	one := image.NewGray(image.Rect(0, 0, 1, 1))
	c := New(WithStrategies(
		stubStrategy{name: "a", err: errors.New("nope")},
		stubStrategy{name: "b", img: one},
		stubStrategy{name: "c", img: one},
	))
	r, err := c.Convert(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, "b", r.Strategy)
	require.Equal(t, []string{"a", "b", "c"}, c.Strategies())
}

func TestExhaustedReportsLastError(t *testing.T) {
	c := New(WithStrategies(
		stubStrategy{name: "a", err: errors.New("first")},
		stubStrategy{name: "b", pan: true},
		stubStrategy{name: "c", err: errors.New("boom")},
	))
	r, err := c.Convert(context.Background(), "x")
	require.Error(t, err)
	require.True(t, perr.IsCode(err, perr.ErrorCodeConversionExhausted))
	require.Contains(t, err.Error(), "All conversion methods failed. Last error: boom")
	require.Len(t, r.Attempts, 3)
	require.Contains(t, r.Attempts[1].Error, "panicked")
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Convert(ctx, "x")
	require.True(t, perr.IsCode(err, perr.ErrorCodeUnavailable))
}

func TestSyntheticIsDeterministic(t *testing.T) {
	a, err := Synthetic(DefaultSeed).Render(nil)
	require.NoError(t, err)
	b, err := Synthetic(DefaultSeed).Render(nil)
	require.NoError(t, err)
	require.Equal(t, a.(*image.Gray).Pix, b.(*image.Gray).Pix)

	c, err := Synthetic(7).Render(nil)
	require.NoError(t, err)
	require.NotEqual(t, a.(*image.Gray).Pix, c.(*image.Gray).Pix)
}

func TestSyntheticCarriesCaption(t *testing.T) {
	img, err := Synthetic(DefaultSeed).Render(nil)
	require.NoError(t, err)
	g := img.(*image.Gray)
	// the corner gradient is dark; caption glyphs are pure white
	white := 0
	for y := 10; y < 24; y++ {
		for x := 10; x < 10+7*len(Caption); x++ {
			if g.GrayAt(x, y).Y == 255 {
				white++
			}
		}
	}
	require.Greater(t, white, 50)
}
