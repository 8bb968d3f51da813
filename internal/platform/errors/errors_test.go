package errors

import (
	"encoding/json"
	stderrs "errors"
	"fmt"
	"io/fs"
	"net/http"
	"testing"
)

func TestCodeStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrorCodeValidation:          http.StatusBadRequest,
		ErrorCodeJSON:                http.StatusBadRequest,
		ErrorCodeNotFound:            http.StatusNotFound,
		ErrorCodeInvalidArgument:     http.StatusUnprocessableEntity,
		ErrorCodeTooManyRequests:     http.StatusTooManyRequests,
		ErrorCodeGateway:             http.StatusBadGateway,
		ErrorCodeUnavailable:         http.StatusServiceUnavailable,
		ErrorCodeStorage:             http.StatusInternalServerError,
		ErrorCodeConversionExhausted: http.StatusInternalServerError,
		ErrorCodePanic:               http.StatusInternalServerError,
		ErrorCode(400):               http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := code.Status(); got != want {
			t.Errorf("%s: status %d, want %d", code, got, want)
		}
	}
}

func TestCodeText(t *testing.T) {
	b, err := json.Marshal(map[string]ErrorCode{"code": ErrorCodeConversionExhausted})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"code":"conversion_exhausted"}` {
		t.Fatalf("marshal = %s", b)
	}

	var back struct{ Code ErrorCode }
	if err := json.Unmarshal([]byte(`{"Code":"not_found"}`), &back); err != nil {
		t.Fatal(err)
	}
	if back.Code != ErrorCodeNotFound {
		t.Fatalf("unmarshal = %v", back.Code)
	}
	if err := json.Unmarshal([]byte(`{"Code":"teapot"}`), &back); err == nil {
		t.Fatal("unknown name should not decode")
	}
	for _, c := range Codes() {
		var round ErrorCode
		if err := round.UnmarshalText([]byte(c.String())); err != nil || round != c {
			t.Errorf("%s does not round trip", c)
		}
	}
	if ErrorCode(999).String() != "unknown" {
		t.Fatal("out of range code should render as unknown")
	}
}

func TestClientSafe(t *testing.T) {
	for _, c := range []ErrorCode{ErrorCodeValidation, ErrorCodeNotFound, ErrorCodeConversionExhausted} {
		if !c.ClientSafe() {
			t.Errorf("%s should be client safe", c)
		}
	}
	for _, c := range []ErrorCode{ErrorCodeStorage, ErrorCodeGateway, ErrorCodeUnknown, ErrorCodePanic} {
		if c.ClientSafe() {
			t.Errorf("%s should not be client safe", c)
		}
	}
}

func TestWrapKeepsCauseOutOfMessage(t *testing.T) {
	err := Wrap(fs.ErrPermission, ErrorCodeStorage, "write raster")

	if got := err.Error(); got != "write raster: permission denied" {
		t.Fatalf("Error() = %q", got)
	}
	if !stderrs.Is(err, fs.ErrPermission) {
		t.Fatal("cause should stay reachable")
	}
	w := WireFrom(err)
	if w.Code != ErrorCodeStorage || w.Message != "write raster" {
		t.Fatalf("wire = %+v", w)
	}
	if Root(err) != fs.ErrPermission {
		t.Fatalf("Root = %v", Root(err))
	}
}

func TestWithFieldCopies(t *testing.T) {
	base := Validationf("Only DICOM files (.dcm or .rvg) are supported")
	named := WithField(base, "file")

	if e, _ := As(base); e.Field() != "" {
		t.Fatal("WithField mutated the original")
	}
	e, ok := As(named)
	if !ok || e.Field() != "file" || e.Code() != ErrorCodeValidation {
		t.Fatalf("named = %+v", e)
	}

	foreign := stderrs.New("plain")
	if WithField(foreign, "x") != foreign {
		t.Fatal("foreign errors pass through")
	}
}

func TestCodeOfThroughFmtWrap(t *testing.T) {
	inner := NotFoundf("Image not found")
	outer := fmt.Errorf("detect %s: %w", "abc", inner)

	if !IsCode(outer, ErrorCodeNotFound) {
		t.Fatalf("CodeOf = %v", CodeOf(outer))
	}
	if HTTPStatus(outer) != http.StatusNotFound {
		t.Fatalf("HTTPStatus = %d", HTTPStatus(outer))
	}
	if CodeOf(stderrs.New("x")) != ErrorCodeUnknown {
		t.Fatal("foreign errors are unknown")
	}
	if w := WireFrom(stderrs.New("boom")); w.Code != ErrorCodeUnknown || w.Message != "boom" {
		t.Fatalf("foreign wire = %+v", w)
	}
	if (WireFrom(nil) != Wire{}) {
		t.Fatal("nil wire should be zero")
	}
}

func TestSugar(t *testing.T) {
	cases := []struct {
		err  error
		code ErrorCode
	}{
		{Gatewayf("detector returned %d", 503), ErrorCodeGateway},
		{Storagef("disk full"), ErrorCodeStorage},
		{ConversionExhaustedf("all %d strategies failed", 3), ErrorCodeConversionExhausted},
		{InvalidArgf("empty dir"), ErrorCodeInvalidArgument},
		{JSONErrf("empty body"), ErrorCodeJSON},
		{PanicErrf("panic"), ErrorCodePanic},
		{Internalf("odd"), ErrorCodeUnknown},
		{Wrapf(stderrs.New("eof"), ErrorCodeGateway, "read %s", "predictions"), ErrorCodeGateway},
	}
	for _, c := range cases {
		if CodeOf(c.err) != c.code {
			t.Errorf("%v: code %s, want %s", c.err, CodeOf(c.err), c.code)
		}
	}

	var nilErr *Error
	if nilErr.Error() != "<nil>" {
		t.Fatal("nil render")
	}
}
