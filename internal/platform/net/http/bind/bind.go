// Package bind decodes and validates JSON request bodies
package bind

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	perr "radiodx/internal/platform/errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
)

// DefaultMaxBytes bounds a JSON body; batch requests carry at most a few KiB of ids
const DefaultMaxBytes int64 = 1 << 20

type checker struct {
	v  *validator.Validate
	tr ut.Translator
}

var validate = sync.OnceValue(func() checker {
	loc := en.New()
	tr, _ := ut.New(loc, loc).GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	// messages name fields the way clients send them
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "", "-":
			return f.Name
		}
		return name
	})
	_ = entrans.RegisterDefaultTranslations(v, tr)
	return checker{v: v, tr: tr}
})

// Options tunes ParseJSON
type Options struct {
	// MaxBytes caps the body; zero means DefaultMaxBytes
	MaxBytes int64
	// AllowUnknown accepts fields T does not declare
	AllowUnknown bool
}

// ParseJSON decodes one JSON value into T and runs its validate tags.
// Malformed bodies are JSON errors; failed rules are Validation errors that
// name the first offending field.
func ParseJSON[T any](r *http.Request, opts ...Options) (T, error) {
	var (
		out T
		o   Options
	)
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if r.Body == nil || r.Body == http.NoBody {
		return out, perr.JSONErrf("empty body")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, o.MaxBytes))
	if !o.AllowUnknown {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return out, perr.JSONErrf("empty body")
		}
		return out, perr.Wrap(err, perr.ErrorCodeJSON, "invalid JSON: "+err.Error())
	}
	if dec.More() {
		return out, perr.JSONErrf("unexpected data after the JSON body")
	}

	if err := Struct(out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Struct runs validate tags on v
func Struct(v any) error {
	c := validate()
	err := c.v.Struct(v)
	var fails validator.ValidationErrors
	switch {
	case err == nil:
		return nil
	case errors.As(err, &fails) && len(fails) > 0:
		return perr.WithField(perr.New(perr.ErrorCodeValidation, fails[0].Translate(c.tr)), fails[0].Field())
	}
	return perr.Wrap(err, perr.ErrorCodeValidation, "request cannot be validated")
}
