package artifacts

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	perr "radiodx/internal/platform/errors"
)

// Spool holds raw uploads only for the duration of a conversion
type Spool struct {
	dir     string
	bufSize int
}

// NewSpool opens (creating if needed) the upload spool directory
func NewSpool(dir string) (*Spool, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, perr.InvalidArgf("spool dir is empty")
	}
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeStorage, "create spool dir %s", dir)
	}
	return &Spool{dir: dir, bufSize: 64 << 10}, nil
}

// Dir returns the spool directory
func (s *Spool) Dir() string { return s.dir }

// Stage copies r to <dir>/<id><ext> and returns the path
func (s *Spool) Stage(ctx context.Context, id, ext string, r io.Reader) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.ContainsAny(ext, `/\`) {
		return "", perr.Validationf("invalid spool name %q%q", id, ext)
	}
	p := filepath.Join(s.dir, id+ext)
	if err := writeAtomic(ctx, p, r, 0o600, s.bufSize); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", perr.Wrap(err, perr.ErrorCodeStorage, "stage upload")
	}
	return p, nil
}

// Discard removes a staged file; a missing file is not an error
func (s *Spool) Discard(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return perr.Wrap(err, perr.ErrorCodeStorage, "discard staged upload")
	}
	return nil
}

// Ping checks that the spool is a writable directory
func (s *Spool) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.dir, ".ping-*")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeStorage, "spool dir not writable")
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}
