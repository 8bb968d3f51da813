// Package artifacts stores pipeline artifacts on the local filesystem
//
// Every artifact is keyed by (identifier, kind) and lives at a deterministic
// path under one root. Writes go to a temp file in the same directory and are
// renamed into place, so readers see either the old bytes or the new bytes.
package artifacts

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	perr "radiodx/internal/platform/errors"
	"radiodx/internal/platform/logger"
)

// Kind is an artifact type
type Kind string

const (
	// KindRaster is the converted PNG
	KindRaster Kind = "raster"
	// KindDetection is the detector output (JSON)
	KindDetection Kind = "detection"
	// KindReport is the narrative report (JSON)
	KindReport Kind = "report"
)

var suffixes = map[Kind]string{
	KindRaster:    ".png",
	KindDetection: "_detection.json",
	KindReport:    "_report.json",
}

// Kinds lists every known kind
func Kinds() []Kind { return []Kind{KindRaster, KindDetection, KindReport} }

// FS is the filesystem artifact store
type FS struct {
	root    string
	perm    fs.FileMode
	bufSize int
	log     *logger.Logger
}

// Option configures FS
type Option func(*FS)

// WithFileMode sets the permission of written files
func WithFileMode(m fs.FileMode) Option { return func(s *FS) { s.perm = m } }

// WithLogger overrides the component logger
func WithLogger(l *logger.Logger) Option { return func(s *FS) { s.log = l } }

// New opens (creating if needed) a store rooted at dir
func New(dir string, opts ...Option) (*FS, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, perr.InvalidArgf("artifact root is empty")
	}
	s := &FS{root: filepath.Clean(dir), perm: 0o644, bufSize: 64 << 10}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logger.Named("artifacts")
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeStorage, "create artifact root %s", s.root)
	}
	return s, nil
}

// Root returns the store directory
func (s *FS) Root() string { return s.root }

// Path is the deterministic location of (id, kind); it does not touch disk
func (s *FS) Path(id string, k Kind) string {
	return filepath.Join(s.root, id+suffixes[k])
}

func (s *FS) resolve(id string, k Kind) (string, error) {
	if _, ok := suffixes[k]; !ok {
		return "", perr.InvalidArgf("unknown artifact kind %q", k)
	}
	if id == "" || id != filepath.Base(id) || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", perr.WithField(perr.Validationf("invalid artifact identifier %q", id), "id")
	}
	return s.Path(id, k), nil
}

// Exists reports whether (id, kind) has been written
func (s *FS) Exists(ctx context.Context, id string, k Kind) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := s.resolve(id, k)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, perr.Wrapf(err, perr.ErrorCodeStorage, "stat %s artifact", k)
	}
}

// Read returns the bytes of (id, kind); absence is ErrorCodeNotFound
func (s *FS) Read(ctx context.Context, id string, k Kind) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.resolve(id, k)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, perr.NotFoundf("%s artifact not found", k)
	}
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeStorage, "read %s artifact", k)
	}
	return b, nil
}

// Write stores data at (id, kind), replacing any previous value atomically
func (s *FS) Write(ctx context.Context, id string, k Kind, data []byte) error {
	return s.WriteFrom(ctx, id, k, bytes.NewReader(data))
}

// WriteFrom streams r into (id, kind) with the same atomicity as Write
func (s *FS) WriteFrom(ctx context.Context, id string, k Kind, r io.Reader) error {
	p, err := s.resolve(id, k)
	if err != nil {
		return err
	}
	if err := writeAtomic(ctx, p, r, s.perm, s.bufSize); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return perr.Wrapf(err, perr.ErrorCodeStorage, "write %s artifact", k)
	}
	s.log.Debug().Str("file_id", id).Str("kind", string(k)).Msg("artifact written")
	return nil
}

// Ping checks that the root is a writable directory
func (s *FS) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.root, ".ping-*")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeStorage, "artifact root not writable")
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

// GetJSON decodes a structured artifact
func GetJSON[T any](ctx context.Context, s *FS, id string, k Kind) (T, error) {
	var v T
	b, err := s.Read(ctx, id, k)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, perr.Wrapf(err, perr.ErrorCodeStorage, "decode %s artifact", k)
	}
	return v, nil
}

// PutJSON encodes v and writes it as a structured artifact
func PutJSON(ctx context.Context, s *FS, id string, k Kind, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "encode %s artifact", k)
	}
	return s.Write(ctx, id, k, b)
}

func writeAtomic(ctx context.Context, dest string, r io.Reader, perm fs.FileMode, bufSize int) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, perm)

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	bw := bufio.NewWriterSize(tmp, bufSize)
	if _, err := io.Copy(bw, &ctxReader{ctx: ctx, r: r}); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	_ = syncDir(dir)
	return nil
}

// syncDir flushes directory metadata; unsupported platforms just return an error
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
