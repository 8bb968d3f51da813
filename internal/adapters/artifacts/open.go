package artifacts

import (
	"radiodx/internal/platform/config"
)

// Config locates the artifact root and the upload spool
type Config struct {
	ProcessedDir string
	SpoolDir     string
}

// FromConfig reads PROCESSED_DIR and SPOOL_DIR (usually under STORAGE_)
func FromConfig(c config.Conf) Config {
	return Config{
		ProcessedDir: c.MayString("PROCESSED_DIR", "processed"),
		SpoolDir:     c.MayString("SPOOL_DIR", "uploads"),
	}
}

// Open creates both directories and returns the store and the spool
func Open(cfg Config, opts ...Option) (*FS, *Spool, error) {
	fs, err := New(cfg.ProcessedDir, opts...)
	if err != nil {
		return nil, nil, err
	}
	sp, err := NewSpool(cfg.SpoolDir)
	if err != nil {
		return nil, nil, err
	}
	return fs, sp, nil
}
