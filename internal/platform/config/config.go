// Package config reads settings from namespaced environment variables.
// Each process component takes a Conf scoped with Prefix, e.g. ROBOFLOW_ or STORAGE_.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"radiodx/internal/platform/logger"
)

// Conf is a prefix over the process environment
type Conf struct{ prefix string }

// New returns the unprefixed root
func New() Conf { return Conf{} }

// Prefix narrows c; prefixes concatenate
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// Key is the full variable name for k
func (c Conf) Key(k string) string { return c.prefix + k }

func (c Conf) lookup(k string) string { return strings.TrimSpace(os.Getenv(c.Key(k))) }

// MustString panics through the logger when the variable is unset or blank
func (c Conf) MustString(key string) string {
	v := c.lookup(key)
	if v == "" {
		logger.Get().Panic().Str("key", c.Key(key)).Msg("missing required env")
	}
	return v
}

// MayString returns def for an unset or blank variable
func (c Conf) MayString(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

func (c Conf) MayInt(key string, def int) int { return may(c, key, def, strconv.Atoi) }

func (c Conf) MayInt64(key string, def int64) int64 {
	return may(c, key, def, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
}

func (c Conf) MayFloat64(key string, def float64) float64 {
	return may(c, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func (c Conf) MayBool(key string, def bool) bool { return may(c, key, def, strconv.ParseBool) }

func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, time.ParseDuration)
}

// MayMegabytes reads a whole number of MiB and returns it in bytes
func (c Conf) MayMegabytes(key string, defMB int64) int64 {
	mb := c.MayInt64(key, defMB)
	if mb <= 0 {
		logger.Get().Warn().Str("key", c.Key(key)).Int64("default_mb", defMB).Msg("size must be positive; using default")
		mb = defMB
	}
	return mb << 20
}

// may parses an optional variable; a value that does not parse is logged and
// replaced by def so a typo never stops a process from starting
func may[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.Key(key)).Str("value", s).Interface("default", def).Msg("unparsable env; using default")
		return def
	}
	return v
}
