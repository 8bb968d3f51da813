// Package raw reads environment variables for the logger's own bootstrap.
// It must not import the logger.
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Env is a prefix over the process environment
type Env string

// Prefix narrows e
func (e Env) Prefix(p string) Env { return e + Env(p) }

// Get returns the trimmed value or def
func (e Env) Get(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(string(e) + key)); v != "" {
		return v
	}
	return def
}

// Bool accepts 1, true, yes, on; anything else set is false
func (e Env) Bool(key string, def bool) bool {
	switch strings.ToLower(e.Get(key, "")) {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Int returns def unless the value is a non-negative integer
func (e Env) Int(key string, def int) int {
	n, err := strconv.Atoi(e.Get(key, ""))
	if err != nil || n < 0 {
		return def
	}
	return n
}
