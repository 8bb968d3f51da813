// Package testkit holds assertions shared by the platform tests
package testkit

import (
	"strings"
	"testing"
)

// MustPanic fails t unless fn panics
func MustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	fn()
}

// MustContain fails t unless every needle occurs in out; out is printed on failure
func MustContain(t *testing.T, out string, needles ...string) {
	t.Helper()
	for _, n := range needles {
		if !strings.Contains(out, n) {
			t.Fatalf("missing %q in output:\n%s", n, out)
		}
	}
}

// Env sets every variable for the duration of t
func Env(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}
