package config

import (
	"testing"
	"time"

	kit "radiodx/internal/platform/testkit"
)

func TestPrefixKey(t *testing.T) {
	api := New().Prefix("CORE_").Prefix("API_")
	if got := api.Key("PORT"); got != "CORE_API_PORT" {
		t.Fatalf("Key = %q", got)
	}
}

func TestMustString(t *testing.T) {
	tg := New().Prefix("TELEGRAM_")
	t.Setenv("TELEGRAM_TOKEN", "  123:abc ")
	if got := tg.MustString("TOKEN"); got != "123:abc" {
		t.Fatalf("MustString = %q", got)
	}
	t.Setenv("TELEGRAM_BLANK", "   ")
	kit.MustPanic(t, func() { tg.MustString("BLANK") })
	kit.MustPanic(t, func() { tg.MustString("UNSET_FOR_TEST") })
}

func TestMayValues(t *testing.T) {
	kit.Env(t, map[string]string{
		"RF_MODEL_ID":    "adr/7",
		"RF_CONFIDENCE":  "40",
		"RF_TEMPERATURE": "0.7",
		"RF_TIMEOUT":     "45s",
		"RF_MOCK":        "true",
		"RF_SEED":        "-1",
	})
	c := New().Prefix("RF_")

	if got := c.MayString("MODEL_ID", "adr/6"); got != "adr/7" {
		t.Errorf("MayString = %q", got)
	}
	if got := c.MayString("MISSING", "adr/6"); got != "adr/6" {
		t.Errorf("MayString default = %q", got)
	}
	if got := c.MayInt("CONFIDENCE", 30); got != 40 {
		t.Errorf("MayInt = %d", got)
	}
	if got := c.MayInt64("SEED", 42); got != -1 {
		t.Errorf("MayInt64 = %d", got)
	}
	if got := c.MayFloat64("TEMPERATURE", 0.3); got != 0.7 {
		t.Errorf("MayFloat64 = %v", got)
	}
	if got := c.MayDuration("TIMEOUT", time.Second); got != 45*time.Second {
		t.Errorf("MayDuration = %v", got)
	}
	if !c.MayBool("MOCK", false) {
		t.Error("MayBool = false")
	}
}

func TestMayFallsBackOnGarbage(t *testing.T) {
	kit.Env(t, map[string]string{
		"BAD_WORKERS": "four",
		"BAD_GRACE":   "soon",
		"BAD_SWAGGER": "maybe",
	})
	c := New().Prefix("BAD_")
	if c.MayInt("WORKERS", 4) != 4 || c.MayDuration("GRACE", 15*time.Second) != 15*time.Second || !c.MayBool("SWAGGER", true) {
		t.Fatal("unparsable values should fall back to defaults")
	}
}

func TestMayMegabytes(t *testing.T) {
	kit.Env(t, map[string]string{"UP_MAX_MB": "16", "UP_ZERO_MB": "0"})
	c := New().Prefix("UP_")
	if got := c.MayMegabytes("MAX_MB", 64); got != 16<<20 {
		t.Errorf("MayMegabytes = %d", got)
	}
	if got := c.MayMegabytes("ZERO_MB", 64); got != 64<<20 {
		t.Errorf("non-positive sizes fall back: %d", got)
	}
	if got := c.MayMegabytes("UNSET_MB", 20); got != 20<<20 {
		t.Errorf("default = %d", got)
	}
}
