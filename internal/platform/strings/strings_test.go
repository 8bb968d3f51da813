package strings

import "testing"

func TestPrefix(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":          "",
		"/":         "",
		" // ":      "",
		"meta":      "/meta",
		"/meta/":    "/meta",
		" /debug ":  "/debug",
		"/api/v1/":  "/api/v1",
		"//report/": "/report",
	}
	for in, want := range cases {
		if got := Prefix(in); got != want {
			t.Errorf("Prefix(%q)=%q want %q", in, got, want)
		}
	}
}

func TestCredential(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                      "",
		"   ":                   "",
		"your_roboflow_api_key": "",
		"YOUR_OPENAI_API_KEY":   "",
		"your-telegram-token":   "",
		"changeme":              "",
		" rf_live_123 ":         "rf_live_123",
		"sk-abc":                "sk-abc",
	}
	for in, want := range cases {
		if got := Credential(in); got != want {
			t.Errorf("Credential(%q)=%q want %q", in, got, want)
		}
	}
}

func TestExt(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"scan.dcm":       ".dcm",
		"SCAN.RVG":       ".rvg",
		"archive.tar.gz": ".gz",
		"noext":          "",
		"dir.d/noext":    "",
		`C:\in.d\file`:   "",
		"/tmp/a/b.DCM":   ".dcm",
	}
	for in, want := range cases {
		if got := Ext(in); got != want {
			t.Errorf("Ext(%q)=%q want %q", in, got, want)
		}
	}
}
