// Package version reports what binary is running
package version

import "runtime/debug"

// Stamped with -ldflags "-X radiodx/internal/core/version.version=v0.1.0 ..."
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// BuildInfo identifies a build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

// Info describes the running binary. Commit and date fall back to the VCS
// stamp the go tool embeds when ldflags left them empty.
func Info(service string) BuildInfo {
	bi := BuildInfo{Service: service, Version: version, Commit: commit, Date: date}
	if bi.Service == "" {
		bi.Service = "radiodx"
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		bi.Go = info.GoVersion
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && bi.Commit == "":
				bi.Commit = s.Value
			case s.Key == "vcs.time" && bi.Date == "":
				bi.Date = s.Value
			}
		}
	}
	if bi.Commit == "" {
		bi.Commit = "none"
	}
	if bi.Date == "" {
		bi.Date = "unknown"
	}
	return bi
}
