// Package modkit is the kit API modules are assembled with: shared deps,
// naming and mount options, and the mount itself
package modkit

import (
	"radiodx/internal/adapters/artifacts"
	"radiodx/internal/platform/config"
	"radiodx/internal/platform/logger"
)

// Deps are the process-wide pieces every module may use
type Deps struct {
	Log *logger.Logger
	Cfg config.Conf

	// Artifacts is the processed artifact store shared by every stage
	Artifacts *artifacts.FS
	// Spool holds uploads for the duration of one conversion
	Spool *artifacts.Spool
}

// Logger is a component child of Log, or of the process root when Log is unset
func (d Deps) Logger(component string) *logger.Logger {
	if d.Log == nil {
		return logger.Named(component)
	}
	l := d.Log.With().Str("component", component).Logger()
	return &l
}
