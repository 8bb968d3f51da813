package module

import (
	"radiodx/internal/adapters/openai"
	"radiodx/internal/adapters/roboflow"
	"radiodx/internal/core/raster"
	"radiodx/internal/platform/config"
	radiohttp "radiodx/internal/services/radiograph/http"
	"radiodx/internal/services/radiograph/service"
)

// Options controls the pipeline
type Options struct {
	Workers        int
	MaxUploadBytes int64
	// ReportSeed pins template reports; negative derives the seed per identifier
	ReportSeed int64
	RasterSeed int64

	Roboflow roboflow.Config
	OpenAI   openai.Config
}

// FromConfig reads CORE_API_, REPORT_, RASTER_, ROBOFLOW_ and OPENAI_ keys
func FromConfig(cfg config.Conf) Options {
	api := cfg.Prefix("CORE_API_")
	return Options{
		Workers:        api.MayInt("BATCH_WORKERS", service.DefaultWorkers),
		MaxUploadBytes: api.MayMegabytes("MAX_UPLOAD_MB", radiohttp.DefaultMaxUploadBytes>>20),
		ReportSeed:     cfg.Prefix("REPORT_").MayInt64("SEED", -1),
		RasterSeed:     cfg.Prefix("RASTER_").MayInt64("SEED", raster.DefaultSeed),
		Roboflow:       roboflow.FromConfig(cfg.Prefix("ROBOFLOW_")),
		OpenAI:         openai.FromConfig(cfg.Prefix("OPENAI_")),
	}
}
