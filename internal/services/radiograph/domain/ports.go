package domain

import (
	"context"

	"radiodx/internal/core/finding"
	"radiodx/internal/core/narrative"
	"radiodx/internal/core/raster"
)

// Converter turns a raw binary on disk into a raster
type Converter interface {
	Convert(ctx context.Context, path string) (raster.Raster, error)
	Strategies() []string
}

// Detector runs pathology detection on a PNG raster
type Detector interface {
	Detect(ctx context.Context, png []byte) (finding.Detection, error)
	Name() string
}

// Composer writes the narrative for a detection
type Composer interface {
	Compose(ctx context.Context, det finding.Detection, seed uint64) (narrative.Report, error)
}

// Annotator draws detection boxes onto a raster
type Annotator func(png []byte, det finding.Detection) ([]byte, error)

// ServicePort is the pipeline surface consumed by transports (http, bot, cli)
type ServicePort interface {
	Ingest(ctx context.Context, up Upload) (UploadResult, error)
	IngestBatch(ctx context.Context, ups []Upload) UploadOutcome
	Raster(ctx context.Context, id string) ([]byte, error)
	Annotated(ctx context.Context, id string) ([]byte, error)
	Detect(ctx context.Context, id string) (DetectResult, error)
	DetectBatch(ctx context.Context, ids []string) DetectOutcome
	Report(ctx context.Context, id string, opt ReportOptions) (ReportResult, error)
	GetReport(ctx context.Context, id string) (ReportResult, error)
	ReportHTML(ctx context.Context, id string) ([]byte, error)
}
