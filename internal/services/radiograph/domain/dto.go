// Package domain holds DTOs and ports for the radiograph pipeline
package domain

import (
	"io"
	"time"

	"radiodx/internal/core/batch"
	"radiodx/internal/core/finding"
	"radiodx/internal/core/narrative"
)

// Result messages
const (
	MsgUploaded        = "File uploaded and converted successfully"
	MsgDetected        = "Pathologies detected successfully"
	MsgDetectionCached = "Pathologies loaded from cache"
	MsgReported        = "Diagnostic report generated successfully"
	MsgReportCached    = "Diagnostic report loaded from cache"

	MsgUnsupported      = "Only DICOM files (.dcm or .rvg) are supported"
	MsgImageNotFound    = "Image not found"
	MsgDetectionMissing = "Detection results not found"
	MsgReportMissing    = "Report not found"
)

// AllowedExtensions lists accepted upload extensions (lower case)
var AllowedExtensions = []string{".dcm", ".rvg"}

// Upload is one raw asset as received
type Upload struct {
	Name string
	Body io.Reader
	// Err is set when the body could not be opened
	Err error
}

// UploadResult is returned by ingestion
type UploadResult struct {
	Message            string `json:"message"              example:"File uploaded and converted successfully"`
	FileID             string `json:"file_id"              example:"6b0f2d4e-3c1a-4f7b-9a8e-2d5c7e9f1a3b"`
	ConvertedImagePath string `json:"converted_image_path" example:"processed/6b0f2d4e-3c1a-4f7b-9a8e-2d5c7e9f1a3b.png"`
	Strategy           string `json:"strategy"             example:"windowed"`
}

// DetectResult is returned by detection
type DetectResult struct {
	Message          string            `json:"message"  example:"Pathologies detected successfully"`
	FileID           string            `json:"file_id"  example:"6b0f2d4e-3c1a-4f7b-9a8e-2d5c7e9f1a3b"`
	Cached           bool              `json:"cached"   example:"false"`
	DetectionResults finding.Detection `json:"detection_results"`
}

// ReportResult is returned by report synthesis and lookup
type ReportResult struct {
	Message     string           `json:"message"  example:"Diagnostic report generated successfully"`
	FileID      string           `json:"file_id"  example:"6b0f2d4e-3c1a-4f7b-9a8e-2d5c7e9f1a3b"`
	Cached      bool             `json:"cached"   example:"false"`
	Report      string           `json:"report"`
	Source      narrative.Source `json:"source"   example:"template"`
	Model       string           `json:"model,omitempty" example:"gpt-3.5-turbo"`
	Seed        uint64           `json:"seed"     example:"42"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// ReportOptions tunes report synthesis
type ReportOptions struct {
	// Regenerate ignores a stored report
	Regenerate bool
}

// DetectBatchInput is the body of a batch detection request; malformed ids
// fail per item rather than rejecting the batch
type DetectBatchInput struct {
	FileIDs []string `json:"file_ids" validate:"required,min=1,max=100,dive,required" example:"6b0f2d4e-3c1a-4f7b-9a8e-2d5c7e9f1a3b"`
}

// UploadOutcome is the batch form of ingestion
type UploadOutcome = batch.Outcome[UploadResult]

// DetectOutcome is the batch form of detection
type DetectOutcome = batch.Outcome[DetectResult]
