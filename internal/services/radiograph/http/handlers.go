// Package http provides http transport for the radiograph pipeline
package http

import (
	"errors"
	"mime/multipart"
	stdhttp "net/http"
	"strconv"

	"radiodx/internal/modkit/httpkit"
	perr "radiodx/internal/platform/errors"
	"radiodx/internal/platform/logger"
	"radiodx/internal/services/radiograph/domain"

	"github.com/go-chi/chi/v5"
)

// DefaultMaxUploadBytes caps one multipart request
const DefaultMaxUploadBytes int64 = 64 << 20

// multipart parts beyond this stay on disk until the request ends
const formMemory = 8 << 20

// Options tunes the transport
type Options struct {
	MaxUploadBytes int64
}

// Register mounts pipeline endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort, opt Options) {
	if opt.MaxUploadBytes <= 0 {
		opt.MaxUploadBytes = DefaultMaxUploadBytes
	}
	h := &handlers{svc: s, maxUpload: opt.MaxUploadBytes}

	httpkit.Post(r, "/upload", h.upload)
	httpkit.Post(r, "/upload-multiple", h.uploadMultiple)

	r.Get("/image/{id}", httpkit.Handle(h.image))
	r.Get("/image/{id}/annotated", httpkit.Handle(h.annotated))

	httpkit.Post(r, "/detect/{id}", h.detect)
	httpkit.PostJSON(r, "/detect-batch", h.detectBatch)

	httpkit.Post(r, "/report/{id}", h.report)
	httpkit.Get(r, "/report/{id}", h.getReport)
	r.Get("/report/{id}/html", httpkit.Handle(h.reportHTML))
}

type handlers struct {
	svc       domain.ServicePort
	maxUpload int64
}

// swagger:route POST /upload Radiograph radiographUpload
// @Summary Upload a radiograph and convert it to PNG
// @Tags Radiograph
// @Accept mpfd
// @Produce json
// @Param file formData file true "DICOM file (.dcm or .rvg)"
// @Success 200 {object} domain.UploadResult "ok"
// @Router /upload [post]
func (h *handlers) upload(r *stdhttp.Request) (any, error) {
	form, err := h.parseForm(r)
	if err != nil {
		return nil, err
	}
	defer removeForm(r, form)

	files := form.File["file"]
	if len(files) == 0 {
		return nil, perr.WithField(perr.Validationf("no file provided"), "file")
	}
	f, err := files[0].Open()
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeValidation, "unreadable upload")
	}
	defer f.Close()

	return h.svc.Ingest(r.Context(), domain.Upload{Name: files[0].Filename, Body: f})
}

// swagger:route POST /upload-multiple Radiograph radiographUploadMultiple
// @Summary Upload several radiographs; each converts independently
// @Tags Radiograph
// @Accept mpfd
// @Produce json
// @Param files formData file true "DICOM files (.dcm or .rvg)"
// @Success 200 {object} domain.UploadOutcome "completed or partial"
// @Failure 422 {object} domain.UploadOutcome "every item failed"
// @Router /upload-multiple [post]
func (h *handlers) uploadMultiple(r *stdhttp.Request) (any, error) {
	form, err := h.parseForm(r)
	if err != nil {
		return nil, err
	}
	defer removeForm(r, form)

	headers := form.File["files"]
	if len(headers) == 0 {
		return nil, perr.WithField(perr.Validationf("no files provided"), "files")
	}

	// an unopenable part carries its open error and fails on its own inside the batch
	ups := make([]domain.Upload, len(headers))
	for i, fh := range headers {
		ups[i].Name = fh.Filename
		f, err := fh.Open()
		if err != nil {
			logger.C(r.Context()).Warn().Err(err).Str("name", fh.Filename).Msg("multipart part unreadable")
			ups[i].Err = err
			continue
		}
		defer f.Close()
		ups[i].Body = f
	}

	out := h.svc.IngestBatch(r.Context(), ups)
	if out.Failed() {
		return httpkit.Status(stdhttp.StatusUnprocessableEntity, out), nil
	}
	return out, nil
}

// swagger:route GET /image/{id} Radiograph radiographImage
// @Summary Converted raster
// @Tags Radiograph
// @Produce png
// @Param id path string true "file id"
// @Success 200 {file} binary "image/png"
// @Router /image/{id} [get]
func (h *handlers) image(r *stdhttp.Request) httpkit.Response {
	b, err := h.svc.Raster(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.Bytes("image/png", b)
}

// swagger:route GET /image/{id}/annotated Radiograph radiographAnnotated
// @Summary Raster with the stored detection drawn on it
// @Tags Radiograph
// @Produce png
// @Param id path string true "file id"
// @Success 200 {file} binary "image/png"
// @Router /image/{id}/annotated [get]
func (h *handlers) annotated(r *stdhttp.Request) httpkit.Response {
	b, err := h.svc.Annotated(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.Bytes("image/png", b)
}

// swagger:route POST /detect/{id} Radiograph radiographDetect
// @Summary Detect pathologies, served from cache when already stored
// @Tags Radiograph
// @Produce json
// @Param id path string true "file id"
// @Success 200 {object} domain.DetectResult "ok"
// @Router /detect/{id} [post]
func (h *handlers) detect(r *stdhttp.Request) (any, error) {
	return h.svc.Detect(r.Context(), chi.URLParam(r, "id"))
}

// swagger:route POST /detect-batch Radiograph radiographDetectBatch
// @Summary Detect pathologies for several identifiers
// @Tags Radiograph
// @Accept json
// @Produce json
// @Param payload body domain.DetectBatchInput true "Identifiers"
// @Success 200 {object} domain.DetectOutcome "completed or partial"
// @Failure 422 {object} domain.DetectOutcome "every item failed"
// @Router /detect-batch [post]
func (h *handlers) detectBatch(r *stdhttp.Request, in domain.DetectBatchInput) (any, error) {
	out := h.svc.DetectBatch(r.Context(), in.FileIDs)
	if out.Failed() {
		return httpkit.Status(stdhttp.StatusUnprocessableEntity, out), nil
	}
	return out, nil
}

// swagger:route POST /report/{id} Radiograph radiographReport
// @Summary Synthesize the diagnostic report
// @Tags Radiograph
// @Produce json
// @Param id path string true "file id"
// @Param regenerate query bool false "ignore a stored report"
// @Success 200 {object} domain.ReportResult "ok"
// @Router /report/{id} [post]
func (h *handlers) report(r *stdhttp.Request) (any, error) {
	var opt domain.ReportOptions
	if v := r.URL.Query().Get("regenerate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, perr.WithField(perr.Validationf("regenerate must be a boolean"), "regenerate")
		}
		opt.Regenerate = b
	}
	return h.svc.Report(r.Context(), chi.URLParam(r, "id"), opt)
}

// swagger:route GET /report/{id} Radiograph radiographGetReport
// @Summary Stored diagnostic report
// @Tags Radiograph
// @Produce json
// @Param id path string true "file id"
// @Success 200 {object} domain.ReportResult "ok"
// @Router /report/{id} [get]
func (h *handlers) getReport(r *stdhttp.Request) (any, error) {
	return h.svc.GetReport(r.Context(), chi.URLParam(r, "id"))
}

// swagger:route GET /report/{id}/html Radiograph radiographReportHTML
// @Summary Stored diagnostic report as a printable page
// @Tags Radiograph
// @Produce html
// @Param id path string true "file id"
// @Success 200 {string} string "text/html"
// @Router /report/{id}/html [get]
func (h *handlers) reportHTML(r *stdhttp.Request) httpkit.Response {
	b, err := h.svc.ReportHTML(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.Bytes("text/html; charset=utf-8", b)
}

func (h *handlers) parseForm(r *stdhttp.Request) (*multipart.Form, error) {
	r.Body = stdhttp.MaxBytesReader(nil, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooBig *stdhttp.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, perr.WithField(perr.Validationf("upload exceeds %d bytes", h.maxUpload), "file")
		}
		return nil, perr.Wrap(err, perr.ErrorCodeValidation, "expected a multipart form")
	}
	return r.MultipartForm, nil
}

func removeForm(r *stdhttp.Request, form *multipart.Form) {
	if err := form.RemoveAll(); err != nil {
		logger.C(r.Context()).Warn().Err(err).Msg("multipart cleanup failed")
	}
}
