// Package service contains the radiograph pipeline workflows
//
// Every stage is keyed by one identifier minted at ingestion. Detection is
// served from the artifact store when present and collapsed across concurrent
// callers otherwise; reports are cached the same way unless regeneration is
// requested.
package service

import (
	"context"
	"encoding/binary"
	"errors"
	"slices"

	"radiodx/internal/adapters/artifacts"
	"radiodx/internal/adapters/overlay"
	"radiodx/internal/core/batch"
	"radiodx/internal/core/finding"
	"radiodx/internal/core/narrative"
	perr "radiodx/internal/platform/errors"
	"radiodx/internal/platform/logger"
	pstr "radiodx/internal/platform/strings"
	"radiodx/internal/services/radiograph/domain"

	"github.com/google/uuid"
	"github.com/russross/blackfriday/v2"
	"golang.org/x/sync/singleflight"
)

// Service defines the radiograph service contract
type Service interface {
	domain.ServicePort
}

// DefaultWorkers bounds batch fan-out when no option is given
const DefaultWorkers = 4

// Svc implements the radiograph service
type Svc struct {
	store    *artifacts.FS
	spool    *artifacts.Spool
	conv     domain.Converter
	det      domain.Detector
	comp     domain.Composer
	annotate domain.Annotator

	workers int
	seed    *uint64
	newID   func() string
	log     *logger.Logger

	flights singleflight.Group
}

// Option configures Svc
type Option func(*Svc)

// WithWorkers bounds batch concurrency
func WithWorkers(n int) Option { return func(s *Svc) { s.workers = n } }

// WithReportSeed pins the template seed for every report; by default the seed
// is derived from the identifier
func WithReportSeed(seed uint64) Option { return func(s *Svc) { s.seed = &seed } }

// WithAnnotator overrides the overlay renderer
func WithAnnotator(a domain.Annotator) Option { return func(s *Svc) { s.annotate = a } }

// WithIDSource overrides identifier minting (tests)
func WithIDSource(fn func() string) Option { return func(s *Svc) { s.newID = fn } }

// WithLogger overrides the component logger
func WithLogger(l *logger.Logger) Option { return func(s *Svc) { s.log = l } }

// New constructs a radiograph service
func New(
	store *artifacts.FS,
	spool *artifacts.Spool,
	conv domain.Converter,
	det domain.Detector,
	comp domain.Composer,
	opts ...Option,
) *Svc {
	if store == nil || spool == nil {
		panic("radiograph.Service requires an artifact store and a spool")
	}
	if conv == nil || det == nil || comp == nil {
		panic("radiograph.Service requires a converter, a detector and a composer")
	}
	s := &Svc{
		store:    store,
		spool:    spool,
		conv:     conv,
		det:      det,
		comp:     comp,
		annotate: overlay.Annotate,
		workers:  DefaultWorkers,
		newID:    func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logger.Named("radiograph")
	}
	return s
}

// Ingest validates the extension, converts the upload and stores the raster
func (s *Svc) Ingest(ctx context.Context, up domain.Upload) (domain.UploadResult, error) {
	var zero domain.UploadResult
	if up.Err != nil {
		return zero, perr.WithField(perr.Validationf("cannot open upload: %v", up.Err), "file")
	}
	ext := pstr.Ext(up.Name)
	if !slices.Contains(domain.AllowedExtensions, ext) {
		return zero, perr.WithField(perr.New(perr.ErrorCodeValidation, domain.MsgUnsupported), "file")
	}
	if up.Body == nil {
		return zero, perr.WithField(perr.Validationf("empty upload"), "file")
	}

	id := s.newID()
	ctx = logger.WithFileID(ctx, id)
	log := logger.C(ctx)

	path, err := s.spool.Stage(ctx, id, ext, up.Body)
	if err != nil {
		return zero, err
	}
	defer func() {
		if err := s.spool.Discard(path); err != nil {
			log.Warn().Err(err).Msg("spool cleanup failed")
		}
	}()

	r, err := s.conv.Convert(ctx, path)
	if err != nil {
		log.Error().Err(err).Str("name", up.Name).Msg("conversion failed")
		return zero, err
	}
	if err := s.store.Write(ctx, id, artifacts.KindRaster, r.PNG); err != nil {
		return zero, err
	}

	log.Info().Str("strategy", r.Strategy).Int("width", r.Width).Int("height", r.Height).Msg("upload converted")
	return domain.UploadResult{
		Message:            domain.MsgUploaded,
		FileID:             id,
		ConvertedImagePath: s.store.Path(id, artifacts.KindRaster),
		Strategy:           r.Strategy,
	}, nil
}

// IngestBatch ingests every upload independently
func (s *Svc) IngestBatch(ctx context.Context, ups []domain.Upload) domain.UploadOutcome {
	return batch.Run(ctx, ups, batch.Options{Workers: s.workers},
		func(u domain.Upload) string { return u.Name },
		s.Ingest)
}

// Raster returns the stored PNG for id
func (s *Svc) Raster(ctx context.Context, id string) ([]byte, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	b, err := s.store.Read(ctx, id, artifacts.KindRaster)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return nil, perr.NotFoundf(domain.MsgImageNotFound)
	}
	return b, err
}

// Annotated returns the raster with the stored detection drawn on it
func (s *Svc) Annotated(ctx context.Context, id string) ([]byte, error) {
	png, err := s.Raster(ctx, id)
	if err != nil {
		return nil, err
	}
	id, _ = parseID(id)
	det, err := s.storedDetection(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.annotate(png, det)
}

// Detect returns the stored detection for id, or runs the detector once and stores it
func (s *Svc) Detect(ctx context.Context, id string) (domain.DetectResult, error) {
	var zero domain.DetectResult
	id, err := parseID(id)
	if err != nil {
		return zero, err
	}
	ctx = logger.WithFileID(ctx, id)

	det, err := artifacts.GetJSON[finding.Detection](ctx, s.store, id, artifacts.KindDetection)
	switch {
	case err == nil:
		logger.C(ctx).Debug().Msg("detection served from cache")
		return domain.DetectResult{Message: domain.MsgDetectionCached, FileID: id, Cached: true, DetectionResults: det}, nil
	case !perr.IsCode(err, perr.ErrorCodeNotFound):
		return zero, err
	}

	// the upstream call outlives an impatient caller so its result is still cached
	ch := s.flights.DoChan(id, func() (any, error) {
		return s.detectFresh(context.WithoutCancel(ctx), id)
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return domain.DetectResult{
			Message:          domain.MsgDetected,
			FileID:           id,
			DetectionResults: res.Val.(finding.Detection),
		}, nil
	}
}

func (s *Svc) detectFresh(ctx context.Context, id string) (finding.Detection, error) {
	var zero finding.Detection
	log := logger.C(ctx)

	// a flight that finished between the cache check and this call already stored it
	if det, err := artifacts.GetJSON[finding.Detection](ctx, s.store, id, artifacts.KindDetection); err == nil {
		return det, nil
	}

	png, err := s.store.Read(ctx, id, artifacts.KindRaster)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return zero, perr.NotFoundf(domain.MsgImageNotFound)
	}
	if err != nil {
		return zero, err
	}

	det, err := s.det.Detect(ctx, png)
	if err != nil {
		log.Error().Err(err).Str("detector", s.det.Name()).Msg("detection failed")
		if _, ok := perr.As(err); !ok && !errors.Is(err, context.Canceled) {
			err = perr.Wrap(err, perr.ErrorCodeGateway, "detection failed")
		}
		return zero, err
	}
	if det.Predictions == nil {
		det.Predictions = []finding.Prediction{}
	}
	if err := det.Validate(); err != nil {
		return zero, perr.Wrap(err, perr.ErrorCodeGateway, "detector returned an invalid result")
	}
	if err := artifacts.PutJSON(ctx, s.store, id, artifacts.KindDetection, det); err != nil {
		return zero, err
	}
	log.Info().Str("detector", s.det.Name()).Int("predictions", len(det.Predictions)).Msg("detection stored")
	return det, nil
}

// DetectBatch detects every identifier independently
func (s *Svc) DetectBatch(ctx context.Context, ids []string) domain.DetectOutcome {
	return batch.Run(ctx, ids, batch.Options{Workers: s.workers},
		func(id string) string { return id },
		s.Detect)
}

// Report synthesizes and stores the narrative for id; a stored report is
// returned as is unless opt.Regenerate
func (s *Svc) Report(ctx context.Context, id string, opt domain.ReportOptions) (domain.ReportResult, error) {
	var zero domain.ReportResult
	id, err := parseID(id)
	if err != nil {
		return zero, err
	}
	ctx = logger.WithFileID(ctx, id)

	if !opt.Regenerate {
		rep, err := artifacts.GetJSON[narrative.Report](ctx, s.store, id, artifacts.KindReport)
		switch {
		case err == nil:
			return reportResult(domain.MsgReportCached, id, true, rep), nil
		case !perr.IsCode(err, perr.ErrorCodeNotFound):
			return zero, err
		}
	}

	det, err := s.storedDetection(ctx, id)
	if err != nil {
		return zero, err
	}
	rep, err := s.comp.Compose(ctx, det, s.seedFor(id))
	if err != nil {
		return zero, err
	}
	if err := artifacts.PutJSON(ctx, s.store, id, artifacts.KindReport, rep); err != nil {
		return zero, err
	}
	logger.C(ctx).Info().Str("source", string(rep.Source)).Msg("report stored")
	return reportResult(domain.MsgReported, id, false, rep), nil
}

// GetReport returns the stored report without synthesizing
func (s *Svc) GetReport(ctx context.Context, id string) (domain.ReportResult, error) {
	id, err := parseID(id)
	if err != nil {
		return domain.ReportResult{}, err
	}
	rep, err := artifacts.GetJSON[narrative.Report](ctx, s.store, id, artifacts.KindReport)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.ReportResult{}, perr.NotFoundf(domain.MsgReportMissing)
	}
	if err != nil {
		return domain.ReportResult{}, err
	}
	return reportResult("", id, true, rep), nil
}

// ReportHTML renders the stored report as a standalone HTML page
func (s *Svc) ReportHTML(ctx context.Context, id string) ([]byte, error) {
	rep, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	r := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.CompletePage | blackfriday.SkipHTML,
		Title: "Dental Radiographic Diagnostic Report",
	})
	return blackfriday.Run([]byte(rep.Report), blackfriday.WithRenderer(r)), nil
}

func (s *Svc) storedDetection(ctx context.Context, id string) (finding.Detection, error) {
	det, err := artifacts.GetJSON[finding.Detection](ctx, s.store, id, artifacts.KindDetection)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return det, perr.NotFoundf(domain.MsgDetectionMissing)
	}
	return det, err
}

// seedFor makes template reports reproducible per identifier; id is already canonical
func (s *Svc) seedFor(id string) uint64 {
	if s.seed != nil {
		return *s.seed
	}
	u := uuid.MustParse(id)
	return binary.BigEndian.Uint64(u[:8])
}

func reportResult(msg, id string, cached bool, rep narrative.Report) domain.ReportResult {
	return domain.ReportResult{
		Message:     msg,
		FileID:      id,
		Cached:      cached,
		Report:      rep.Text,
		Source:      rep.Source,
		Model:       rep.Model,
		Seed:        rep.Seed,
		GeneratedAt: rep.GeneratedAt,
	}
}

// parseID accepts only canonical UUIDs so an identifier can never address a
// path outside the store
func parseID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil || len(id) != 36 {
		return "", perr.WithField(perr.Validationf("invalid file id %q", id), "file_id")
	}
	return u.String(), nil
}
