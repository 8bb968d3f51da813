// Package roboflow is the pathology detection gateway
//
// New picks the provider once: the hosted inference API when a key is
// configured, otherwise a stub that returns a fixed two-finding result.
package roboflow

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"radiodx/internal/core/finding"
	"radiodx/internal/platform/config"
	perr "radiodx/internal/platform/errors"
	"radiodx/internal/platform/logger"
	pstr "radiodx/internal/platform/strings"
	"radiodx/internal/services/radiograph/domain"
)

const (
	// DefaultBaseURL is the hosted inference endpoint
	DefaultBaseURL = "https://detect.roboflow.com"
	// DefaultModelID is the dental pathology model in project/version form
	DefaultModelID = "adr/6"

	maxErrorBody = 4 << 10
)

// Config holds gateway settings
type Config struct {
	APIKey     string
	ModelID    string
	BaseURL    string
	Confidence int // 0..100
	Overlap    int // 0..100
	Timeout    time.Duration
}

// FromConfig reads ROBOFLOW_* style keys from c
func FromConfig(c config.Conf) Config {
	return Config{
		APIKey:     c.MayString("API_KEY", ""),
		ModelID:    c.MayString("MODEL_ID", DefaultModelID),
		BaseURL:    c.MayString("BASE_URL", DefaultBaseURL),
		Confidence: c.MayInt("CONFIDENCE", 30),
		Overlap:    c.MayInt("OVERLAP", 50),
		Timeout:    c.MayDuration("TIMEOUT", 30*time.Second),
	}
}

func (c Config) withDefaults() Config {
	if c.ModelID == "" {
		c.ModelID = DefaultModelID
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Confidence <= 0 || c.Confidence > 100 {
		c.Confidence = 30
	}
	if c.Overlap <= 0 || c.Overlap > 100 {
		c.Overlap = 50
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// New returns the hosted client when cfg carries a real key and the stub otherwise
func New(cfg Config) domain.Detector {
	cfg = cfg.withDefaults()
	key := pstr.Credential(cfg.APIKey)
	if key == "" {
		logger.Named("roboflow").Info().Msg("detection API key not configured; using stub detector")
		return Stub{}
	}
	cfg.APIKey = key
	return NewClient(cfg)
}

// Client calls the hosted inference API
type Client struct {
	cfg  Config
	http *http.Client
	log  *logger.Logger
}

// NewClient builds a hosted client without the key check New performs
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger.Named("roboflow"),
	}
}

// Name implements domain.Detector
func (c *Client) Name() string { return "roboflow:" + c.cfg.ModelID }

// Detect uploads the raster and decodes the predictions
func (c *Client) Detect(ctx context.Context, png []byte) (finding.Detection, error) {
	var zero finding.Detection

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", "image.png")
	if err != nil {
		return zero, perr.Wrap(err, perr.ErrorCodeGateway, "build detection request")
	}
	if _, err := fw.Write(png); err != nil {
		return zero, perr.Wrap(err, perr.ErrorCodeGateway, "build detection request")
	}
	if err := mw.Close(); err != nil {
		return zero, perr.Wrap(err, perr.ErrorCodeGateway, "build detection request")
	}

	q := url.Values{}
	q.Set("api_key", c.cfg.APIKey)
	q.Set("confidence", strconv.Itoa(c.cfg.Confidence))
	q.Set("overlap", strconv.Itoa(c.cfg.Overlap))
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(c.cfg.ModelID, "/") + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return zero, perr.Wrap(err, perr.ErrorCodeGateway, "build detection request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		// the url carries the key; keep it out of the message
		if ue, ok := err.(*url.Error); ok {
			err = ue.Err
		}
		return zero, perr.Wrap(err, perr.ErrorCodeGateway, "Error calling Roboflow API")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Warn().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("detection API error")
		return zero, perr.Gatewayf("Roboflow API error: %s", strings.TrimSpace(string(b)))
	}

	var det finding.Detection
	if err := json.NewDecoder(resp.Body).Decode(&det); err != nil {
		return zero, perr.Wrap(err, perr.ErrorCodeGateway, "decode detection response")
	}
	if det.Predictions == nil {
		det.Predictions = []finding.Prediction{}
	}
	if err := det.Validate(); err != nil {
		e, _ := perr.As(err)
		return zero, perr.Gatewayf("detection response out of contract: %s (%s)", e.Message(), e.Field())
	}
	c.log.Debug().Int("predictions", len(det.Predictions)).Dur("elapsed", time.Since(start)).Msg("detection complete")
	return det, nil
}

// Stub returns a fixed result without network access
type Stub struct{}

// Name implements domain.Detector
func (Stub) Name() string { return "stub" }

// Detect implements domain.Detector
func (Stub) Detect(ctx context.Context, _ []byte) (finding.Detection, error) {
	if err := ctx.Err(); err != nil {
		return finding.Detection{}, err
	}
	return StubDetection(), nil
}

// StubDetection is the fixed result served when no API key is configured
func StubDetection() finding.Detection {
	return finding.Detection{Predictions: []finding.Prediction{
		{Class: "caries", Confidence: 0.92, X: 100, Y: 100, Width: 50, Height: 50},
		{Class: "periapical_lesion", Confidence: 0.85, X: 200, Y: 200, Width: 30, Height: 30},
	}}
}
