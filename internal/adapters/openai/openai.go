// Package openai writes diagnostic narratives with a chat-completions model
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"radiodx/internal/core/finding"
	"radiodx/internal/core/narrative"
	"radiodx/internal/platform/config"
	perr "radiodx/internal/platform/errors"
	"radiodx/internal/platform/logger"
	pstr "radiodx/internal/platform/strings"
)

const (
	// DefaultBaseURL is the public API root
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-3.5-turbo"

	maxErrorBody = 4 << 10
)

// Config holds model settings
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// FromConfig reads OPENAI_* style keys from c
func FromConfig(c config.Conf) Config {
	return Config{
		APIKey:      c.MayString("API_KEY", ""),
		Model:       c.MayString("MODEL", DefaultModel),
		BaseURL:     c.MayString("BASE_URL", DefaultBaseURL),
		MaxTokens:   c.MayInt("MAX_TOKENS", 500),
		Temperature: c.MayFloat64("TEMPERATURE", 0.3),
		Timeout:     c.MayDuration("TIMEOUT", 60*time.Second),
	}
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 500
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		c.Temperature = 0.3
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	return c
}

// New returns a generator, or nil when no real key is configured
func New(cfg Config) narrative.Generator {
	key := pstr.Credential(cfg.APIKey)
	if key == "" {
		logger.Named("openai").Info().Msg("generative model not configured; reports use the template")
		return nil
	}
	cfg.APIKey = key
	return NewClient(cfg)
}

// Client talks to a chat-completions endpoint
type Client struct {
	cfg Config
	url string
	log *logger.Logger
	do  func(*http.Request) (*http.Response, error)
}

// NewClient builds a client without the key check New performs
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	hc := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		cfg: cfg,
		url: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		log: logger.Named("openai"),
		do:  hc.Do,
	}
}

// Name implements narrative.Generator
func (c *Client) Name() string { return c.cfg.Model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type response struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Prompt is the system message sent for det
func Prompt(det finding.Detection) string {
	var b strings.Builder
	b.WriteString("You are a dental radiologist. Based on the image annotations provided below ")
	b.WriteString("(which include detected pathologies), write a concise diagnostic report in clinical language.\n\n")
	b.WriteString("Detected pathologies:")
	for _, p := range det.Predictions {
		fmt.Fprintf(&b, "\n- %s (confidence: %.1f%%)", p.Class, p.Percent())
	}
	b.WriteString("\n\nGenerate a brief diagnostic report:\n")
	b.WriteString("- Mention detected pathologies\n")
	b.WriteString("- Mention approximate tooth location if applicable\n")
	b.WriteString("- Add clinical advice if needed")
	return b.String()
}

// Generate implements narrative.Generator
func (c *Client) Generate(ctx context.Context, det finding.Detection) (string, error) {
	body, err := json.Marshal(request{
		Model:       c.cfg.Model,
		Messages:    []message{{Role: "system", Content: Prompt(det)}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeGateway, "encode completion request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeGateway, "build completion request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.do(req)
	if err != nil {
		if ue, ok := err.(*url.Error); ok {
			err = ue.Err
		}
		return "", perr.Wrap(err, perr.ErrorCodeGateway, "completion request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", perr.Gatewayf("completion upstream %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeGateway, "decode completion response")
	}
	if out.Error != nil {
		return "", perr.Gatewayf("completion error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", perr.Gatewayf("completion returned no choices")
	}
	c.log.Debug().Str("model", c.cfg.Model).Dur("elapsed", time.Since(start)).Msg("completion received")
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
