// Package telegram is a chat front end for the radiograph pipeline: a user
// sends a .dcm or .rvg document and gets back the annotated raster and the
// diagnostic report
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	perr "radiodx/internal/platform/errors"
	"radiodx/internal/platform/logger"
	pnet "radiodx/internal/platform/net"
	pstr "radiodx/internal/platform/strings"
	"radiodx/internal/services/radiograph/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	msgHelp = "Send a dental radiograph as a document (.dcm or .rvg). " +
		"I will convert it, detect pathologies and reply with the annotated image and a diagnostic report."
	msgSendDocument = "Please send the radiograph as a file (.dcm or .rvg), not as a photo."
	msgProcessing   = "Processing radiograph..."
	msgFailed       = "Could not process this radiograph."
	msgUnknown      = "Unknown command. Use /help."

	// messageLimit is the Bot API cap on text length
	messageLimit = 4096
)

// Pipeline is the part of the radiograph service the bot drives
type Pipeline interface {
	Ingest(ctx context.Context, up domain.Upload) (domain.UploadResult, error)
	Detect(ctx context.Context, id string) (domain.DetectResult, error)
	Annotated(ctx context.Context, id string) ([]byte, error)
	Report(ctx context.Context, id string, opt domain.ReportOptions) (domain.ReportResult, error)
}

// API is the subset of *tgbotapi.BotAPI in use
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Config tunes the bot
type Config struct {
	Token       string
	Workers     int
	MaxFileSize int64
	PollTimeout int
}

// Bot relays documents to the pipeline
type Bot struct {
	api  API
	pipe Pipeline
	cfg  Config
	http *http.Client
	log  *logger.Logger
}

// New authorizes against the Bot API
func New(cfg Config, pipe Pipeline) (*Bot, error) {
	token := pstr.Credential(cfg.Token)
	if token == "" {
		return nil, perr.InvalidArgf("telegram token is not configured")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeGateway, "telegram authorization failed")
	}
	b := NewWithAPI(api, cfg, pipe)
	b.log.Info().Str("account", api.Self.UserName).Msg("telegram bot authorized")
	return b, nil
}

// NewWithAPI builds a bot over an existing API client
func NewWithAPI(api API, cfg Config, pipe Pipeline) *Bot {
	if cfg.Workers < 1 {
		cfg.Workers = 2
	}
	if cfg.MaxFileSize <= 0 {
		// Bot API downloads stop at 20 MB
		cfg.MaxFileSize = 20 << 20
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 60
	}
	return &Bot{
		api:  api,
		pipe: pipe,
		cfg:  cfg,
		http: &http.Client{Timeout: 2 * time.Minute},
		log:  logger.Named("telegram"),
	}
}

// Run long-polls for updates until ctx ends
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.PollTimeout
	updates := b.api.GetUpdatesChan(u)

	sem := make(chan struct{}, b.cfg.Workers)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if upd.Message == nil {
				continue
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(upd tgbotapi.Update) {
				defer func() { <-sem; wg.Done() }()
				b.handle(pnet.WithRequestID(ctx, fmt.Sprintf("tg-%d", upd.UpdateID)), upd.Message)
			}(upd)
		}
	}
}

func (b *Bot) handle(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch {
	case msg.IsCommand():
		switch msg.Command() {
		case "start", "help":
			b.reply(chatID, msgHelp)
		default:
			b.reply(chatID, msgUnknown)
		}
	case msg.Document != nil:
		b.handleDocument(ctx, chatID, msg.Document)
	case len(msg.Photo) > 0:
		b.reply(chatID, msgSendDocument)
	default:
		b.reply(chatID, msgHelp)
	}
}

func (b *Bot) handleDocument(ctx context.Context, chatID int64, doc *tgbotapi.Document) {
	log := b.log.With().Str("request_id", pnet.RequestID(ctx)).Int64("chat_id", chatID).Str("name", doc.FileName).Logger()

	if !slices.Contains(domain.AllowedExtensions, pstr.Ext(doc.FileName)) {
		b.reply(chatID, domain.MsgUnsupported)
		return
	}
	if doc.FileSize > 0 && int64(doc.FileSize) > b.cfg.MaxFileSize {
		b.reply(chatID, b.tooLarge())
		return
	}
	b.reply(chatID, msgProcessing)

	body, err := b.download(ctx, doc.FileID)
	if err != nil {
		log.Error().Err(err).Msg("download failed")
		b.fail(chatID, err)
		return
	}
	defer body.Close()

	up, err := b.pipe.Ingest(ctx, domain.Upload{Name: doc.FileName, Body: body})
	if err != nil {
		log.Error().Err(err).Msg("ingest failed")
		b.fail(chatID, err)
		return
	}
	ctx = logger.WithFileID(ctx, up.FileID)

	det, err := b.pipe.Detect(ctx, up.FileID)
	if err != nil {
		log.Error().Err(err).Str("file_id", up.FileID).Msg("detect failed")
		b.fail(chatID, err)
		return
	}

	if png, err := b.pipe.Annotated(ctx, up.FileID); err == nil {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: up.FileID + ".png", Bytes: png})
		photo.Caption = caption(det)
		if _, err := b.api.Send(photo); err != nil {
			log.Warn().Err(err).Msg("send photo failed")
		}
	} else {
		log.Warn().Err(err).Msg("annotate failed")
	}

	rep, err := b.pipe.Report(ctx, up.FileID, domain.ReportOptions{})
	if err != nil {
		log.Error().Err(err).Str("file_id", up.FileID).Msg("report failed")
		b.fail(chatID, err)
		return
	}
	for _, part := range split(rep.Report, messageLimit) {
		b.reply(chatID, part)
	}
	log.Info().Str("file_id", up.FileID).Int("predictions", len(det.DetectionResults.Predictions)).Msg("radiograph answered")
}

func (b *Bot) download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	link, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeGateway, "telegram file lookup failed")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeGateway, "telegram file request")
	}
	resp, err := b.http.Do(req)
	if err != nil {
		// the link embeds the bot token
		return nil, perr.Gatewayf("telegram file download failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, perr.Gatewayf("telegram file download returned %d", resp.StatusCode)
	}
	// the reported size can be missing, so the body itself is held to the limit
	buf, err := io.ReadAll(io.LimitReader(resp.Body, b.cfg.MaxFileSize+1))
	if err != nil {
		return nil, perr.Gatewayf("telegram file download interrupted")
	}
	if int64(len(buf)) > b.cfg.MaxFileSize {
		return nil, perr.WithField(perr.Validationf("%s", b.tooLarge()), "file")
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (b *Bot) tooLarge() string {
	return fmt.Sprintf("File is too large (limit %d MB).", b.cfg.MaxFileSize>>20)
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send message failed")
	}
}

// fail answers with the error message only when it describes the user's input
func (b *Bot) fail(chatID int64, err error) {
	if e, ok := perr.As(err); ok && e.Code().ClientSafe() {
		b.reply(chatID, msgFailed+" "+e.Message())
		return
	}
	b.reply(chatID, msgFailed)
}

func caption(det domain.DetectResult) string {
	preds := det.DetectionResults.Predictions
	if len(preds) == 0 {
		return "No pathologies detected."
	}
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		parts = append(parts, fmt.Sprintf("%s %.1f%%", p.Class, p.Percent()))
	}
	return "Detected: " + strings.Join(parts, ", ")
}

// split cuts text into chunks of at most limit bytes on rune boundaries,
// preferring line breaks
func split(text string, limit int) []string {
	var out []string
	for len(text) > limit {
		cut := strings.LastIndexByte(text[:limit], '\n')
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		out = append(out, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
