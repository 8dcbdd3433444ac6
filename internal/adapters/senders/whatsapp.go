package senders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/leadgrid/leadgrid/internal/domain/model"
	apperrors "github.com/leadgrid/leadgrid/internal/errors"
)

// WhatsAppConfig captures the WhatsApp gateway settings.
type WhatsAppConfig struct {
	BaseURL string        // Required: gateway base URL
	APIKey  string        // Optional: bearer token
	Timeout time.Duration // Optional: per-send deadline, defaults to 30s
	Client  *http.Client  // Optional: override for tests
	Logger  *slog.Logger
}

// WhatsAppSender delivers outreach messages through an HTTP gateway that
// fronts the WhatsApp Business API.
type WhatsAppSender struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewWhatsAppSender builds a WhatsApp gateway sender.
func NewWhatsAppSender(cfg WhatsAppConfig) (*WhatsAppSender, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("whatsapp gateway base url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	var logger *slog.Logger
	if cfg.Logger != nil {
		logger = cfg.Logger.With("component", "whatsapp_sender")
	}

	return &WhatsAppSender{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		client:  hc,
		logger:  logger,
	}, nil
}

// Channel reports the channel this sender serves.
func (s *WhatsAppSender) Channel() model.Channel { return model.ChannelWhatsApp }

type whatsappPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Send posts one message to the gateway. Rate limiting (429) and server
// errors (5xx) are classified as transient; other 4xx responses as permanent.
func (s *WhatsAppSender) Send(ctx context.Context, msg *model.OutreachMessage) error {
	recipient := strings.TrimSpace(msg.Recipient)
	if recipient == "" {
		return apperrors.PermanentSend("message has no recipient number", nil)
	}

	body, err := json.Marshal(whatsappPayload{To: recipient, Body: msg.Body})
	if err != nil {
		return apperrors.PermanentSend("encode whatsapp payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return apperrors.PermanentSend("create whatsapp request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperrors.TransientSend(fmt.Sprintf("whatsapp gateway unreachable: %v", err), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if s.logger != nil {
			s.logger.DebugContext(ctx, "whatsapp message delivered",
				"message_id", msg.ID, "recipient", recipient)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	return classifyGatewayStatus(resp)
}

func classifyGatewayStatus(resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	detail := strings.TrimSpace(string(respBody))
	if detail == "" {
		detail = resp.Status
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return apperrors.TransientSend(fmt.Sprintf("whatsapp gateway %s: %s", resp.Status, detail), nil)
	default:
		return apperrors.PermanentSend(fmt.Sprintf("whatsapp gateway %s: %s", resp.Status, detail), nil)
	}
}
