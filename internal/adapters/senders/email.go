// Package senders implements the outbound delivery channels.
package senders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/leadgrid/leadgrid/internal/domain/model"
	apperrors "github.com/leadgrid/leadgrid/internal/errors"
)

// EmailConfig captures the SMTP relay settings.
type EmailConfig struct {
	Host     string // Required: SMTP host
	Port     int    // Optional: defaults to 587
	Username string // Optional: SASL PLAIN user
	Password string // Optional: SASL PLAIN password
	From     string // Required: envelope and header sender
	Subject  string // Optional: defaults to a generic outreach subject
	Logger   *slog.Logger

	// sendMail is swapped in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// EmailSender delivers outreach messages through an SMTP relay.
type EmailSender struct {
	addr     string
	auth     smtp.Auth
	from     string
	subject  string
	logger   *slog.Logger
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailSender builds an SMTP email sender.
func NewEmailSender(cfg EmailConfig) (*EmailSender, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, errors.New("smtp host is required")
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		return nil, errors.New("smtp sender address is required")
	}

	port := cfg.Port
	if port <= 0 {
		port = 587
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}

	subject := strings.TrimSpace(cfg.Subject)
	if subject == "" {
		subject = "Hello from our team"
	}

	sendMail := cfg.sendMail
	if sendMail == nil {
		sendMail = smtp.SendMail
	}

	var logger *slog.Logger
	if cfg.Logger != nil {
		logger = cfg.Logger.With("component", "email_sender")
	}

	return &EmailSender{
		addr:     net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		auth:     auth,
		from:     from,
		subject:  subject,
		logger:   logger,
		sendMail: sendMail,
	}, nil
}

// Channel reports the channel this sender serves.
func (s *EmailSender) Channel() model.Channel { return model.ChannelEmail }

// Send delivers one message over SMTP. Permanent SMTP rejections (5xx) are
// classified as permanent; connection and 4xx failures as transient.
func (s *EmailSender) Send(ctx context.Context, msg *model.OutreachMessage) error {
	recipient := strings.TrimSpace(msg.Recipient)
	if recipient == "" {
		return apperrors.PermanentSend("message has no recipient address", nil)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload := s.buildPayload(recipient, msg.Body)
	if err := s.sendMail(s.addr, s.auth, s.from, []string{recipient}, payload); err != nil {
		return classifySMTPError(err)
	}

	if s.logger != nil {
		s.logger.DebugContext(ctx, "email delivered", "message_id", msg.ID, "recipient", recipient)
	}
	return nil
}

func (s *EmailSender) buildPayload(recipient, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", s.subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func classifySMTPError(err error) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		if protoErr.Code >= 500 {
			return apperrors.PermanentSend(fmt.Sprintf("smtp rejected message: %v", err), err)
		}
		return apperrors.TransientSend(fmt.Sprintf("smtp deferred message: %v", err), err)
	}
	return apperrors.TransientSend(fmt.Sprintf("smtp delivery failed: %v", err), err)
}
