package channel

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// SMTPConfig carries the transport credentials for email delivery. An empty
// Host means email is unconfigured.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c SMTPConfig) configured() bool {
	return c.Host != "" && c.From != ""
}

// EmailSender delivers alerts over SMTP.
type EmailSender struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmail returns an SMTP-backed sender, or the logging variant when the
// transport is unconfigured.
func NewEmail(cfg SMTPConfig, logger *slog.Logger) Sender {
	if !cfg.configured() {
		return NewLogSender(KindEmail, logger)
	}
	return &EmailSender{cfg: cfg, send: smtp.SendMail}
}

func (s *EmailSender) Kind() Kind {
	return KindEmail
}

// Send delivers the message, honoring ctx: net/smtp has no deadline support,
// so the conversation runs in its own goroutine and an expired attempt
// context counts as a delivery failure.
func (s *EmailSender) Send(ctx context.Context, target string, msg Message) error {
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	body := buildEmailBody(s.cfg.From, target, msg)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	done := make(chan error, 1)
	go func() {
		done <- s.send(addr, auth, s.cfg.From, []string{target}, body)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", target, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", target, err)
		}
		return nil
	}
}

func buildEmailBody(from, to string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: [%s] Anomaly alert %s\r\n", msg.Severity.String(), msg.AlertID)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	summary := msg.Summary
	if summary == "" {
		summary = "An anomalous transaction was detected on your account."
	}
	fmt.Fprintf(&b, "%s\r\n\r\nAlert ID: %s\r\nSeverity: %s\r\n", summary, msg.AlertID, msg.Severity.String())
	return []byte(b.String())
}
