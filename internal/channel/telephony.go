package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// TelephonyConfig carries the provider settings shared by the SMS and voice
// adapters. The request path embeds AccountID, so all three of APIURL,
// AccountID, and AuthToken are required for the adapter to be configured.
type TelephonyConfig struct {
	APIURL     string
	AccountID  string
	AuthToken  string
	FromNumber string
}

func (c TelephonyConfig) configured() bool {
	return c.APIURL != "" && c.AccountID != "" && c.AuthToken != ""
}

// telephonySender is the shared HTTP plumbing behind SMS and voice. The
// provider exposes one endpoint per medium; both take a destination number
// and a rendered message.
type telephonySender struct {
	kind   Kind
	cfg    TelephonyConfig
	client *http.Client
	render func(msg Message) string
}

// NewSMS returns an SMS sender backed by the telephony provider, or the
// logging variant when unconfigured.
func NewSMS(cfg TelephonyConfig, logger *slog.Logger) Sender {
	if !cfg.configured() {
		return NewLogSender(KindSMS, logger)
	}
	return &telephonySender{
		kind:   KindSMS,
		cfg:    cfg,
		client: &http.Client{},
		render: renderSMSText,
	}
}

// NewVoice returns a voice-call sender backed by the telephony provider, or
// the logging variant when unconfigured. Voice renders a short spoken
// message template from the event summary.
func NewVoice(cfg TelephonyConfig, logger *slog.Logger) Sender {
	if !cfg.configured() {
		return NewLogSender(KindVoice, logger)
	}
	return &telephonySender{
		kind:   KindVoice,
		cfg:    cfg,
		client: &http.Client{},
		render: renderSpokenText,
	}
}

func (s *telephonySender) Kind() Kind {
	return s.kind
}

type telephonyRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *telephonySender) Send(ctx context.Context, target string, msg Message) error {
	body, err := json.Marshal(telephonyRequest{
		To:      target,
		From:    s.cfg.FromNumber,
		Kind:    string(s.kind),
		Message: s.render(msg),
	})
	if err != nil {
		return fmt.Errorf("marshal telephony request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.cfg.APIURL, s.cfg.AccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telephony request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.AuthToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s provider call: %w", s.kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s provider returned %d", s.kind, resp.StatusCode)
	}
	return nil
}

func renderSMSText(msg Message) string {
	summary := msg.Summary
	if summary == "" {
		summary = "Anomalous activity detected on your account."
	}
	return fmt.Sprintf("[%s] %s (alert %s)", msg.Severity.String(), summary, msg.AlertID)
}

func renderSpokenText(msg Message) string {
	summary := msg.Summary
	if summary == "" {
		summary = "anomalous activity was detected on your account"
	}
	return fmt.Sprintf(
		"This is an automated alert from your anomaly monitoring service. A %s severity incident was detected: %s. Please review your account.",
		msg.Severity.String(), summary,
	)
}
