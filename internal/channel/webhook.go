package channel

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Signature headers attached to outbound webhook deliveries. Receivers
// recompute HMAC-SHA256 over "{timestamp}.{body}" with the shared secret.
const (
	HeaderTimestamp        = "X-Webhook-Timestamp"
	HeaderSignature        = "X-Webhook-Signature"
	HeaderSignatureVersion = "X-Webhook-Signature-Version"
	SignatureVersion       = "v1"
)

// WebhookSender issues signed HTTP POSTs to user-configured receivers. The
// body is the original alert payload; when a secret is configured an HMAC
// signature and timestamp are attached for receiver-side verification.
type WebhookSender struct {
	secret []byte
	client *http.Client
	now    func() time.Time
}

// WebhookOption configures a WebhookSender.
type WebhookOption func(*WebhookSender)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(s *WebhookSender) {
		if client != nil {
			s.client = client
		}
	}
}

// WithClock overrides the timestamp source, mainly for tests.
func WithClock(now func() time.Time) WebhookOption {
	return func(s *WebhookSender) {
		if now != nil {
			s.now = now
		}
	}
}

// NewWebhook builds the webhook adapter. Unlike the other channels there is
// no logging fallback: the target URL arrives per event, and an empty secret
// simply sends unsigned.
func NewWebhook(secret string, opts ...WebhookOption) *WebhookSender {
	s := &WebhookSender{
		secret: []byte(secret),
		client: &http.Client{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WebhookSender) Kind() Kind {
	return KindWebhook
}

func (s *WebhookSender) Send(ctx context.Context, target string, msg Message) error {
	body := msg.Payload
	if len(body) == 0 {
		body = []byte("{}")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	ts := strconv.FormatInt(s.now().UnixMilli(), 10)
	req.Header.Set(HeaderTimestamp, ts)
	if len(s.secret) > 0 {
		req.Header.Set(HeaderSignature, Sign(s.secret, ts, body))
		req.Header.Set(HeaderSignatureVersion, SignatureVersion)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post to %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %s returned %d", target, resp.StatusCode)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of "{timestamp}.{body}" with the given
// secret. Exported so receivers (and tests) can verify independently.
func Sign(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
