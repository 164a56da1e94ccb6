// Package channel holds one delivery adapter per notification medium. Each
// adapter exposes a single attempt-delivery operation; failure is a normal
// outcome reported as an error, never a crash. Adapters constructed without
// provider credentials degrade to a logging no-op variant of the same
// capability (selected at construction, not branched at runtime).
package channel

import (
	"context"
	"encoding/json"

	"anomalyze/internal/event"
)

// Kind identifies a notification medium. The names double as the channel
// keys in the audit record.
type Kind string

const (
	KindEmail   Kind = "email"
	KindSMS     Kind = "sms"
	KindVoice   Kind = "call"
	KindWebhook Kind = "webhook"
)

// Kinds lists every medium in fan-out order.
var Kinds = []Kind{KindEmail, KindSMS, KindVoice, KindWebhook}

// Message is the rendered alert content handed to an adapter. Payload is the
// original event, forwarded verbatim for webhook bodies and templating.
type Message struct {
	AlertID  string
	UserID   string
	Severity event.Severity
	Summary  string
	Payload  json.RawMessage
}

// Sender is the shared delivery capability: can attempt delivery, may fail.
type Sender interface {
	Kind() Kind
	Send(ctx context.Context, target string, msg Message) error
}
