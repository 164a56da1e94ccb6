// Package dispatch hosts the consumer loop that turns anomaly events into
// authorized, deduplicated, multi-channel notifications. Flow is strictly
// one direction: event -> duplicate guard -> entitlement resolve -> channel
// fan-out -> audit emit. No stage calls back into an earlier one.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"anomalyze/internal/audit"
	"anomalyze/internal/channel"
	"anomalyze/internal/entitlement"
	"anomalyze/internal/event"
	"anomalyze/pkg/platform/retry"
	"anomalyze/pkg/platform/sentinel"
)

// IncidentFallback decides how an event with no incident identifier is
// keyed for duplicate suppression.
type IncidentFallback string

const (
	// FallbackUserWindow folds every id-less event for a user within the
	// lease TTL into one suppressed incident. This can mask legitimately
	// distinct anomalies; it is the long-standing default, surfaced here as
	// configuration pending a product decision.
	FallbackUserWindow IncidentFallback = "user-window"
	// FallbackUnique treats every id-less event as a distinct incident
	// (no suppression).
	FallbackUnique IncidentFallback = "unique"
)

// userWindowKey is the placeholder incident id under FallbackUserWindow.
const userWindowKey = "no-incident"

// Guard is the duplicate-suppression slice the orchestrator depends on.
type Guard interface {
	Claim(ctx context.Context, userID, incidentID string) bool
}

// AuditPublisher appends dispatch outcomes to the outbound stream.
type AuditPublisher interface {
	Publish(ctx context.Context, rec audit.Record) error
}

// Orchestrator processes one inbound event at a time: guard, resolve,
// fan out, audit. It holds no long-lived state beyond its collaborators.
type Orchestrator struct {
	guard        Guard
	entitlements entitlement.Store
	senders      map[channel.Kind]channel.Sender
	auditor      AuditPublisher

	retryPolicy    retry.Policy
	channelTimeout time.Duration
	fallback       IncidentFallback
	logger         *slog.Logger
	newAlertID     func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRetryPolicy overrides the per-channel retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *Orchestrator) { o.retryPolicy = p }
}

// WithChannelTimeout bounds each individual delivery attempt.
func WithChannelTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.channelTimeout = d
		}
	}
}

// WithIncidentFallback sets the policy for events without an incident id.
func WithIncidentFallback(f IncidentFallback) Option {
	return func(o *Orchestrator) {
		if f == FallbackUserWindow || f == FallbackUnique {
			o.fallback = f
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAlertIDFunc overrides alert id generation, mainly for tests.
func WithAlertIDFunc(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newAlertID = fn
		}
	}
}

func NewOrchestrator(
	guard Guard,
	entitlements entitlement.Store,
	senders []channel.Sender,
	auditor AuditPublisher,
	opts ...Option,
) *Orchestrator {
	byKind := make(map[channel.Kind]channel.Sender, len(senders))
	for _, s := range senders {
		byKind[s.Kind()] = s
	}

	o := &Orchestrator{
		guard:          guard,
		entitlements:   entitlements,
		senders:        byKind,
		auditor:        auditor,
		retryPolicy:    retry.DefaultPolicy(),
		channelTimeout: 5 * time.Second,
		fallback:       FallbackUserWindow,
		logger:         slog.Default(),
		newAlertID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle processes one raw inbound message to completion. It never returns
// an error: every failure mode is contained at the event or channel boundary
// so the consumer loop keeps moving. The duplicate claim happens-before any
// channel send; audit emission happens after all channel attempts resolve.
func (o *Orchestrator) Handle(ctx context.Context, raw []byte) {
	eventsConsumed.Inc()
	start := time.Now()
	defer func() { processingSeconds.Observe(time.Since(start).Seconds()) }()

	ev, err := event.Decode(raw)
	if err != nil {
		eventsMalformed.Inc()
		o.logger.Warn("dropping undecodable event", "error", err)
		return
	}

	incidentID := o.incidentKey(ev)
	if !o.guard.Claim(ctx, ev.UserID, incidentID) {
		o.logger.Debug("duplicate incident suppressed",
			"user_id", ev.UserID,
			"incident_id", incidentID,
		)
		return
	}

	uc, err := o.entitlements.FindByID(ctx, ev.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Expected during the consistency gap with the identity system.
			// An unknown user never receives alerts and leaves no audit trail.
			unknownUsers.Inc()
			o.logger.Info("unknown user, event dropped",
				"user_id", ev.UserID,
				"incident_id", incidentID,
			)
			return
		}
		o.logger.Error("entitlement lookup failed, event dropped",
			"user_id", ev.UserID,
			"error", err,
		)
		return
	}

	alertID := o.newAlertID()
	channels := o.fanOut(ctx, alertID, ev, *uc)

	// Audit reflects what was permitted and attempted; send success or
	// failure is logged above, not blocking emission.
	rec := audit.Record{
		AlertID:     alertID,
		UserID:      ev.UserID,
		Severity:    ev.Severity.String(),
		Channels:    channels,
		SourceEvent: ev.Raw,
		Timestamp:   time.Now().UTC(),
	}
	if err := o.auditor.Publish(ctx, rec); err != nil {
		o.logger.Error("audit publish failed", "alert_id", alertID, "error", err)
	}
}

// fanOut attempts every permitted channel independently. A failure in one
// channel never blocks the others. Returns the attempted-and-permitted map
// for the audit record.
func (o *Orchestrator) fanOut(ctx context.Context, alertID string, ev *event.AnomalyEvent, uc entitlement.UserContext) map[string]bool {
	msg := channel.Message{
		AlertID:  alertID,
		UserID:   ev.UserID,
		Severity: ev.Severity,
		Summary:  ev.Summary,
		Payload:  ev.Raw,
	}

	channels := make(map[string]bool, len(channel.Kinds))
	for _, kind := range channel.Kinds {
		permitted := entitlement.CanSend(uc, kind, ev.Severity, ev.WebhookURL != "")
		target := o.target(kind, ev, uc)
		attempted := permitted && target != ""
		channels[string(kind)] = attempted
		if !attempted {
			continue
		}

		sender, ok := o.senders[kind]
		if !ok {
			channels[string(kind)] = false
			continue
		}

		channelAttempts.WithLabelValues(string(kind)).Inc()
		err := retry.Do(ctx, o.retryPolicy, func(ctx context.Context) error {
			attemptCtx, cancel := context.WithTimeout(ctx, o.channelTimeout)
			defer cancel()
			return sender.Send(attemptCtx, target, msg)
		})
		if err != nil {
			channelFailures.WithLabelValues(string(kind)).Inc()
			o.logger.Error("channel delivery failed",
				"channel", string(kind),
				"alert_id", alertID,
				"user_id", ev.UserID,
				"error", err,
			)
			continue
		}
		o.logger.Info("channel delivery succeeded",
			"channel", string(kind),
			"alert_id", alertID,
			"user_id", ev.UserID,
		)
	}
	return channels
}

// target picks the delivery address: stored contact first, event-carried
// override as fallback. Webhook targets come only from the event.
func (o *Orchestrator) target(kind channel.Kind, ev *event.AnomalyEvent, uc entitlement.UserContext) string {
	switch kind {
	case channel.KindEmail:
		if uc.Email != "" {
			return uc.Email
		}
		return ev.Email
	case channel.KindSMS, channel.KindVoice:
		if uc.Phone != "" {
			return uc.Phone
		}
		return ev.Phone
	case channel.KindWebhook:
		return ev.WebhookURL
	default:
		return ""
	}
}

func (o *Orchestrator) incidentKey(ev *event.AnomalyEvent) string {
	if ev.HasIncidentID() {
		return ev.IncidentID
	}
	if o.fallback == FallbackUnique {
		return uuid.NewString()
	}
	return userWindowKey
}
