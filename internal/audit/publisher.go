package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	recordsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anomalyze_audit_records_published_total",
		Help: "Audit records acknowledged by the outbound stream",
	})
	publishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anomalyze_audit_publish_failures_total",
		Help: "Audit records that failed to publish (logged, non-fatal)",
	})
	recordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anomalyze_audit_records_dropped_total",
		Help: "Audit records dropped while the publish circuit was open",
	})
)

// Producer is the slice of the Kafka client the publisher needs. The
// production implementation is *kgo.Client.
type Producer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// Publisher appends audit records to the outbound stream, keyed by user id
// for partition affinity. Publishing is fire-and-forget relative to the next
// inbound event: a failure is logged and counted, never propagated in a way
// that aborts the consumer loop. A circuit breaker stops produce attempts
// during sustained broker outages.
type Publisher struct {
	producer Producer
	topic    string
	breaker  *CircuitBreaker
	logger   *slog.Logger
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithBreaker overrides the default circuit breaker.
func WithBreaker(cb *CircuitBreaker) Option {
	return func(p *Publisher) {
		if cb != nil {
			p.breaker = cb
		}
	}
}

func NewPublisher(producer Producer, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		breaker:  NewCircuitBreaker(5, time.Minute),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish serializes rec and hands it to the producer. The returned error
// covers only local problems (marshalling, open circuit); broker errors
// surface asynchronously through the promise and are logged there.
func (p *Publisher) Publish(ctx context.Context, rec Record) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	if !p.breaker.Allow() {
		recordsDropped.Inc()
		p.logger.Warn("audit publish circuit open, dropping record",
			"alert_id", rec.AlertID,
			"user_id", rec.UserID,
		)
		return fmt.Errorf("audit publish circuit open")
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(rec.UserID),
		Value: value,
	}
	p.producer.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			publishFailures.Inc()
			p.breaker.RecordFailure()
			p.logger.Error("audit publish failed",
				"alert_id", rec.AlertID,
				"user_id", rec.UserID,
				"error", err,
			)
			return
		}
		recordsPublished.Inc()
		p.breaker.RecordSuccess()
	})
	return nil
}
