package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anomalyze_dispatch_events_consumed_total",
		Help: "Inbound anomaly events pulled from the stream",
	})
	eventsMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anomalyze_dispatch_events_malformed_total",
		Help: "Inbound events dropped because they could not be decoded",
	})
	unknownUsers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anomalyze_dispatch_unknown_user_total",
		Help: "Events dropped because no entitlement record exists for the user",
	})
	channelAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anomalyze_dispatch_channel_attempts_total",
		Help: "Permitted channel deliveries attempted, by channel",
	}, []string{"channel"})
	channelFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anomalyze_dispatch_channel_failures_total",
		Help: "Channel deliveries that failed after exhausting retries, by channel",
	}, []string{"channel"})
	processingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "anomalyze_dispatch_event_processing_seconds",
		Help:    "Wall time to fully process one inbound event",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})
)
