package channel

import (
	"context"
	"log/slog"
)

// LogSender is the graceful-degradation variant of a channel: it records the
// delivery in the logs and reports success. Selected at construction time
// when a channel's provider credentials are absent, so non-production
// environments run the full pipeline without external side effects.
type LogSender struct {
	kind   Kind
	logger *slog.Logger
}

func NewLogSender(kind Kind, logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{kind: kind, logger: logger}
}

func (s *LogSender) Kind() Kind {
	return s.kind
}

func (s *LogSender) Send(_ context.Context, target string, msg Message) error {
	s.logger.Info("channel unconfigured, delivery logged only",
		"channel", string(s.kind),
		"target", target,
		"alert_id", msg.AlertID,
		"user_id", msg.UserID,
		"severity", msg.Severity.String(),
	)
	return nil
}
