// Package audit emits the append-only record of what the pipeline attempted
// for each alert. The outbound stream is best-effort bookkeeping, not the
// system of record for delivery guarantees.
package audit

import (
	"encoding/json"
	"time"
)

// Record describes one dispatched alert: which channels were permitted and
// attempted, plus the original event verbatim. Write-once; never mutated.
type Record struct {
	AlertID     string          `json:"alertId"`
	UserID      string          `json:"userId"`
	Severity    string          `json:"severity"`
	Channels    map[string]bool `json:"channels"`
	SourceEvent json.RawMessage `json:"sourceEvent"`
	Timestamp   time.Time       `json:"timestamp"`
}
