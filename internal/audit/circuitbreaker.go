package audit

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var circuitOpen = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "anomalyze_audit_publish_circuit_open",
	Help: "1 while audit publishing is suspended after repeated broker failures",
})

// CircuitBreaker suspends audit publishing after a run of broker failures, so
// a dead outbound stream does not cost one doomed produce per inbound event.
// While open, Publish drops records locally; once the cooldown elapses the
// next record goes through as a probe and its promise result decides whether
// the circuit reopens.
type CircuitBreaker struct {
	mu sync.Mutex

	threshold int
	cooldown  time.Duration

	failures  int
	openUntil time.Time // zero means closed
}

func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown}
}

// Allow reports whether a produce attempt may proceed. An elapsed cooldown
// closes the circuit on the way through.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.openUntil.IsZero() {
		return true
	}
	if time.Now().After(cb.openUntil) {
		cb.openUntil = time.Time{}
		cb.failures = 0
		circuitOpen.Set(0)
		return true
	}
	return false
}

// RecordSuccess closes the circuit and clears the failure run.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.openUntil = time.Time{}
	circuitOpen.Set(0)
}

// RecordFailure extends the failure run, opening the circuit at threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	if cb.failures >= cb.threshold {
		cb.openUntil = time.Now().Add(cb.cooldown)
		circuitOpen.Set(1)
	}
}

// IsOpen reports whether publishing is currently suspended.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return !cb.openUntil.IsZero() && time.Now().Before(cb.openUntil)
}
