// Package dedupe implements the idempotency gate in front of channel
// delivery. A lease keyed by (user, incident) is claimed atomically before
// any send; a second sighting of the same pair within the lease TTL is a
// duplicate and produces no side effects.
package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// UnavailablePolicy decides what Claim reports when the lease cache cannot
// be reached.
type UnavailablePolicy string

const (
	// PolicyAllow fails open: proceed without a lease, preferring an
	// occasional duplicate alert over a missed one. This is the default.
	PolicyAllow UnavailablePolicy = "allow"
	// PolicyBlock fails closed: treat the event as a duplicate.
	PolicyBlock UnavailablePolicy = "block"
)

// DefaultTTL is how long a claimed incident suppresses repeats. Leases are
// never explicitly deleted; they expire.
const DefaultTTL = time.Hour

// Guard is the duplicate-suppression gate. It holds no state of its own;
// the lease store's atomic set-if-absent is the only coordination point.
type Guard struct {
	store  LeaseStore
	ttl    time.Duration
	policy UnavailablePolicy
	logger *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithTTL overrides the lease TTL.
func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithUnavailablePolicy sets the fail-open/fail-closed choice for cache
// outages. The tradeoff is deliberate configuration, not hidden behavior.
func WithUnavailablePolicy(p UnavailablePolicy) Option {
	return func(g *Guard) {
		if p == PolicyAllow || p == PolicyBlock {
			g.policy = p
		}
	}
}

// WithLogger sets a logger for outage reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func NewGuard(store LeaseStore, opts ...Option) *Guard {
	g := &Guard{
		store:  store,
		ttl:    DefaultTTL,
		policy: PolicyAllow,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Key builds the lease key for a (user, incident) pair.
func Key(userID, incidentID string) string {
	return fmt.Sprintf("alert:%s:%s", userID, incidentID)
}

// Claim attempts to take the lease for (userID, incidentID). True means the
// caller holds the lease and must proceed with delivery; false means the
// incident was already claimed and the event is a duplicate.
//
// When the store is unreachable the configured policy decides: PolicyAllow
// returns true unconditionally (duplicate delivery preferred over a missed
// alert), PolicyBlock returns false.
func (g *Guard) Claim(ctx context.Context, userID, incidentID string) bool {
	key := Key(userID, incidentID)

	acquired, err := g.store.Acquire(ctx, key, g.ttl)
	if err != nil {
		cacheUnavailable.Inc()
		allow := g.policy == PolicyAllow
		g.logger.Warn("dedupe cache unavailable",
			"key", key,
			"policy", string(g.policy),
			"proceeding", allow,
			"error", err,
		)
		return allow
	}

	if acquired {
		leasesClaimed.Inc()
	} else {
		duplicatesSuppressed.Inc()
	}
	return acquired
}
