package dedupe

import (
	"context"
	"time"
)

// LeaseStore is the atomic primitive behind duplicate suppression. A lease
// write must be set-if-absent: at most one caller may acquire a given key
// while it lives.
type LeaseStore interface {
	// Acquire attempts to claim key for ttl. Returns true if the caller now
	// holds the lease, false if someone already claimed it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
