package entitlement

import "context"

// Store loads entitlement snapshots. A missing user is reported as
// sentinel.ErrNotFound: it is a normal outcome of the eventual-consistency
// gap with the identity system, not an error to retry.
type Store interface {
	FindByID(ctx context.Context, userID string) (*UserContext, error)
}
