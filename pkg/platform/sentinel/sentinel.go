package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and adapters return these
// (optionally wrapped) so the pipeline can translate them into outcomes.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store (an unknown user is normal)
// - ErrUnavailable: backing service unreachable or not ready
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
