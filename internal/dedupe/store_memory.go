package dedupe

import (
	"context"
	"sync"
	"time"
)

// MemoryLeaseStore is an in-memory LeaseStore for tests and local runs.
// Expiry is evaluated lazily on access; there is no background sweeper.
type MemoryLeaseStore struct {
	mu     sync.Mutex
	leases map[string]time.Time
	now    func() time.Time
}

func NewMemoryLeaseStore() *MemoryLeaseStore {
	return &MemoryLeaseStore{
		leases: make(map[string]time.Time),
		now:    time.Now,
	}
}

// SetClock overrides the time source so tests can advance past TTLs.
func (s *MemoryLeaseStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryLeaseStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiry, held := s.leases[key]; held && now.Before(expiry) {
		return false, nil
	}
	s.leases[key] = now.Add(ttl)
	return true, nil
}
