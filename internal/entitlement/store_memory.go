package entitlement

import (
	"context"
	"fmt"
	"sync"

	"anomalyze/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store for tests and local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]UserContext
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]UserContext)}
}

func (s *MemoryStore) Put(uc UserContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[uc.UserID] = uc
}

func (s *MemoryStore) FindByID(_ context.Context, userID string) (*UserContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uc, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	return &uc, nil
}
