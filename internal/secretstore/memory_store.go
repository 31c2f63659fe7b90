package secretstore

import (
	"context"
	"sync"
)

// MemoryStore keeps tokens for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Load(_ context.Context) (Tokens, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	access, ok := s.values[KeyAccessToken]
	if !ok || access == "" {
		return Tokens{}, ErrNotFound
	}
	return Tokens{AccessToken: access, RefreshToken: s.values[KeyRefreshToken]}, nil
}

func (s *MemoryStore) Save(_ context.Context, t Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[KeyAccessToken] = t.AccessToken
	s.values[KeyRefreshToken] = t.RefreshToken
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, KeyAccessToken)
	delete(s.values, KeyRefreshToken)
	return nil
}
