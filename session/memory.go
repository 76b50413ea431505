package session

import (
	"context"
	"sync"
)

// memoryStore implements Store with an in-process value. Sessions do not
// survive a restart; useful for tests and short-lived tools.
type memoryStore struct {
	mu      sync.RWMutex
	session *Session
}

// Load implements Store.
func (s *memoryStore) Load(ctx context.Context) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil, nil
	}
	copied := *s.session
	return &copied, nil
}

// Save implements Store.
func (s *memoryStore) Save(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *sess
	s.session = &copied
	return nil
}

// Clear implements Store.
func (s *memoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	return nil
}

// Close implements Store.
func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	return nil
}
