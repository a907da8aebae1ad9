package progress

import (
	"context"
	"sync"
)

// InMemoryStore keeps progress in a process-local map. Records are copied in
// and out so callers never share a pointer with the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	progress map[string]*Progress
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		progress: make(map[string]*Progress),
	}
}

func (s *InMemoryStore) Load(_ context.Context, sessionID string) (*Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.progress[sessionID]; ok {
		return p.Clone(), nil
	}
	return New(), nil
}

func (s *InMemoryStore) Save(_ context.Context, sessionID string, p *Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[sessionID] = p.Clone()
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.progress, sessionID)
	return nil
}
