package counter

import (
	"context"
	"sync"
)

// InMemoryStore implements Store with process-local maps.
// Each session owns its own lock, so different sessions never contend.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionCounters
}

type sessionCounters struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewInMemoryStore creates a new in-memory counter store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*sessionCounters),
	}
}

func (s *InMemoryStore) Increment(ctx context.Context, sessionID, name string) (int, error) {
	sc := s.getOrCreate(sessionID)
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.counts[name]++
	return sc.counts[name], nil
}

func (s *InMemoryStore) IncrementBounded(ctx context.Context, sessionID, name string, max int) (int, error) {
	if max < 1 {
		return 0, ErrInvalidMax
	}
	sc := s.getOrCreate(sessionID)
	sc.mu.Lock()
	defer sc.mu.Unlock()

	next := sc.counts[name] + 1
	if next > max {
		sc.counts[name] = 0
		return next, nil
	}
	sc.counts[name] = next
	return next, nil
}

func (s *InMemoryStore) Count(ctx context.Context, sessionID, name string) (int, error) {
	s.mu.RLock()
	sc := s.sessions[sessionID]
	s.mu.RUnlock()
	if sc == nil {
		return 0, nil
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.counts[name], nil
}

func (s *InMemoryStore) Reset(ctx context.Context, sessionID, name string) error {
	s.mu.RLock()
	sc := s.sessions[sessionID]
	s.mu.RUnlock()
	if sc == nil {
		return nil
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if _, ok := sc.counts[name]; ok {
		sc.counts[name] = 0
	}
	return nil
}

func (s *InMemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// getOrCreate returns the counters for a session, creating them on first use.
func (s *InMemoryStore) getOrCreate(sessionID string) *sessionCounters {
	s.mu.RLock()
	sc := s.sessions[sessionID]
	s.mu.RUnlock()
	if sc != nil {
		return sc
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sc = s.sessions[sessionID]; sc != nil {
		return sc
	}
	sc = &sessionCounters{counts: make(map[string]int)}
	s.sessions[sessionID] = sc
	return sc
}
