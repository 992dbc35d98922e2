package memory

import (
	"context"
	"sync"

	audit "cohort/pkg/platform/audit"
)

// Store keeps audit events in memory, keyed by subject. Useful for tests and
// for running the portal without external infrastructure.
type Store struct {
	mu     sync.RWMutex
	events map[string][]audit.Event
}

func New() *Store {
	return &Store{events: make(map[string][]audit.Event)}
}

func (s *Store) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Subject] = append(s.events[event.Subject], event)
	return nil
}

func (s *Store) ListBySubject(_ context.Context, subject string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[subject]...), nil
}
