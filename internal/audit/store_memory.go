package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps events in an append-only slice.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewInMemoryStore creates an empty in-memory audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, limit int, cardID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// Newest first.
	var out []Event
	for i := len(s.events) - 1; i >= 0; i-- {
		if cardID != "" && s.events[i].CardID != cardID {
			continue
		}
		out = append(out, s.events[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	return nil
}
