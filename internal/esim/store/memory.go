// Package store persists encoded eSIM profiles.
package store

import (
	"context"
	"sort"
	"sync"

	"simguard/internal/esim/models"
	"simguard/pkg/domain"
	"simguard/pkg/platform/sentinel"
)

// InMemory keeps profiles in process memory.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[domain.ProfileID]*models.Profile
}

// NewInMemory creates an empty in-memory profile store.
func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[domain.ProfileID]*models.Profile)}
}

func (s *InMemory) Create(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *profile
	s.profiles[profile.ID] = &cp
	return nil
}

// FindByActivationCode looks up a card's profile by its derived code. Used
// for idempotent conversion.
func (s *InMemory) FindByActivationCode(_ context.Context, cardID domain.CardID, code string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.CardID == cardID && p.ActivationCode == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByCard(_ context.Context, cardID domain.CardID) ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Profile
	for _, p := range s.profiles {
		if p.CardID == cardID {
			cp := *p
			out = append(out, &cp)
		}
	}
	// Newest first.
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *InMemory) DeleteByCard(_ context.Context, cardID domain.CardID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.profiles {
		if p.CardID == cardID {
			delete(s.profiles, id)
		}
	}
	return nil
}
