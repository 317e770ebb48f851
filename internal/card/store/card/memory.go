// Package card stores scanned card records. In-memory and PostgreSQL
// implementations are interchangeable behind the service's store interface.
package card

import (
	"context"
	"sort"
	"sync"

	"simguard/internal/card/models"
	"simguard/pkg/domain"
	"simguard/pkg/platform/sentinel"
)

// InMemory keeps cards in a map. It favors clarity over performance and
// returns copies so callers never share mutable state with the store.
type InMemory struct {
	mu     sync.RWMutex
	cards  map[domain.CardID]models.Card
	iccids map[string]domain.CardID
}

// NewInMemory creates an empty in-memory card store.
func NewInMemory() *InMemory {
	return &InMemory{
		cards:  make(map[domain.CardID]models.Card),
		iccids: make(map[string]domain.CardID),
	}
}

// Create inserts a card. Returns sentinel.ErrConflict when the ICCID is
// already live.
func (s *InMemory) Create(_ context.Context, card *models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.iccids[card.ICCID]; exists {
		return sentinel.ErrConflict
	}
	s.cards[card.ID] = *card
	s.iccids[card.ICCID] = card.ID
	return nil
}

// FindByID returns the card or sentinel.ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, id domain.CardID) (*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.cards[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := card
	return &out, nil
}

// List returns all live cards, newest first.
func (s *InMemory) List(_ context.Context) ([]*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Card, 0, len(s.cards))
	for _, card := range s.cards {
		c := card
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a card. Returns sentinel.ErrNotFound for unknown ids.
func (s *InMemory) Delete(_ context.Context, id domain.CardID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.cards, id)
	delete(s.iccids, card.ICCID)
	return nil
}

// ICCIDExists reports whether any live card carries the given ICCID.
func (s *InMemory) ICCIDExists(_ context.Context, iccid string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.iccids[iccid]
	return exists, nil
}
