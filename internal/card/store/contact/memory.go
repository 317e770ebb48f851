// Package contact stores phonebook entries and enforces the per-card index
// uniqueness invariant.
package contact

import (
	"context"
	"sort"
	"sync"

	"simguard/internal/card/models"
	"simguard/pkg/domain"
	"simguard/pkg/platform/sentinel"
)

// InMemory keeps contacts in a map keyed by contact id with a per-card
// index set for uniqueness checks.
type InMemory struct {
	mu       sync.RWMutex
	contacts map[domain.ContactID]models.Contact
}

// NewInMemory creates an empty in-memory contact store.
func NewInMemory() *InMemory {
	return &InMemory{contacts: make(map[domain.ContactID]models.Contact)}
}

// Create inserts a contact. Returns sentinel.ErrConflict when the card
// already has a contact at the same index.
func (s *InMemory) Create(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.contacts {
		if existing.CardID == contact.CardID && existing.Index == contact.Index {
			return sentinel.ErrConflict
		}
	}
	s.contacts[contact.ID] = *contact
	return nil
}

// FindByID returns the contact or sentinel.ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, id domain.ContactID) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contact, ok := s.contacts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := contact
	return &out, nil
}

// ListByCard returns the card's contacts ordered by phonebook index.
func (s *InMemory) ListByCard(_ context.Context, cardID domain.CardID) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Contact
	for _, contact := range s.contacts {
		if contact.CardID == cardID {
			c := contact
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

// Update replaces a contact record by id.
func (s *InMemory) Update(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[contact.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.contacts[contact.ID] = *contact
	return nil
}

// Delete removes a contact by id.
func (s *InMemory) Delete(_ context.Context, id domain.ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.contacts, id)
	return nil
}

// DeleteByCard removes every contact owned by the card. Used by the cascade
// delete; deleting zero contacts is not an error.
func (s *InMemory) DeleteByCard(_ context.Context, cardID domain.CardID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, contact := range s.contacts {
		if contact.CardID == cardID {
			delete(s.contacts, id)
		}
	}
	return nil
}

// NextIndex returns the next dense phonebook index for the card.
func (s *InMemory) NextIndex(_ context.Context, cardID domain.CardID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, contact := range s.contacts {
		if contact.CardID == cardID && contact.Index > max {
			max = contact.Index
		}
	}
	return max + 1, nil
}
