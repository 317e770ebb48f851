// Package sms stores messages read from a card.
package sms

import (
	"context"
	"sort"
	"sync"

	"simguard/internal/card/models"
	"simguard/pkg/domain"
	"simguard/pkg/platform/sentinel"
)

// InMemory keeps messages in a map keyed by id.
type InMemory struct {
	mu       sync.RWMutex
	messages map[domain.SMSID]models.SMS
}

// NewInMemory creates an empty in-memory SMS store.
func NewInMemory() *InMemory {
	return &InMemory{messages: make(map[domain.SMSID]models.SMS)}
}

// Create inserts a message.
func (s *InMemory) Create(_ context.Context, msg *models.SMS) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ID] = *msg
	return nil
}

// FindByID returns the message or sentinel.ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, id domain.SMSID) (*models.SMS, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.messages[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := msg
	return &out, nil
}

// ListByCard returns the card's messages in timestamp order.
func (s *InMemory) ListByCard(_ context.Context, cardID domain.CardID) ([]*models.SMS, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.SMS
	for _, msg := range s.messages {
		if msg.CardID == cardID {
			m := msg
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Delete removes a message by id.
func (s *InMemory) Delete(_ context.Context, id domain.SMSID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.messages, id)
	return nil
}

// DeleteByCard removes every message owned by the card.
func (s *InMemory) DeleteByCard(_ context.Context, cardID domain.CardID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, msg := range s.messages {
		if msg.CardID == cardID {
			delete(s.messages, id)
		}
	}
	return nil
}
