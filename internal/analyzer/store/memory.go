// Package store persists analysis history.
package store

import (
	"context"
	"sort"
	"sync"

	"simguard/internal/analyzer/models"
	"simguard/pkg/domain"
)

// InMemory keeps analyses in process memory. History is append-only.
type InMemory struct {
	mu       sync.RWMutex
	analyses map[domain.AnalysisID]*models.Analysis
}

// NewInMemory creates an empty in-memory analysis store.
func NewInMemory() *InMemory {
	return &InMemory{analyses: make(map[domain.AnalysisID]*models.Analysis)}
}

func (s *InMemory) Append(_ context.Context, analysis *models.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *analysis
	s.analyses[analysis.ID] = &cp
	return nil
}

func (s *InMemory) ListByCard(_ context.Context, cardID domain.CardID) ([]*models.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Analysis
	for _, a := range s.analyses {
		if a.CardID == cardID {
			cp := *a
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
	for id, a := range s.analyses {
		if a.CardID == cardID {
			delete(s.analyses, id)
		}
	}
	return nil
}
