// Package reader abstracts the physical card reader boundary. The rest of
// the system only sees Source, so hardware integrations can be swapped in
// without touching the card service.
package reader

import (
	"context"

	"simguard/internal/card/models"
)

// Reader describes an attached card reader.
type Reader struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Simulated bool   `json:"simulated"`
}

// Source lists readers and extracts card attributes from an inserted card.
type Source interface {
	List(ctx context.Context) ([]Reader, error)
	Read(ctx context.Context, readerID string) (models.CardAttributes, error)
}
