package audit

import "context"

// Store is the append-only persistence behind the publisher.
type Store interface {
	Append(ctx context.Context, event Event) error
	// List returns up to limit events, newest first, optionally filtered by
	// card id. limit <= 0 means no limit.
	List(ctx context.Context, limit int, cardID string) ([]Event, error)
	Clear(ctx context.Context) error
}
