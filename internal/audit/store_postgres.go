package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists events in PostgreSQL. Audit writes stay outside
// the engines' transactions on purpose: a rolled-back clone still leaves its
// failure trail.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (action, card_id, details, status, ts)
		VALUES ($1, $2, $3, $4, $5)`,
		event.Action, event.CardID, event.Details, event.Status, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int, cardID string) ([]Event, error) {
	query := `SELECT action, card_id, details, status, ts FROM audit_events`
	args := []any{}
	if cardID != "" {
		query += ` WHERE card_id = $1`
		args = append(args, cardID)
	}
	query += ` ORDER BY ts DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.Action, &event.CardID, &event.Details,
			&event.Status, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM audit_events`); err != nil {
		return fmt.Errorf("clear audit events: %w", err)
	}
	return nil
}
