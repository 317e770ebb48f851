package sms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"simguard/internal/card/models"
	"simguard/pkg/domain"
	"simguard/pkg/platform/sentinel"
	"simguard/pkg/platform/tx"
)

// Postgres persists messages in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed SMS store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) q(ctx context.Context) querier {
	if dbtx, ok := tx.From(ctx); ok {
		return dbtx
	}
	return s.db
}

func (s *Postgres) Create(ctx context.Context, msg *models.SMS) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO sms (id, card_id, sender, recipient, message, status, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(msg.ID), uuid.UUID(msg.CardID), msg.Sender, msg.Recipient,
		msg.Message, string(msg.Status), msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert sms: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.SMSID) (*models.SMS, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, card_id, sender, recipient, message, status, ts
		FROM sms WHERE id = $1`, uuid.UUID(id))
	return scanSMS(row)
}

func (s *Postgres) ListByCard(ctx context.Context, cardID domain.CardID) ([]*models.SMS, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, card_id, sender, recipient, message, status, ts
		FROM sms WHERE card_id = $1 ORDER BY ts`, uuid.UUID(cardID))
	if err != nil {
		return nil, fmt.Errorf("list sms: %w", err)
	}
	defer rows.Close()

	var messages []*models.SMS
	for rows.Next() {
		msg, err := scanSMS(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *Postgres) Delete(ctx context.Context, id domain.SMSID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM sms WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete sms: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) DeleteByCard(ctx context.Context, cardID domain.CardID) error {
	_, err := s.q(ctx).ExecContext(ctx, `DELETE FROM sms WHERE card_id = $1`, uuid.UUID(cardID))
	if err != nil {
		return fmt.Errorf("delete sms by card: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSMS(row rowScanner) (*models.SMS, error) {
	var (
		msg    models.SMS
		id     uuid.UUID
		cardID uuid.UUID
		status string
	)
	err := row.Scan(&id, &cardID, &msg.Sender, &msg.Recipient, &msg.Message,
		&status, &msg.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan sms: %w", err)
	}
	msg.ID = domain.SMSID(id)
	msg.CardID = domain.CardID(cardID)
	msg.Status = models.SMSStatus(status)
	return &msg, nil
}
