package card

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"simguard/internal/card/models"
	"simguard/pkg/domain"
	"simguard/pkg/platform/sentinel"
	"simguard/pkg/platform/tx"
)

// Postgres persists cards in PostgreSQL. Honors a context-carried
// transaction so the clone engine's multi-entity writes are atomic.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed card store.
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

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *Postgres) Create(ctx context.Context, card *models.Card) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO cards (id, iccid, imsi, msisdn, mcc, mnc, spn, atr,
			card_type, auth_algorithm, encryption_type, ki, opc, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		uuid.UUID(card.ID), card.ICCID, card.IMSI, card.MSISDN, card.MCC,
		card.MNC, card.SPN, card.ATR, string(card.CardType),
		card.AuthAlgorithm, card.EncryptionType, card.Ki, card.OPc,
		card.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

const cardColumns = `id, iccid, imsi, msisdn, mcc, mnc, spn, atr,
	card_type, auth_algorithm, encryption_type, ki, opc, created_at`

func (s *Postgres) FindByID(ctx context.Context, id domain.CardID) (*models.Card, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = $1`, uuid.UUID(id))
	return scanCard(row)
}

func (s *Postgres) List(ctx context.Context) ([]*models.Card, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (s *Postgres) Delete(ctx context.Context, id domain.CardID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ICCIDExists(ctx context.Context, iccid string) (bool, error) {
	var exists bool
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM cards WHERE iccid = $1)`, iccid).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check iccid: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*models.Card, error) {
	var (
		card models.Card
		id   uuid.UUID
		typ  string
	)
	err := row.Scan(&id, &card.ICCID, &card.IMSI, &card.MSISDN, &card.MCC,
		&card.MNC, &card.SPN, &card.ATR, &typ, &card.AuthAlgorithm,
		&card.EncryptionType, &card.Ki, &card.OPc, &card.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan card: %w", err)
	}
	card.ID = domain.CardID(id)
	card.CardType = models.CardType(typ)
	return &card, nil
}
