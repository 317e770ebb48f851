package contact

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

// Postgres persists contacts in PostgreSQL. The (card_id, idx) unique
// constraint backs the phonebook index invariant.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed contact store.
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

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Postgres) Create(ctx context.Context, contact *models.Contact) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO contacts (id, card_id, idx, name, number, grp, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(contact.ID), uuid.UUID(contact.CardID), contact.Index,
		contact.Name, contact.Number, contact.Group, contact.Email,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.ContactID) (*models.Contact, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, card_id, idx, name, number, grp, email
		FROM contacts WHERE id = $1`, uuid.UUID(id))
	return scanContact(row)
}

func (s *Postgres) ListByCard(ctx context.Context, cardID domain.CardID) ([]*models.Contact, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, card_id, idx, name, number, grp, email
		FROM contacts WHERE card_id = $1 ORDER BY idx`, uuid.UUID(cardID))
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, contact *models.Contact) error {
	res, err := s.q(ctx).ExecContext(ctx, `
		UPDATE contacts SET name = $2, number = $3, grp = $4, email = $5
		WHERE id = $1`,
		uuid.UUID(contact.ID), contact.Name, contact.Number, contact.Group,
		contact.Email,
	)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, id domain.ContactID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) DeleteByCard(ctx context.Context, cardID domain.CardID) error {
	_, err := s.q(ctx).ExecContext(ctx, `DELETE FROM contacts WHERE card_id = $1`, uuid.UUID(cardID))
	if err != nil {
		return fmt.Errorf("delete contacts by card: %w", err)
	}
	return nil
}

func (s *Postgres) NextIndex(ctx context.Context, cardID domain.CardID) (int, error) {
	var next int
	err := s.q(ctx).QueryRowContext(ctx, `
		SELECT COALESCE(MAX(idx), 0) + 1 FROM contacts WHERE card_id = $1`,
		uuid.UUID(cardID)).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next contact index: %w", err)
	}
	return next, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*models.Contact, error) {
	var (
		contact models.Contact
		id      uuid.UUID
		cardID  uuid.UUID
	)
	err := row.Scan(&id, &cardID, &contact.Index, &contact.Name,
		&contact.Number, &contact.Group, &contact.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan contact: %w", err)
	}
	contact.ID = domain.ContactID(id)
	contact.CardID = domain.CardID(cardID)
	return &contact, nil
}
