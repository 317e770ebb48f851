package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"simguard/internal/esim/models"
	"simguard/pkg/domain"
	"simguard/pkg/platform/sentinel"
	"simguard/pkg/platform/tx"
)

// Postgres persists profiles in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed profile store.
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

const profileColumns = `id, card_id, profile_name, carrier, qr_data,
	activation_code, status, ts`

func (s *Postgres) Create(ctx context.Context, profile *models.Profile) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO profiles (id, card_id, profile_name, carrier, qr_data,
			activation_code, status, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(profile.ID), uuid.UUID(profile.CardID), profile.ProfileName,
		profile.Carrier, profile.QRData, profile.ActivationCode,
		string(profile.Status), profile.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *Postgres) FindByActivationCode(ctx context.Context, cardID domain.CardID, code string) (*models.Profile, error) {
	row := s.q(ctx).QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles
		WHERE card_id = $1 AND activation_code = $2`, uuid.UUID(cardID), code)
	return scanProfile(row)
}

func (s *Postgres) ListByCard(ctx context.Context, cardID domain.CardID) ([]*models.Profile, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles
		WHERE card_id = $1 ORDER BY ts DESC`, uuid.UUID(cardID))
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func (s *Postgres) DeleteByCard(ctx context.Context, cardID domain.CardID) error {
	if _, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM profiles WHERE card_id = $1`, uuid.UUID(cardID)); err != nil {
		return fmt.Errorf("delete profiles: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p      models.Profile
		id     uuid.UUID
		cardID uuid.UUID
		status string
	)
	err := row.Scan(&id, &cardID, &p.ProfileName, &p.Carrier, &p.QRData,
		&p.ActivationCode, &status, &p.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.ID = domain.ProfileID(id)
	p.CardID = domain.CardID(cardID)
	p.Status = models.ProfileStatus(status)
	return &p, nil
}
