package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"simguard/internal/analyzer/models"
	"simguard/pkg/domain"
	"simguard/pkg/platform/tx"
)

// Postgres persists analyses in PostgreSQL.
type Postgres struct {
	db *sql.DB
	// typeMap decodes TEXT[] columns through database/sql.
	typeMap *pgtype.Map
}

// NewPostgres constructs a PostgreSQL-backed analysis store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, typeMap: pgtype.NewMap()}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) q(ctx context.Context) querier {
	if dbtx, ok := tx.From(ctx); ok {
		return dbtx
	}
	return s.db
}

func (s *Postgres) Append(ctx context.Context, analysis *models.Analysis) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO analyses (id, card_id, auth_algorithm, encryption_type,
			risk_level, vulnerabilities, recommendations, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(analysis.ID), uuid.UUID(analysis.CardID),
		analysis.AuthAlgorithm, analysis.EncryptionType,
		string(analysis.RiskLevel), analysis.Vulnerabilities,
		analysis.Recommendations, analysis.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (s *Postgres) ListByCard(ctx context.Context, cardID domain.CardID) ([]*models.Analysis, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT id, card_id, auth_algorithm, encryption_type, risk_level,
			vulnerabilities, recommendations, ts
		FROM analyses WHERE card_id = $1 ORDER BY ts DESC`, uuid.UUID(cardID))
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*models.Analysis
	for rows.Next() {
		var (
			a    models.Analysis
			id   uuid.UUID
			card uuid.UUID
			risk string
		)
		err := rows.Scan(&id, &card, &a.AuthAlgorithm, &a.EncryptionType, &risk,
			s.typeMap.SQLScanner(&a.Vulnerabilities),
			s.typeMap.SQLScanner(&a.Recommendations),
			&a.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		a.ID = domain.AnalysisID(id)
		a.CardID = domain.CardID(card)
		a.RiskLevel = models.RiskLevel(risk)
		analyses = append(analyses, &a)
	}
	return analyses, rows.Err()
}

func (s *Postgres) DeleteByCard(ctx context.Context, cardID domain.CardID) error {
	if _, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM analyses WHERE card_id = $1`, uuid.UUID(cardID)); err != nil {
		return fmt.Errorf("delete analyses: %w", err)
	}
	return nil
}
