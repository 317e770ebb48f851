// Package postgres opens the database handle and owns the schema. Stores
// assume these tables exist.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects via the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// schema is applied idempotently at startup. Kept in one place so the
// integration test containers and production share identical DDL.
const schema = `
CREATE TABLE IF NOT EXISTS cards (
	id              UUID PRIMARY KEY,
	iccid           TEXT NOT NULL UNIQUE,
	imsi            TEXT NOT NULL,
	msisdn          TEXT NOT NULL DEFAULT '',
	mcc             TEXT NOT NULL DEFAULT '',
	mnc             TEXT NOT NULL DEFAULT '',
	spn             TEXT NOT NULL DEFAULT '',
	atr             TEXT NOT NULL DEFAULT '',
	card_type       TEXT NOT NULL,
	auth_algorithm  TEXT NOT NULL DEFAULT '',
	encryption_type TEXT NOT NULL DEFAULT '',
	ki              TEXT NOT NULL DEFAULT '',
	opc             TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS contacts (
	id      UUID PRIMARY KEY,
	card_id UUID NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
	idx     INT  NOT NULL,
	name    TEXT NOT NULL DEFAULT '',
	number  TEXT NOT NULL,
	grp     TEXT NOT NULL DEFAULT '',
	email   TEXT NOT NULL DEFAULT '',
	UNIQUE (card_id, idx)
);

CREATE TABLE IF NOT EXISTS sms (
	id        UUID PRIMARY KEY,
	card_id   UUID NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
	sender    TEXT NOT NULL DEFAULT '',
	recipient TEXT NOT NULL,
	message   TEXT NOT NULL,
	status    TEXT NOT NULL,
	ts        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS analyses (
	id              UUID PRIMARY KEY,
	card_id         UUID NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
	auth_algorithm  TEXT NOT NULL,
	encryption_type TEXT NOT NULL,
	risk_level      TEXT NOT NULL,
	vulnerabilities TEXT[] NOT NULL DEFAULT '{}',
	recommendations TEXT[] NOT NULL DEFAULT '{}',
	ts              TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	id              UUID PRIMARY KEY,
	card_id         UUID NOT NULL REFERENCES cards(id) ON DELETE CASCADE,
	profile_name    TEXT NOT NULL,
	carrier         TEXT NOT NULL,
	qr_data         TEXT NOT NULL,
	activation_code TEXT NOT NULL,
	status          TEXT NOT NULL,
	ts              TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_events (
	id      BIGSERIAL PRIMARY KEY,
	action  TEXT NOT NULL,
	card_id TEXT NOT NULL DEFAULT '',
	details TEXT NOT NULL DEFAULT '',
	status  TEXT NOT NULL DEFAULT 'success',
	ts      TIMESTAMPTZ NOT NULL
);
`

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
