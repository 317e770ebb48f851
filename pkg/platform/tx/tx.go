// Package tx carries a SQL transaction through context so multi-entity
// writes (card clone, cascade delete) hit every store inside one unit.
package tx

import (
	"context"
	"database/sql"
	"time"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Runner executes a function as one atomic unit. SQL-backed deployments use
// SQLRunner; in-memory deployments use Nop, where callers compensate on
// failure instead of rolling back.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Nop runs fn directly with no transactional guarantees.
type Nop struct{}

func (Nop) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

const defaultTxTimeout = 5 * time.Second

// SQLRunner wraps fn in a database transaction injected into context, so
// stores built on database/sql participate without signature changes.
type SQLRunner struct {
	DB      *sql.DB
	Timeout time.Duration
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := r.Timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dbtx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = dbtx.Rollback()
	}()

	if err := fn(WithTx(ctx, dbtx)); err != nil {
		return err
	}
	return dbtx.Commit()
}
