package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotConnected is returned when a Repository has no database executor
var ErrNotConnected = errors.New("database not connected")

// DBTX is an interface that both pgxpool.Pool and pgx.Tx satisfy.
// This allows Repository methods to work with either a connection pool
// or a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository archives update runs and their fundamentals snapshots in PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
	db   DBTX // The actual executor (pool or transaction)
}

// schema creates the archive tables; every statement is idempotent
const schema = `
CREATE TABLE IF NOT EXISTS update_runs (
	id                 UUID PRIMARY KEY,
	status             TEXT NOT NULL,
	total_holdings     INTEGER NOT NULL,
	successful_updates INTEGER NOT NULL DEFAULT 0,
	failed_symbols     TEXT[] NOT NULL DEFAULT '{}',
	fallback_symbols   TEXT[] NOT NULL DEFAULT '{}',
	indices_fetched    INTEGER NOT NULL DEFAULT 0,
	error              TEXT NOT NULL DEFAULT '',
	duration_ms        BIGINT NOT NULL DEFAULT 0,
	started_at         TIMESTAMPTZ NOT NULL,
	completed_at       TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS fundamentals_snapshots (
	run_id     UUID NOT NULL REFERENCES update_runs (id) ON DELETE CASCADE,
	symbol     TEXT NOT NULL,
	record     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (run_id, symbol)
);

CREATE INDEX IF NOT EXISTS idx_update_runs_started_at ON update_runs (started_at DESC);
`

// NewRepository creates a new Repository with a PostgreSQL connection pool
func NewRepository(ctx context.Context, connString string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return &Repository{pool: pool, db: pool}, nil
}

// EnsureSchema creates the archive tables when they do not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// WithTx returns a new Repository that uses the given transaction.
func (r *Repository) WithTx(tx pgx.Tx) *Repository {
	return &Repository{pool: r.pool, db: tx}
}

// BeginTx starts a new transaction and returns a Repository that uses it.
// The caller is responsible for calling Commit() or Rollback() on the transaction.
func (r *Repository) BeginTx(ctx context.Context) (pgx.Tx, *Repository, error) {
	if r.pool == nil {
		return nil, nil, ErrNotConnected
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, r.WithTx(tx), nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

func (r *Repository) checkDB() error {
	if r == nil || r.db == nil {
		return ErrNotConnected
	}
	return nil
}
