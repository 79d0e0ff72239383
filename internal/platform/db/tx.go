package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WithTx executes a function within a transaction using the RepeatableRead isolation level.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

// schema holds the statements the worker needs before consuming audit tasks.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS access_session_events (
		id          BIGSERIAL PRIMARY KEY,
		session_id  TEXT        NOT NULL,
		user_id     BIGINT      NOT NULL,
		event       TEXT        NOT NULL,
		ip          TEXT,
		user_agent  TEXT,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS access_session_events_occurred_at_idx ON access_session_events (occurred_at)`,
	`CREATE INDEX IF NOT EXISTS access_session_events_user_idx ON access_session_events (user_id, occurred_at DESC)`,
}

// EnsureSchema creates the audit table and its indexes when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return WithTx(ctx, pool, func(tx pgx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("platform/db: ensure schema: %w", err)
			}
		}
		return nil
	})
}
