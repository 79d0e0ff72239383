package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository persists session audit events.
type EventRepository interface {
	InsertSessionEvent(ctx context.Context, event AuditEvent) error
	PruneSessionEvents(ctx context.Context, before time.Time) (int64, error)
}

// PGRepository implements EventRepository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const insertSessionEvent = `
INSERT INTO access_session_events (session_id, user_id, event, ip, user_agent, occurred_at)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))`

// InsertSessionEvent appends one event to access_session_events.
func (r *PGRepository) InsertSessionEvent(ctx context.Context, event AuditEvent) error {
	_, err := r.pool.Exec(ctx, insertSessionEvent,
		event.SessionID,
		event.UserID,
		string(event.Event),
		pgtype.Text{String: event.IP, Valid: event.IP != ""},
		pgtype.Text{String: event.UserAgent, Valid: event.UserAgent != ""},
		pgtype.Timestamptz{Time: event.At.UTC(), Valid: !event.At.IsZero()},
	)
	if err != nil {
		return fmt.Errorf("auth: insert session event: %w", err)
	}
	return nil
}

const pruneSessionEvents = `DELETE FROM access_session_events WHERE occurred_at < $1`

// PruneSessionEvents removes events that occurred before the cutoff and
// returns how many rows were deleted.
func (r *PGRepository) PruneSessionEvents(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, pruneSessionEvents, pgtype.Timestamptz{Time: before.UTC(), Valid: true})
	if err != nil {
		return 0, fmt.Errorf("auth: prune session events: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ EventRepository = (*PGRepository)(nil)
