package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads access_session_events from PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL timeline repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const listSessionEvents = `
SELECT occurred_at, user_id, session_id, event, COALESCE(ip, ''), COALESCE(user_agent, '')
FROM access_session_events
WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
  AND ($2::timestamptz IS NULL OR occurred_at < $2)
  AND ($3::bigint IS NULL OR user_id = $3)
  AND ($4::text IS NULL OR event = $4)
ORDER BY occurred_at DESC, id DESC
OFFSET $5
LIMIT $6`

// ListSessionEvents runs the filtered timeline query.
func (r *PGRepository) ListSessionEvents(ctx context.Context, params ListParams) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, listSessionEvents,
		toPgTime(params.From),
		toPgTime(params.To),
		pgtype.Int8{Int64: params.UserID, Valid: params.UserID > 0},
		optionalText(params.Event),
		params.Offset,
		pgtype.Int4{Int32: int32(params.Limit), Valid: params.Limit > 0},
	)
	if err != nil {
		return nil, fmt.Errorf("audit: list session events: %w", err)
	}
	defer rows.Close()

	var out []TimelineRow
	for rows.Next() {
		var (
			at  pgtype.Timestamptz
			row TimelineRow
		)
		if err := rows.Scan(&at, &row.UserID, &row.SessionID, &row.Event, &row.IP, &row.UserAgent); err != nil {
			return nil, fmt.Errorf("audit: scan session event: %w", err)
		}
		if at.Valid {
			row.At = at.Time.UTC()
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: list session events: %w", err)
	}
	return out, nil
}

func toPgTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

func optionalText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}

var _ Repository = (*PGRepository)(nil)
