package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/textile-erp/internal/platform/db"
)

// PgRepository reads audit_logs from Postgres.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the audit repository.
func NewRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Timeline returns matching rows ordered newest first.
func (r *PgRepository) Timeline(ctx context.Context, q Query) ([]TimelineRow, error) {
	var limit pgtype.Int8
	if q.Limit > 0 {
		limit = pgtype.Int8{Int64: int64(q.Limit), Valid: true}
	}
	rows, err := r.pool.Query(ctx, `SELECT id, occurred_at, actor_id, action, entity, entity_id, meta
FROM audit_logs
WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
  AND ($2::timestamptz IS NULL OR occurred_at < $2)
  AND ($3::bigint IS NULL OR actor_id = $3)
  AND ($4::text IS NULL OR entity = $4)
  AND ($5::text IS NULL OR entity_id = $5)
  AND ($6::text IS NULL OR action = $6)
ORDER BY occurred_at DESC, id DESC
LIMIT $7 OFFSET $8`,
		optTime(q.From), optTime(q.To), optInt(q.ActorID),
		optText(q.Entity), optText(q.EntityID), optText(q.Action), limit, q.Offset)
	if err != nil {
		return nil, db.Translate(err)
	}
	defer rows.Close()

	var out []TimelineRow
	for rows.Next() {
		var (
			row  TimelineRow
			meta []byte
		)
		if err := rows.Scan(&row.ID, &row.At, &row.ActorID, &row.Action, &row.Entity, &row.EntityID, &meta); err != nil {
			return nil, db.Translate(err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &row.Meta); err != nil {
				return nil, err
			}
		}
		out = append(out, row)
	}
	return out, db.Translate(rows.Err())
}

func optTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optInt(v int64) pgtype.Int8 {
	if v <= 0 {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: v, Valid: true}
}

func optText(v string) pgtype.Text {
	if v == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: v, Valid: true}
}
