package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"amd-webhook/internal/webhook"
	"amd-webhook/pkg/utils"
)

// PostgresRepo stores events in the webhook_events table.
// Open the *sql.DB with utils.OpenPostgres.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS webhook_events (
	id          UUID PRIMARY KEY,
	call_sid    TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL,
	endpoint    TEXT NOT NULL,
	method      TEXT NOT NULL,
	answered_by TEXT NOT NULL DEFAULT '',
	call_status TEXT NOT NULL DEFAULT '',
	detection_ms TEXT NOT NULL DEFAULT '',
	fields      JSONB NOT NULL DEFAULT '{}'::jsonb,
	received_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS webhook_events_call_sid_idx ON webhook_events (call_sid, received_at DESC)`,
}

// EnsureSchema creates the table and index if missing.
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	return utils.InTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("events: ensure schema: %w", err)
			}
		}
		return nil
	})
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	fields, err := json.Marshal(e.Fields)
	if err != nil {
		return fmt.Errorf("events: encode fields: %w", err)
	}
	const q = `
INSERT INTO webhook_events (id, call_sid, type, endpoint, method, answered_by, call_status, detection_ms, fields, received_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
	_, err = r.db.ExecContext(ctx, q,
		e.ID,
		e.CallSID,
		string(e.Type),
		e.Endpoint,
		e.Method,
		e.AnsweredBy,
		e.CallStatus,
		e.DetectionMS,
		string(fields),
		e.ReceivedAt,
	)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]Event, error) {
	const q = `
SELECT id, call_sid, type, endpoint, method, answered_by, call_status, detection_ms, fields, received_at
FROM webhook_events
WHERE ($1 = '' OR call_sid = $1)
  AND ($2::timestamptz IS NULL OR received_at >= $2)
  AND ($3::timestamptz IS NULL OR received_at < $3)
ORDER BY received_at DESC
LIMIT $4
`
	rows, err := r.db.QueryContext(ctx, q, f.CallSID, nullTime(f.From), nullTime(f.To), f.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var (
			e      Event
			typ    string
			fields []byte
		)
		if err := rows.Scan(
			&e.ID,
			&e.CallSID,
			&typ,
			&e.Endpoint,
			&e.Method,
			&e.AnsweredBy,
			&e.CallStatus,
			&e.DetectionMS,
			&fields,
			&e.ReceivedAt,
		); err != nil {
			return nil, err
		}
		e.Type = webhook.Type(typ)
		if err := json.Unmarshal(fields, &e.Fields); err != nil {
			return nil, fmt.Errorf("events: decode fields: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
