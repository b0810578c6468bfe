package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertAuditEvent = `-- name: InsertAuditEvent :one
INSERT INTO audit_events (id, kind, platform, success, error, external_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, kind, platform, success, error, external_id, created_at
`

type InsertAuditEventParams struct {
	ID         uuid.UUID   `json:"id"`
	Kind       string      `json:"kind"`
	Platform   string      `json:"platform"`
	Success    bool        `json:"success"`
	Error      pgtype.Text `json:"error"`
	ExternalID pgtype.Text `json:"external_id"`
}

func (q *Queries) InsertAuditEvent(ctx context.Context, arg InsertAuditEventParams) (AuditEvent, error) {
	row := q.db.QueryRow(ctx, insertAuditEvent,
		arg.ID,
		arg.Kind,
		arg.Platform,
		arg.Success,
		arg.Error,
		arg.ExternalID,
	)
	var i AuditEvent
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.Platform,
		&i.Success,
		&i.Error,
		&i.ExternalID,
		&i.CreatedAt,
	)
	return i, err
}

const listAuditEvents = `-- name: ListAuditEvents :many
SELECT id, kind, platform, success, error, external_id, created_at
FROM audit_events
WHERE ($1::text = '' OR platform = $1::text)
ORDER BY created_at DESC
LIMIT $2
`

type ListAuditEventsParams struct {
	Platform string `json:"platform"`
	Limit    int32  `json:"limit"`
}

func (q *Queries) ListAuditEvents(ctx context.Context, arg ListAuditEventsParams) ([]AuditEvent, error) {
	rows, err := q.db.Query(ctx, listAuditEvents, arg.Platform, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AuditEvent
	for rows.Next() {
		var i AuditEvent
		if err := rows.Scan(
			&i.ID,
			&i.Kind,
			&i.Platform,
			&i.Success,
			&i.Error,
			&i.ExternalID,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
