package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type AuditEvent struct {
	ID         uuid.UUID   `json:"id"`
	Kind       string      `json:"kind"`
	Platform   string      `json:"platform"`
	Success    bool        `json:"success"`
	Error      pgtype.Text `json:"error"`
	ExternalID pgtype.Text `json:"external_id"`
	CreatedAt  time.Time   `json:"created_at"`
}
