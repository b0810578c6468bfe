package store

import (
	"context"
)

type Querier interface {
	InsertAuditEvent(ctx context.Context, arg InsertAuditEventParams) (AuditEvent, error)
	ListAuditEvents(ctx context.Context, arg ListAuditEventsParams) ([]AuditEvent, error)
}

var _ Querier = (*Queries)(nil)
