package store

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gsarma/socialgate/internal/logging"
)

// Audit event kinds.
const (
	KindExchange = "exchange"
	KindRefresh  = "refresh"
	KindDispatch = "dispatch"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Event is one outcome to record. Token material never belongs here.
type Event struct {
	Kind       string
	Platform   string
	ExternalID string
	Err        error
}

// Recorder writes audit events. A Recorder without a Querier is disabled:
// Record does nothing and Recent returns an empty list.
type Recorder struct {
	q      Querier
	logger *log.Logger
}

func NewRecorder(q Querier, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Recorder{q: q, logger: logger}
}

// Enabled reports whether events are persisted.
func (r *Recorder) Enabled() bool {
	return r != nil && r.q != nil
}

// Record stores ev. Failures are logged and never reach the caller.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	if !r.Enabled() {
		return
	}
	params := InsertAuditEventParams{
		ID:         uuid.New(),
		Kind:       ev.Kind,
		Platform:   ev.Platform,
		Success:    ev.Err == nil,
		ExternalID: pgtype.Text{String: ev.ExternalID, Valid: ev.ExternalID != ""},
	}
	if ev.Err != nil {
		params.Error = pgtype.Text{String: ev.Err.Error(), Valid: true}
	}
	if _, err := r.q.InsertAuditEvent(context.WithoutCancel(ctx), params); err != nil {
		r.logger.Error("failed to record audit event", "kind", ev.Kind, "platform", ev.Platform, "error", err)
	}
}

// Recent lists the newest events, optionally for one platform. limit is
// clamped to [1, MaxListLimit] and defaults to DefaultListLimit.
func (r *Recorder) Recent(ctx context.Context, platform string, limit int) ([]AuditEvent, error) {
	if !r.Enabled() {
		return []AuditEvent{}, nil
	}
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	events, err := r.q.ListAuditEvents(ctx, ListAuditEventsParams{Platform: platform, Limit: int32(limit)})
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []AuditEvent{}
	}
	return events, nil
}
