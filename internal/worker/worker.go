// Package worker writes audit events in the background so request handlers
// never wait on the database.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gsarma/socialgate/internal/logging"
	"github.com/gsarma/socialgate/internal/store"
)

// ErrQueueFull is returned by InsertAuditEvent when the buffer is full.
var ErrQueueFull = errors.New("audit queue full")

// Worker is a store.Querier whose inserts are queued and written by a pool
// of goroutines. Reads go straight to the underlying Querier.
type Worker struct {
	next        store.Querier
	jobs        chan store.InsertAuditEventParams
	concurrency int
	maxAttempts int
	backoff     time.Duration
	logger      *log.Logger
}

// Option configures a Worker.
type Option func(*Worker)

func WithConcurrency(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.maxAttempts = n
		}
	}
}

// WithBackoff sets the delay before the first retry. It doubles per attempt.
func WithBackoff(d time.Duration) Option {
	return func(w *Worker) {
		w.backoff = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(w *Worker) {
		w.logger = l
	}
}

// New creates a Worker buffering up to size events in front of next.
func New(next store.Querier, size int, opts ...Option) *Worker {
	w := &Worker{
		next:        next,
		jobs:        make(chan store.InsertAuditEventParams, size),
		concurrency: 2,
		maxAttempts: 3,
		backoff:     time.Second,
		logger:      logging.Discard(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

var _ store.Querier = (*Worker)(nil)

// InsertAuditEvent queues arg and returns without touching the database.
func (w *Worker) InsertAuditEvent(_ context.Context, arg store.InsertAuditEventParams) (store.AuditEvent, error) {
	select {
	case w.jobs <- arg:
		return store.AuditEvent{
			ID:         arg.ID,
			Kind:       arg.Kind,
			Platform:   arg.Platform,
			Success:    arg.Success,
			Error:      arg.Error,
			ExternalID: arg.ExternalID,
		}, nil
	default:
		return store.AuditEvent{}, ErrQueueFull
	}
}

func (w *Worker) ListAuditEvents(ctx context.Context, arg store.ListAuditEventsParams) ([]store.AuditEvent, error) {
	return w.next.ListAuditEvents(ctx, arg)
}

// Start runs the writer goroutines. It blocks until ctx is cancelled, then
// writes whatever is still queued before returning.
func (w *Worker) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Wait()
	w.flush()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			w.process(ctx, job)
		}
	}
}

func (w *Worker) flush() {
	for {
		select {
		case job := <-w.jobs:
			w.process(context.Background(), job)
		default:
			return
		}
	}
}

// process writes one event, retrying with exponential backoff. Once ctx is
// done the remaining attempts run without waiting.
func (w *Worker) process(ctx context.Context, job store.InsertAuditEventParams) {
	for attempt := 1; ; attempt++ {
		_, err := w.next.InsertAuditEvent(context.WithoutCancel(ctx), job)
		if err == nil {
			return
		}
		if attempt >= w.maxAttempts {
			w.logger.Error("dropping audit event", "id", job.ID, "kind", job.Kind, "attempts", attempt, "error", err)
			return
		}
		backoff := time.Duration(int64(1)<<uint(attempt-1)) * w.backoff
		w.logger.Warn("audit write failed, retrying", "id", job.ID, "attempt", attempt, "retry_in", backoff, "error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}
