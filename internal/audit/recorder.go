package audit

import (
	"context"
	"fmt"
	"log/slog"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Recorder buffers events on a channel and persists them from a background
// worker, keeping store latency off the request path.
type Recorder struct {
	inbox  chan Event
	store  Store
	logger *slog.Logger
}

// NewRecorder constructs a Recorder with the given inbox capacity.
func NewRecorder(store Store, logger *slog.Logger, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Recorder{
		inbox:  make(chan Event, buffer),
		store:  store,
		logger: logger,
	}
}

// Emit enqueues the event without blocking. A full inbox drops the event;
// audit is best-effort and must not stall card operations.
func (r *Recorder) Emit(_ context.Context, event Event) error {
	select {
	case r.inbox <- event:
		return nil
	default:
		return fmt.Errorf("audit inbox full, dropped %s", event.Action)
	}
}

// Run drains the inbox until ctx is cancelled, then flushes whatever is
// already buffered. Call from a dedicated goroutine.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case event := <-r.inbox:
			r.persist(ctx, event)
		case <-ctx.Done():
			for {
				select {
				case event := <-r.inbox:
					r.persist(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) persist(ctx context.Context, event Event) {
	if err := r.store.Append(ctx, event); err != nil {
		r.logger.Warn("audit event persist failed",
			"action", string(event.Action),
			"subject", event.Subject,
			"error", err,
		)
	}
}
