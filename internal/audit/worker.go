package audit

import (
	"context"
	"log/slog"
	"time"
)

// appendTimeout bounds one sink write made by the worker.
const appendTimeout = 5 * time.Second

// Worker consumes audit events from a channel and persists them, keeping sink
// latency off the request path.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run appends events until the inbox is closed or ctx is done. A failed append
// is logged and the worker moves on.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), appendTimeout)
			if err := w.store.Append(appendCtx, event); err != nil {
				w.logger.WarnContext(ctx, "audit sink append failed", "action", event.Action, "error", err)
			}
			cancel()
		}
	}
}
