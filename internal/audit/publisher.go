package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"consentflow/internal/platform/metrics"
	"consentflow/pkg/requestcontext"
)

var (
	// ErrQueueFull is returned when the async queue cannot take another event.
	ErrQueueFull = errors.New("audit queue full")
	// ErrQueueClosed is returned for events emitted after shutdown began.
	ErrQueueClosed = errors.New("audit queue closed")
)

// Publisher captures structured audit events. It is append-only and hands
// events to a Store so sinks can be swapped in tests.
type Publisher struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit stamps and appends an event. Sink failures are logged and returned;
// callers treat audit as best-effort.
func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = requestcontext.Now(ctx)
	}
	if base.RequestID == "" {
		base.RequestID = requestcontext.RequestID(ctx)
	}
	if err := p.store.Append(ctx, base); err != nil {
		p.metrics.IncrementAudit(base.Action, "error")
		p.logger.WarnContext(ctx, "audit append failed", "action", base.Action, "error", err)
		return err
	}
	p.metrics.IncrementAudit(base.Action, "ok")
	return nil
}

// QueueStore hands events to a Worker through a bounded channel so slow sinks
// never hold up a request.
type QueueStore struct {
	mu     sync.RWMutex
	closed bool
	queue  chan<- Event
}

// NewQueue creates a queue store and the channel a Worker drains.
func NewQueue(size int) (*QueueStore, <-chan Event) {
	if size <= 0 {
		size = 256
	}
	ch := make(chan Event, size)
	return &QueueStore{queue: ch}, ch
}

func (q *QueueStore) Append(_ context.Context, event Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events; the Worker drains what is left. Later calls
// are no-ops.
func (q *QueueStore) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.queue)
}
