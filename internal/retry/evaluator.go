// Package retry turns counter increments into bounded-retry verdicts.
//
// Evaluate increments the named counter and compares the new count with the
// policy maximum. The increment that passes the maximum reports Exceeded and
// resets the counter in the same atomic step, so the following call starts
// again from 1 and reports NotReached.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"consentflow/internal/counter"
	"consentflow/internal/platform/metrics"
	"consentflow/pkg/requestcontext"
)

// Evaluator applies a Policy to a counter.Store.
type Evaluator struct {
	store   counter.Store
	policy  Policy
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) {
		e.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// NewEvaluator creates an Evaluator over store.
func NewEvaluator(store counter.Store, policy Policy, opts ...Option) (*Evaluator, error) {
	if store == nil {
		return nil, errors.New("counter store is required")
	}
	e := &Evaluator{
		store:  store,
		policy: policy,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Evaluate increments the named counter for the session and classifies it.
func (e *Evaluator) Evaluate(ctx context.Context, sessionID, name string) (Verdict, error) {
	max, ok := e.policy.Max(name)
	if !ok {
		return NotReached, fmt.Errorf("%w: %s", ErrUnknownCounter, name)
	}

	count, err := e.store.IncrementBounded(ctx, sessionID, name, max)
	if err != nil {
		return NotReached, fmt.Errorf("evaluate %s: %w", name, err)
	}

	verdict := verdictFor(count, max)
	e.metrics.IncrementRetryVerdict(name, verdict.String())
	if verdict != NotReached && e.logger != nil {
		e.logger.InfoContext(ctx, "retry limit hit",
			"session_ref", requestcontext.SessionRef(sessionID),
			"counter", name,
			"verdict", verdict.String(),
		)
	}
	return verdict, nil
}

// Reset zeroes one counter for a session.
func (e *Evaluator) Reset(ctx context.Context, sessionID, name string) error {
	return e.store.Reset(ctx, sessionID, name)
}

// Forget drops every counter for a session.
func (e *Evaluator) Forget(ctx context.Context, sessionID string) error {
	return e.store.Clear(ctx, sessionID)
}

// Policy returns the evaluator's policy.
func (e *Evaluator) Policy() Policy {
	return e.policy
}
