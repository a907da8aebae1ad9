// Package counter keeps per-session, per-name integer counters.
//
// A counter does not exist until its first increment, so an absent counter and
// a counter at zero are indistinguishable to callers. Counters never decrement;
// they are only reset to zero.
//
// Increments for the same (session, name) pair are serialized by every store
// implementation. Pairs never interfere with one another.
package counter

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidMax is returned when a bounded increment is asked for a maximum below 1.
var ErrInvalidMax = errors.New("counter maximum must be at least 1")

// Store persists session counters.
type Store interface {
	// Increment adds one to the counter and returns the new value.
	// The first call for a pair returns 1.
	Increment(ctx context.Context, sessionID, name string) (int, error)

	// IncrementBounded adds one to the counter and returns the new value.
	// When the new value is greater than max, the stored value is reset to 0
	// in the same atomic step, so the next increment returns 1 again.
	IncrementBounded(ctx context.Context, sessionID, name string, max int) (int, error)

	// Count returns the current value (0 when absent).
	Count(ctx context.Context, sessionID, name string) (int, error)

	// Reset sets the counter to 0.
	Reset(ctx context.Context, sessionID, name string) error

	// Clear drops every counter held for a session.
	Clear(ctx context.Context, sessionID string) error
}

// SanitizeKeySegment escapes the key delimiter in user-controlled segments so
// a session id containing ':' cannot address another session's counters.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}
