package workflow

import "errors"

var (
	// ErrInvariant marks state the current stage assumes but that is missing.
	ErrInvariant = errors.New("workflow invariant violated")

	// ErrUnknownEvent is returned for an event kind the workflow does not handle.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrSessionRequired is returned when Advance is called without a session id.
	ErrSessionRequired = errors.New("session id is required")
)
