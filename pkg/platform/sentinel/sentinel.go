package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these wrapped
// alongside the driver error so callers can tell an outage from a bug.
var (
	// ErrUnavailable means the backing store could not be reached or failed the call.
	ErrUnavailable = errors.New("unavailable")
	// ErrInvalidState means stored data could not be read back.
	ErrInvalidState = errors.New("invalid state")
)
