package progress

import "context"

// Store persists Progress by session id.
type Store interface {
	// Load returns the session's progress, or an empty record when none exists.
	Load(ctx context.Context, sessionID string) (*Progress, error)
	// Save replaces the session's progress.
	Save(ctx context.Context, sessionID string, p *Progress) error
	// Delete removes the session's progress. Deleting an absent session is not an error.
	Delete(ctx context.Context, sessionID string) error
}
