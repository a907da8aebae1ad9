package counter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"consentflow/pkg/platform/sentinel"
)

// PostgresStore persists session counters in PostgreSQL.
// Every increment is a single INSERT ... ON CONFLICT DO UPDATE ... RETURNING,
// so concurrent requests for one pair cannot lose an update.
//
// Expected schema:
//
//	CREATE TABLE session_counters (
//		session_id TEXT NOT NULL,
//		name       TEXT NOT NULL,
//		count      INTEGER NOT NULL DEFAULT 0,
//		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//		PRIMARY KEY (session_id, name)
//	);
type PostgresStore struct {
	db *sql.DB
}

// Schema creates the session_counters table when it does not exist yet.
const Schema = `
CREATE TABLE IF NOT EXISTS session_counters (
	session_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	count      INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (session_id, name)
)`

// NewPostgresStore constructs a PostgreSQL-backed counter store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies Schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate session counters: %w", err)
	}
	return nil
}

func (s *PostgresStore) Increment(ctx context.Context, sessionID, name string) (int, error) {
	query := `
		INSERT INTO session_counters (session_id, name, count, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (session_id, name) DO UPDATE SET
			count = session_counters.count + 1,
			updated_at = NOW()
		RETURNING count
	`
	var n int
	if err := s.db.QueryRowContext(ctx, query, sessionID, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: increment counter: %w", sentinel.ErrUnavailable, err)
	}
	return n, nil
}

// IncrementBounded stores 0 instead of max+1. The stored value after an
// increment is only ever 0 on that wrap, so a returned 0 means max+1.
func (s *PostgresStore) IncrementBounded(ctx context.Context, sessionID, name string, max int) (int, error) {
	if max < 1 {
		return 0, ErrInvalidMax
	}
	query := `
		INSERT INTO session_counters (session_id, name, count, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (session_id, name) DO UPDATE SET
			count = CASE WHEN session_counters.count + 1 > $3 THEN 0 ELSE session_counters.count + 1 END,
			updated_at = NOW()
		RETURNING count
	`
	var n int
	if err := s.db.QueryRowContext(ctx, query, sessionID, name, max).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: increment bounded counter: %w", sentinel.ErrUnavailable, err)
	}
	if n == 0 {
		return max + 1, nil
	}
	return n, nil
}

func (s *PostgresStore) Count(ctx context.Context, sessionID, name string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count FROM session_counters WHERE session_id = $1 AND name = $2`,
		sessionID, name,
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: get counter: %w", sentinel.ErrUnavailable, err)
	}
	return n, nil
}

func (s *PostgresStore) Reset(ctx context.Context, sessionID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE session_counters SET count = 0, updated_at = NOW() WHERE session_id = $1 AND name = $2`,
		sessionID, name,
	)
	if err != nil {
		return fmt.Errorf("%w: reset counter: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_counters WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("%w: clear session counters: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
