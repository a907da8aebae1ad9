package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"consentflow/pkg/platform/sentinel"
)

const (
	// Redis key prefix for session progress: progress:{session}
	progressKeyPrefix = "progress:"
)

// RedisStore keeps progress as JSON with a sliding TTL, so abandoned sessions
// expire without an explicit delete.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a progress store with the given TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Progress, error) {
	data, err := s.client.Get(ctx, progressKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(), nil
		}
		return nil, fmt.Errorf("%w: get progress: %w", sentinel.ErrUnavailable, err)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: unmarshal progress: %w", sentinel.ErrInvalidState, err)
	}
	return &p, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, p *Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	if err := s.client.Set(ctx, progressKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: save progress: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, progressKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("%w: delete progress: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func progressKey(sessionID string) string {
	return progressKeyPrefix + sessionID
}
