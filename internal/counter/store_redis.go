package counter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"consentflow/internal/platform/metrics"
	"consentflow/pkg/platform/sentinel"
)

const (
	// Redis key prefix for session counters: counter:{session}:{name}
	counterKeyPrefix = "counter:"
)

// incrementBoundedScript increments KEYS[1] and resets it to 0 when the new
// value passes ARGV[1]. It returns the incremented value before any reset.
var incrementBoundedScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
redis.call("PEXPIRE", KEYS[1], ARGV[2])
redis.call("SADD", KEYS[2], KEYS[1])
redis.call("PEXPIRE", KEYS[2], ARGV[2])
if n > tonumber(ARGV[1]) then
	redis.call("SET", KEYS[1], 0, "PX", ARGV[2])
end
return n
`)

// RedisStore is a Redis-backed Store for deployments where several instances
// serve the same sessions. INCR is atomic, so no increment is ever lost.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

// RedisStoreOption configures a RedisStore instance.
type RedisStoreOption func(*RedisStore)

// WithTTL bounds how long an idle session's counters are kept.
func WithTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMetrics records increment latency.
func WithMetrics(m *metrics.Metrics) RedisStoreOption {
	return func(s *RedisStore) {
		s.metrics = m
	}
}

// NewRedisStore constructs a Redis-backed counter store.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		ttl:    time.Hour,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) Increment(ctx context.Context, sessionID, name string) (int, error) {
	defer s.metrics.ObserveCounterIncrement("increment", time.Now())

	key := counterKey(sessionID, name)
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.PExpire(ctx, key, s.ttl)
	pipe.SAdd(ctx, indexKey(sessionID), key)
	pipe.PExpire(ctx, indexKey(sessionID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: increment counter: %w", sentinel.ErrUnavailable, err)
	}
	return int(incr.Val()), nil
}

func (s *RedisStore) IncrementBounded(ctx context.Context, sessionID, name string, max int) (int, error) {
	if max < 1 {
		return 0, ErrInvalidMax
	}
	defer s.metrics.ObserveCounterIncrement("increment_bounded", time.Now())

	keys := []string{counterKey(sessionID, name), indexKey(sessionID)}
	n, err := incrementBoundedScript.Run(ctx, s.client, keys, max, s.ttl.Milliseconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("%w: increment bounded counter: %w", sentinel.ErrUnavailable, err)
	}
	return n, nil
}

func (s *RedisStore) Count(ctx context.Context, sessionID, name string) (int, error) {
	n, err := s.client.Get(ctx, counterKey(sessionID, name)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: get counter: %w", sentinel.ErrUnavailable, err)
	}
	return n, nil
}

func (s *RedisStore) Reset(ctx context.Context, sessionID, name string) error {
	key := counterKey(sessionID, name)
	// SET XX leaves absent counters absent.
	if err := s.client.SetXX(ctx, key, 0, s.ttl).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: reset counter: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	idx := indexKey(sessionID)
	keys, err := s.client.SMembers(ctx, idx).Result()
	if err != nil {
		return fmt.Errorf("%w: list session counters: %w", sentinel.ErrUnavailable, err)
	}
	keys = append(keys, idx)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: clear session counters: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func counterKey(sessionID, name string) string {
	return counterKeyPrefix + SanitizeKeySegment(sessionID) + ":" + SanitizeKeySegment(name)
}

func indexKey(sessionID string) string {
	return counterKeyPrefix + SanitizeKeySegment(sessionID)
}
