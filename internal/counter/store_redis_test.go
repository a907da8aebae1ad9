package counter

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentflow/internal/platform/metrics"
	"consentflow/pkg/platform/sentinel"
)

func TestRedisStoreObservesIncrementsOnTheGivenRegistry(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	reg := prometheus.NewRegistry()
	store := NewRedisStore(client, WithMetrics(metrics.New(reg)))

	_, err := store.Increment(context.Background(), "sess-1", "resend_code")
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
	_, err = store.IncrementBounded(context.Background(), "sess-1", "verify_code", 3)
	require.ErrorIs(t, err, sentinel.ErrUnavailable)

	n, err := testutil.GatherAndCount(reg, "consentflow_counter_increment_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRedisStoreWithoutMetrics(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client)
	assert.NotPanics(t, func() {
		_, _ = store.Increment(context.Background(), "sess-1", "resend_code")
	})
}
