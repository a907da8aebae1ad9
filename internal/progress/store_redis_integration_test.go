//go:build integration

package progress_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"consentflow/internal/progress"
	"consentflow/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *progress.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = progress.NewRedisStore(s.redis.Client, time.Minute)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	deadline := time.Date(2026, 3, 1, 12, 0, 30, 0, time.UTC)

	p := progress.New()
	p.FirstName = "Ada"
	p.DOB = &progress.DateOfBirth{Day: 10, Month: 12, Year: 1985}
	p.SetPostcode("LS1 4AP")
	p.Deadline = &deadline
	p.LookupSubmitted = true
	s.Require().NoError(s.store.Save(ctx, "sess-1", p))

	got, err := s.store.Load(ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal("Ada", got.FirstName)
	s.Equal(1985, got.DOB.Year)
	s.Equal("LS1 4AP", got.Postcode)
	s.True(got.Deadline.Equal(deadline))
	s.True(got.LookupSubmitted)
}

func (s *RedisStoreSuite) TestAbsentAndDelete() {
	ctx := context.Background()

	got, err := s.store.Load(ctx, "sess-none")
	s.Require().NoError(err)
	s.Equal(progress.New(), got)

	s.Require().NoError(s.store.Save(ctx, "sess-2", &progress.Progress{FirstName: "B"}))
	s.Require().NoError(s.store.Delete(ctx, "sess-2"))

	got, err = s.store.Load(ctx, "sess-2")
	s.Require().NoError(err)
	s.Empty(got.FirstName)
}

func (s *RedisStoreSuite) TestTTLApplied() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, "sess-ttl", progress.New()))

	ttl, err := s.redis.Client.TTL(ctx, "progress:sess-ttl").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}
