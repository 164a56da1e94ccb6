//go:build integration

package dedupe_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"anomalyze/internal/dedupe"
	"anomalyze/pkg/platform/sentinel"
	"anomalyze/pkg/testutil/containers"
)

type RedisLeaseSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *dedupe.RedisLeaseStore
}

func TestRedisLeaseSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLeaseSuite))
}

func (s *RedisLeaseSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = dedupe.NewRedisLeaseStore(s.redis.Client)
}

func (s *RedisLeaseSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLeaseSuite) TestAcquireIsAtomic() {
	ctx := context.Background()
	key := dedupe.Key("u1", "tx1")

	ok, err := s.store.Acquire(ctx, key, time.Hour)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.Acquire(ctx, key, time.Hour)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisLeaseSuite) TestLeaseExpires() {
	ctx := context.Background()
	key := dedupe.Key("u1", "tx-short")

	ok, err := s.store.Acquire(ctx, key, 500*time.Millisecond)
	s.Require().NoError(err)
	s.True(ok)

	s.Eventually(func() bool {
		ok, err := s.store.Acquire(ctx, key, time.Hour)
		return err == nil && ok
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *RedisLeaseSuite) TestUnreachableCacheReportsUnavailable() {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	store := dedupe.NewRedisLeaseStore(client)

	_, err := store.Acquire(context.Background(), dedupe.Key("u1", "tx-down"), time.Hour)
	s.ErrorIs(err, sentinel.ErrUnavailable)
}

func (s *RedisLeaseSuite) TestConcurrentClaimsSingleWinner() {
	ctx := context.Background()
	key := dedupe.Key("u1", "tx-race")

	const claimers = 16
	wins := make(chan bool, claimers)
	for i := 0; i < claimers; i++ {
		go func() {
			ok, err := s.store.Acquire(ctx, key, time.Hour)
			wins <- err == nil && ok
		}()
	}

	winners := 0
	for i := 0; i < claimers; i++ {
		if <-wins {
			winners++
		}
	}
	s.Equal(1, winners)
}
