package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"anomalyze/pkg/platform/sentinel"
)

// RedisLeaseStore implements LeaseStore on Redis SETNX. This is the
// production implementation: the atomic set-if-absent is the sole
// coordination point between partition workers, so no in-process locking
// exists anywhere in the pipeline.
type RedisLeaseStore struct {
	client *redis.Client
}

func NewRedisLeaseStore(client *redis.Client) *RedisLeaseStore {
	return &RedisLeaseStore{client: client}
}

func (s *RedisLeaseStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	// Value is a simple marker; key existence is what matters.
	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w: %w", key, sentinel.ErrUnavailable, err)
	}
	return ok, nil
}
