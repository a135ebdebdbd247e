package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/attribution-gateway/internal/domain"
)

// RedisStore implements Store against Redis. Entry expiry rides on Redis
// key TTLs, so expired entries vanish without a sweeper.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed attribution cache.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key Key) (*domain.AttributionResult, bool, error) {
	data, err := s.client.Get(ctx, key.String()).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var res domain.AttributionResult
	if err := json.Unmarshal(data, &res); err != nil {
		// A corrupt entry is a miss; it will be overwritten by the
		// recompute.
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &res, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key Key, res *domain.AttributionResult, ttl time.Duration) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := s.client.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, pattern string) (int, error) {
	var removed int
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("cache invalidate: %w", err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("cache scan: %w", err)
	}
	return removed, nil
}
