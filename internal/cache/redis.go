package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rdapgate/internal/rdap"
	"rdapgate/pkg/platform/sentinel"
)

const redisKeyPrefix = "rdapgate:record:"

// RedisStore persists entries in Redis so replicas share one cache. TTL is
// delegated to Redis key expiry; an expired entry is simply gone, so Get
// reports it as not found rather than expired.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an already-connected client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key Key) (rdap.NormalizedRecord, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return rdap.NormalizedRecord{}, sentinel.ErrNotFound
	}
	if err != nil {
		return rdap.NormalizedRecord{}, fmt.Errorf("%w: redis get: %w", sentinel.ErrUnavailable, err)
	}

	var record rdap.NormalizedRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		// A corrupt entry reads as a miss; the next Set overwrites it.
		return rdap.NormalizedRecord{}, sentinel.ErrNotFound
	}
	return record, nil
}

func (s *RedisStore) Set(ctx context.Context, key Key, record rdap.NormalizedRecord, ttl time.Duration) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key.String(), raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key.String()).Err(); err != nil {
		return fmt.Errorf("%w: redis del: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}
