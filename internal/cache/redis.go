package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// kv is the subset of *redis.Client used by RedisCache
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCache shares shingle lists between processes.
type RedisCache struct {
	client kv
	ttl    time.Duration
}

func NewRedisCache(client kv, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("Shingle cache read failed")
		}
		return nil, false
	}

	var shingles []string
	if err := json.Unmarshal(data, &shingles); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding malformed shingle cache entry")
		return nil, false
	}
	return shingles, true
}

func (c *RedisCache) Set(ctx context.Context, key string, shingles []string) error {
	data, err := json.Marshal(shingles)
	if err != nil {
		return fmt.Errorf("failed to marshal shingles: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write shingle cache: %w", err)
	}
	return nil
}
