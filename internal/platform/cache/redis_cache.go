// Package cache implements the shared rate cache on Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/core/domain"
	"github.com/budgetanalyzer/currency-service/internal/core/ports"
	"github.com/go-redis/redis/v8"
)

// keyPrefix namespaces rate windows so EvictAll never touches foreign keys
// on a shared Redis.
const keyPrefix = "rates:"

const scanBatchSize = 200

// RedisRateCache stores gap-filled query results as JSON with a fixed TTL.
type RedisRateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRateCache creates a rate cache on the given Redis client.
func NewRedisRateCache(client *redis.Client, ttl time.Duration) *RedisRateCache {
	return &RedisRateCache{client: client, ttl: ttl}
}

var _ ports.RateCache = (*RedisRateCache)(nil)

// GetRates returns the cached records for key and whether the key was present.
func (c *RedisRateCache) GetRates(ctx context.Context, key string) ([]domain.RateRecord, bool, error) {
	payload, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read rate cache key %s: %w", key, err)
	}

	var records []domain.RateRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		// A corrupt entry behaves like a miss; the store is the source of truth.
		return nil, false, fmt.Errorf("failed to decode cached rates for key %s: %w", key, err)
	}
	return records, true, nil
}

// PutRates stores the records under key with the configured TTL.
func (c *RedisRateCache) PutRates(ctx context.Context, key string, records []domain.RateRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode rates for cache key %s: %w", key, err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write rate cache key %s: %w", key, err)
	}
	return nil
}

// EvictAll removes every cached rate window.
func (c *RedisRateCache) EvictAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", scanBatchSize).Iterator()

	keys := make([]string, 0, scanBatchSize)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == scanBatchSize {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to evict rate cache batch: %w", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan rate cache keys: %w", err)
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to evict rate cache batch: %w", err)
		}
	}
	return nil
}
