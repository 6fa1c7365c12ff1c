// Package lock implements the scheduler lock as a Redis lease.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/budgetanalyzer/currency-service/internal/core/ports"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const lockKeyPrefix = "locks:"

// releaseScript deletes the lock only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// shrinkScript rewrites the TTL only when the caller still owns the lock.
var shrinkScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLock is a lease-based distributed lock. A lease expires on its own
// after the maximum hold, so a crashed holder never blocks other instances
// past that ceiling.
type RedisLock struct {
	client *redis.Client
}

// NewRedisLock creates a distributed lock backed by the given Redis client.
func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

var _ ports.DistributedLock = (*RedisLock)(nil)

// TryAcquire attempts to take the named lock without blocking. It returns a
// nil lease when another holder currently owns the lock.
func (l *RedisLock) TryAcquire(ctx context.Context, name string, maxHold, minHold time.Duration) (ports.LockLease, error) {
	token := uuid.NewString()
	key := lockKeyPrefix + name

	ok, err := l.client.SetNX(ctx, key, token, maxHold).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, nil
	}
	return &redisLease{
		client:     l.client,
		key:        key,
		token:      token,
		minHold:    minHold,
		acquiredAt: time.Now(),
	}, nil
}

type redisLease struct {
	client     *redis.Client
	key        string
	token      string
	minHold    time.Duration
	acquiredAt time.Time
}

// Release gives the lock up. When the holder finished before the minimum
// hold elapsed, the lease is kept alive for the remainder instead of being
// deleted, so clock-skewed peers cannot re-run the same cycle early.
func (l *redisLease) Release(ctx context.Context) error {
	elapsed := time.Since(l.acquiredAt)
	if remaining := l.minHold - elapsed; remaining > 0 {
		err := shrinkScript.Run(ctx, l.client, []string{l.key}, l.token, remaining.Milliseconds()).Err()
		if err != nil {
			return fmt.Errorf("failed to shrink lock lease %s: %w", l.key, err)
		}
		return nil
	}

	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}
