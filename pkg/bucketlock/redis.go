// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package bucketlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisTTL bounds how long a crashed owner can keep a bucket locked.
const DefaultRedisTTL = time.Hour

// RedisLock stores ownership of a bucket as a key holding a random token.
// The key expires after the TTL, so a crashed archiver does not keep the
// bucket locked forever. Archives that may run longer than the TTL need a
// larger TTL.
type RedisLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration

	mu     sync.Mutex
	locked bool
}

// NewRedisLock creates an unlocked lock on key.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisLock{
		client: client,
		key:    key,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Key returns the redis key guarded by this lock
func (l *RedisLock) Key() string {
	return l.key
}

func (l *RedisLock) TryLock(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locked {
		return true, nil
	}
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", l.key, err)
	}
	l.locked = ok
	return ok, nil
}

func (l *RedisLock) IsLocked(ctx context.Context) bool {
	l.mu.Lock()
	locked := l.locked
	l.mu.Unlock()
	if !locked {
		return false
	}

	owner, err := l.client.Get(ctx, l.key).Result()
	if err != nil {
		return false
	}
	return owner == l.token
}

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// DeleteLockFile removes the key if this instance owns it. A key owned by
// someone else, or already gone, is left alone.
func (l *RedisLock) DeleteLockFile(ctx context.Context) error {
	err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis release %s: %w", l.key, err)
	}
	return nil
}

func (l *RedisLock) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = false
	return nil
}
