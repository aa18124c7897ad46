// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package bucketlock

import (
	"context"
	"fmt"
	"time"

	"github.com/LeeDigitalWorks/bucketvault/pkg/types"

	"github.com/redis/go-redis/v9"
)

// Locker hands out per-bucket locks of the configured kind.
type Locker struct {
	cfg    types.LockConfig
	client *redis.Client
}

// NewLocker creates a locker from config. Redis lockers connect and ping
// the server up front.
func NewLocker(cfg types.LockConfig) (*Locker, error) {
	switch cfg.Type {
	case types.LockTypeFile, "":
		return &Locker{cfg: cfg}, nil
	case types.LockTypeRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return &Locker{cfg: cfg, client: client}, nil
	default:
		return nil, fmt.Errorf("unknown lock type: %s", cfg.Type)
	}
}

// NewLockerWithClient creates a redis locker with an existing client.
func NewLockerWithClient(client *redis.Client, cfg types.LockConfig) *Locker {
	cfg.Type = types.LockTypeRedis
	return &Locker{cfg: cfg, client: client}
}

// ForBucket returns a new, unlocked lock for bucket
func (l *Locker) ForBucket(bucket types.Bucket) Lock {
	if l.client != nil {
		key := l.cfg.KeyPrefix + bucket.Index() + ":" + bucket.Name()
		return NewRedisLock(l.client, key, time.Duration(l.cfg.TTLSeconds)*time.Second)
	}
	return NewFileLock(l.cfg.Dir, bucket)
}

// Close releases the redis connection, if any
func (l *Locker) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}
