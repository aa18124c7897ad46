// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"

	"github.com/redis/go-redis/v9"
)

const defaultRedisChannel = "bucketvault:events"

// RedisPublisher publishes events to Redis Pub/Sub
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher connects to the server in cfg and pings it
func NewRedisPublisher(cfg types.EventsRedisConfig) (*RedisPublisher, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	p := NewRedisPublisherWithClient(client, cfg.Channel)
	logger.Info().
		Str("addr", cfg.Addr).
		Str("channel", p.channel).
		Msg("redis event publisher connected")
	return p, nil
}

// NewRedisPublisherWithClient creates a publisher over an existing client
func NewRedisPublisherWithClient(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = defaultRedisChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Name() string {
	return "redis"
}

// Channel returns the channel events with key are published to
func (p *RedisPublisher) Channel(key string) string {
	return p.channel + ":" + key
}

// Publish sends data to the channel "{prefix}:{key}"
func (p *RedisPublisher) Publish(ctx context.Context, key string, data []byte) error {
	channel := p.Channel(key)
	result := p.client.Publish(ctx, channel, data)
	if err := result.Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}

	logger.Debug().
		Str("channel", channel).
		Int64("subscribers", result.Val()).
		Msg("published event to redis")
	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
