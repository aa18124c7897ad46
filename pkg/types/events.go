// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package types

import "time"

// EventsConfig configures bucket lifecycle notifications
type EventsConfig struct {
	// Enabled controls whether events are published at all
	Enabled bool `mapstructure:"enabled"`

	Redis EventsRedisConfig `mapstructure:"redis"`
	Kafka EventsKafkaConfig `mapstructure:"kafka"`
}

// EventsRedisConfig holds Redis Pub/Sub publisher settings.
// Events are published to "{channel}:{index}".
type EventsRedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`

	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// EventsKafkaConfig holds Kafka publisher settings
type EventsKafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`

	// RequiredAcks: 0=none, 1=leader, -1=all
	RequiredAcks int `mapstructure:"required_acks"`

	// Compression: "none", "gzip", "snappy", "lz4", "zstd"
	Compression string `mapstructure:"compression"`

	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	TLS           bool   `mapstructure:"tls"`
	TLSSkipVerify bool   `mapstructure:"tls_skip_verify"`
	SASLMechanism string `mapstructure:"sasl_mechanism"` // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512; empty disables SASL
	SASLUsername  string `mapstructure:"sasl_username"`
	SASLPassword  string `mapstructure:"sasl_password"`
}

// HasPublishers returns true if events are enabled with at least one publisher
func (c EventsConfig) HasPublishers() bool {
	return c.Enabled && (c.Redis.Enabled || c.Kafka.Enabled)
}
