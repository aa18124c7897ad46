// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ArchiveConfiguration is the process-wide archive policy consulted by the
// exporter. It never owns buckets.
type ArchiveConfiguration interface {
	ArchiveFormat() BucketFormat
}

// ArchiveConfig is the full configuration of an archiver process
type ArchiveConfig struct {
	Format      BucketFormat `mapstructure:"archive_format"`
	ArchiveRoot string       `mapstructure:"archive_root"`
	ClusterName string       `mapstructure:"cluster_name"`
	ServerName  string       `mapstructure:"server_name"`

	// TmpDir holds exported copies of buckets until they are transferred.
	TmpDir string `mapstructure:"tmp_dir"`

	// SafeLocation receives buckets handed over by the indexer before they
	// are archived, so the indexer may delete its own copy right away.
	SafeLocation string `mapstructure:"safe_location"`

	Concurrency int `mapstructure:"concurrency"`

	// RequestsPerSecond caps archive listing and download requests made
	// while thawing. Zero means unlimited.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	MetricsFile   string            `mapstructure:"metrics_file"`
	Storage       StorageConfig     `mapstructure:"storage"`
	Lock          LockConfig        `mapstructure:"lock"`
	ThawLocations map[string]string `mapstructure:"thaw_locations"`
	Events        EventsConfig      `mapstructure:"events"`
}

// ArchiveFormat implements ArchiveConfiguration
func (c *ArchiveConfig) ArchiveFormat() BucketFormat {
	return c.Format
}

// SetArchiveDefaults registers default values on v
func SetArchiveDefaults(v *viper.Viper) {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "localhost"
	}

	v.SetDefault("archive_format", string(FormatSplunkBucket))
	v.SetDefault("archive_root", "file://"+filepath.Join(os.TempDir(), "bucketvault", "archive"))
	v.SetDefault("cluster_name", "default")
	v.SetDefault("server_name", hostname)
	v.SetDefault("tmp_dir", filepath.Join(os.TempDir(), "bucketvault", "tmp"))
	v.SetDefault("safe_location", filepath.Join(os.TempDir(), "bucketvault", "safe"))
	v.SetDefault("concurrency", 4)
	v.SetDefault("storage.type", string(StorageTypeLocal))
	v.SetDefault("storage.compression", "zstd")
	v.SetDefault("lock.type", string(LockTypeFile))
	v.SetDefault("lock.key_prefix", "bucketvault:lock:")
	v.SetDefault("lock.ttl_seconds", 3600)
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.redis.channel", "bucketvault:events")
	v.SetDefault("events.redis.dial_timeout", "5s")
	v.SetDefault("events.kafka.topic", "bucketvault-events")
	v.SetDefault("events.kafka.required_acks", 1)
	v.SetDefault("events.kafka.compression", "snappy")
	v.SetDefault("events.kafka.write_timeout", "10s")
}

// LoadArchiveConfig unmarshals and validates the archive configuration
func LoadArchiveConfig(v *viper.Viper) (*ArchiveConfig, error) {
	var cfg ArchiveConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal archive config: %w", err)
	}
	cfg.Format = BucketFormat(strings.ToUpper(string(cfg.Format)))

	result := ValidateArchiveConfig(&cfg)
	if !result.Valid {
		return nil, result.Err()
	}
	return &cfg, nil
}

// ConfigValidationError represents a configuration validation error
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigValidationResult contains the results of configuration validation
type ConfigValidationResult struct {
	Valid    bool
	Errors   []ConfigValidationError
	Warnings []string
}

// AddError adds an error to the result
func (r *ConfigValidationResult) AddError(field, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ConfigValidationError{Field: field, Message: message})
}

// AddWarning adds a warning to the result
func (r *ConfigValidationResult) AddWarning(message string) {
	r.Warnings = append(r.Warnings, message)
}

// Err folds all validation errors into one error, or nil when valid
func (r *ConfigValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("invalid archive config: %s", strings.Join(msgs, "; "))
}

// ValidateArchiveConfig validates an archive configuration.
// An UNKNOWN archive format is left for the exporter to reject so that
// thaw-only processes can run without choosing one.
func ValidateArchiveConfig(cfg *ArchiveConfig) *ConfigValidationResult {
	result := &ConfigValidationResult{Valid: true}

	if !cfg.Format.IsValid() && cfg.Format != FormatUnknown {
		result.AddError("archive_format", fmt.Sprintf("unsupported format %q", cfg.Format))
	}

	u, err := url.Parse(cfg.ArchiveRoot)
	switch {
	case cfg.ArchiveRoot == "":
		result.AddError("archive_root", "archive root cannot be empty")
	case err != nil:
		result.AddError("archive_root", err.Error())
	case u.Scheme == "":
		result.AddError("archive_root", "archive root must be a URI with a scheme")
	}

	for field, v := range map[string]string{"cluster_name": cfg.ClusterName, "server_name": cfg.ServerName} {
		if strings.TrimSpace(v) == "" || strings.Contains(v, "/") {
			result.AddError(field, "must be a non-empty single path segment")
		}
	}

	scheme := ""
	if u != nil {
		scheme = u.Scheme
	}
	switch cfg.Storage.Type {
	case StorageTypeLocal:
		if scheme != "file" {
			result.AddError("archive_root", "local storage requires a file:// archive root")
		}
	case StorageTypeS3:
		if scheme != "s3" {
			result.AddError("archive_root", "s3 storage requires an s3:// archive root")
		}
	case StorageTypeMemory:
		if scheme != "mem" {
			result.AddError("archive_root", "memory storage requires a mem:// archive root")
		}
	default:
		result.AddError("storage.type", fmt.Sprintf("unknown storage type %q", cfg.Storage.Type))
	}

	switch cfg.Lock.Type {
	case LockTypeFile:
	case LockTypeRedis:
		if cfg.Lock.RedisAddr == "" {
			result.AddError("lock.redis_addr", "redis lock requires an address")
		}
	default:
		result.AddError("lock.type", fmt.Sprintf("unknown lock type %q", cfg.Lock.Type))
	}

	if cfg.Events.Enabled {
		if cfg.Events.Redis.Enabled && cfg.Events.Redis.Addr == "" {
			result.AddError("events.redis.addr", "redis publisher requires an address")
		}
		if cfg.Events.Kafka.Enabled && len(cfg.Events.Kafka.Brokers) == 0 {
			result.AddError("events.kafka.brokers", "kafka publisher requires at least one broker")
		}
		if !cfg.Events.HasPublishers() {
			result.AddWarning("events enabled without any publisher")
		}
	}

	if cfg.RequestsPerSecond < 0 {
		result.AddError("requests_per_second", "must not be negative")
	}

	if cfg.Concurrency <= 0 {
		result.AddWarning("concurrency <= 0, archiving buckets one at a time")
		cfg.Concurrency = 1
	}

	return result
}
