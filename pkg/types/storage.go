// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package types

// StorageType identifies the archive filesystem implementation
type StorageType string

const (
	StorageTypeLocal  StorageType = "local"  // Local or mounted filesystem, file:// URIs
	StorageTypeS3     StorageType = "s3"     // S3-compatible, s3:// URIs
	StorageTypeMemory StorageType = "memory" // In-process, mem:// URIs
)

// StorageConfig contains configuration for creating an archive filesystem
type StorageConfig struct {
	Type      StorageType `mapstructure:"type"`
	Endpoint  string      `mapstructure:"endpoint"`
	Region    string      `mapstructure:"region"`
	AccessKey string      `mapstructure:"access_key"`
	SecretKey string      `mapstructure:"secret_key"`

	// Compression codec used by backends that pack a bucket into one object.
	Compression string `mapstructure:"compression"`

	// TmpDir stages packed objects before upload. Defaults to os.TempDir().
	TmpDir string `mapstructure:"tmp_dir"`
}

// LockType identifies the bucket lock implementation
type LockType string

const (
	LockTypeFile  LockType = "file"
	LockTypeRedis LockType = "redis"
)

// LockConfig configures how bucket locks are taken
type LockConfig struct {
	Type LockType `mapstructure:"type"`

	// Dir holds file lock sentinels. Empty means the bucket's parent directory.
	Dir string `mapstructure:"dir"`

	// Redis lock settings
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	KeyPrefix     string `mapstructure:"key_prefix"`
	TTLSeconds    int    `mapstructure:"ttl_seconds"`
}
