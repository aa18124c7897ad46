// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Bucket
// =============================================================================

func TestNewBucket_DerivesFormat(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	native := filepath.Join(root, "db_20_10_1")
	require.NoError(t, os.MkdirAll(filepath.Join(native, RawdataDir), 0755))
	other := filepath.Join(root, "db_20_10_2")
	require.NoError(t, os.MkdirAll(other, 0755))

	b, err := NewBucket("main", native)
	require.NoError(t, err)
	assert.Equal(t, FormatSplunkBucket, b.Format())
	assert.Equal(t, "db_20_10_1", b.Name())
	assert.Equal(t, native, b.Directory())
	assert.Empty(t, b.URI())
	assert.False(t, b.IsRemote())

	b, err = NewBucket("main", other)
	require.NoError(t, err)
	assert.Equal(t, FormatUnknown, b.Format())
}

func TestNewRemoteBucket(t *testing.T) {
	t.Parallel()

	b, err := NewRemoteBucket("main", "db_20_10_1", "s3://archive/x/CSV", FormatCSV)
	require.NoError(t, err)
	assert.True(t, b.IsRemote())
	assert.Equal(t, "s3://archive/x/CSV", b.URI())
	assert.Empty(t, b.Directory())
	assert.Equal(t, "main/db_20_10_1[CSV]@s3://archive/x/CSV", b.String())
}

func TestBucket_InvalidSegments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		index string
		bkt   string
	}{
		{"empty index", "", "db_1_0_1"},
		{"dot index", "..", "db_1_0_1"},
		{"slash in name", "main", "a/b"},
		{"backslash in index", `a\b`, "db_1_0_1"},
		{"empty name", "main", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRemoteBucket(tt.index, tt.bkt, "mem://x", FormatUnknown)
			assert.ErrorIs(t, err, ErrInvalidBucket)
		})
	}
}

func TestBucket_WithersCopy(t *testing.T) {
	t.Parallel()

	orig, err := NewRemoteBucket("main", "db_1_0_1", "mem://a", FormatUnknown)
	require.NoError(t, err)

	local := orig.WithDirectory("/tmp/x").WithFormat(FormatCSV)
	assert.Equal(t, "/tmp/x", local.Directory())
	assert.Equal(t, FormatCSV, local.Format())

	remote := local.WithURI("mem://b")
	assert.Equal(t, "mem://b", remote.URI())

	assert.Equal(t, "mem://a", orig.URI(), "original is unchanged")
	assert.Equal(t, FormatUnknown, orig.Format())
}

// =============================================================================
// BucketFormat
// =============================================================================

func TestParseBucketFormat(t *testing.T) {
	t.Parallel()

	f, ok := ParseBucketFormat("SPLUNK_BUCKET")
	assert.True(t, ok)
	assert.Equal(t, FormatSplunkBucket, f)

	f, ok = ParseBucketFormat("CSV")
	assert.True(t, ok)
	assert.Equal(t, FormatCSV, f)

	for _, s := range []string{"UNKNOWN", "csv", "", "PARQUET"} {
		f, ok = ParseBucketFormat(s)
		assert.False(t, ok, s)
		assert.Equal(t, FormatUnknown, f, s)
	}
}

// =============================================================================
// BucketName
// =============================================================================

func TestParseBucketName(t *testing.T) {
	t.Parallel()

	bn, err := ParseBucketName("db_1700003600_1700000000_7")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1700003600, 0).UTC(), bn.Latest)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), bn.Earliest)
	assert.Equal(t, "7", bn.ID)
	assert.False(t, bn.Replicated)

	bn, err = ParseBucketName("rb_20_10_3_5F0B1C2D-0000-4000-8000-000000000000")
	require.NoError(t, err)
	assert.True(t, bn.Replicated)
	assert.Equal(t, "3_5F0B1C2D-0000-4000-8000-000000000000", bn.ID)

	for _, name := range []string{"hot_v1_1", "db_x_10_1", "db_20_y_1", "db_10_20_1", "xx_20_10_1", "db_20_10"} {
		_, err := ParseBucketName(name)
		assert.Error(t, err, name)
	}
}

func TestBucketName_Overlaps(t *testing.T) {
	t.Parallel()

	bn := BucketName{Earliest: time.Unix(100, 0), Latest: time.Unix(200, 0)}
	at := func(s int64) time.Time { return time.Unix(s, 0) }

	assert.True(t, bn.Overlaps(time.Time{}, time.Time{}))
	assert.True(t, bn.Overlaps(at(150), at(160)))
	assert.True(t, bn.Overlaps(at(200), time.Time{}), "inclusive upper edge")
	assert.True(t, bn.Overlaps(time.Time{}, at(100)), "inclusive lower edge")
	assert.False(t, bn.Overlaps(at(201), time.Time{}))
	assert.False(t, bn.Overlaps(time.Time{}, at(99)))
}

// =============================================================================
// ArchiveConfig
// =============================================================================

func loadWith(t *testing.T, set map[string]any) (*ArchiveConfig, error) {
	t.Helper()
	v := viper.New()
	SetArchiveDefaults(v)
	for k, val := range set {
		v.Set(k, val)
	}
	return LoadArchiveConfig(v)
}

func TestLoadArchiveConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := loadWith(t, nil)
	require.NoError(t, err)
	assert.Equal(t, FormatSplunkBucket, cfg.ArchiveFormat())
	assert.Equal(t, StorageTypeLocal, cfg.Storage.Type)
	assert.Equal(t, LockTypeFile, cfg.Lock.Type)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "default", cfg.ClusterName)
}

func TestLoadArchiveConfig_NormalizesFormat(t *testing.T) {
	t.Parallel()

	cfg, err := loadWith(t, map[string]any{"archive_format": "csv"})
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, cfg.Format)
}

func TestLoadArchiveConfig_UnknownFormatAllowed(t *testing.T) {
	t.Parallel()

	cfg, err := loadWith(t, map[string]any{"archive_format": "unknown"})
	require.NoError(t, err)
	assert.Equal(t, FormatUnknown, cfg.Format)
}

func TestLoadArchiveConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		set   map[string]any
		field string
	}{
		{"bad format", map[string]any{"archive_format": "parquet"}, "archive_format"},
		{"no scheme", map[string]any{"archive_root": "/var/archive"}, "archive_root"},
		{"scheme mismatch", map[string]any{"archive_root": "s3://bucket/prefix"}, "archive_root"},
		{"cluster with slash", map[string]any{"cluster_name": "a/b"}, "cluster_name"},
		{"blank server", map[string]any{"server_name": " "}, "server_name"},
		{"unknown storage", map[string]any{"storage.type": "tape"}, "storage.type"},
		{"redis without addr", map[string]any{"lock.type": "redis"}, "lock.redis_addr"},
		{"unknown lock", map[string]any{"lock.type": "zookeeper"}, "lock.type"},
		{"negative rate", map[string]any{"requests_per_second": -1}, "requests_per_second"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadWith(t, tt.set)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidateArchiveConfig_ConcurrencyWarning(t *testing.T) {
	t.Parallel()

	cfg, err := loadWith(t, map[string]any{"concurrency": 0})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Concurrency)

	res := ValidateArchiveConfig(&ArchiveConfig{
		Format:      FormatCSV,
		ArchiveRoot: "mem://archive",
		ClusterName: "c",
		ServerName:  "s",
		Storage:     StorageConfig{Type: StorageTypeMemory},
		Lock:        LockConfig{Type: LockTypeFile},
	})
	assert.True(t, res.Valid)
	assert.Len(t, res.Warnings, 1)
	assert.NoError(t, res.Err())
}
