// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/LeeDigitalWorks/bucketvault/pkg/bucketlock"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFreezer(env *testEnv, format types.BucketFormat) *Freezer {
	locker, _ := bucketlock.NewLocker(types.LockConfig{Type: types.LockTypeFile})
	return NewFreezer(FreezerConfig{
		SafeLocation: filepath.Join(env.root, "safe"),
		Concurrency:  4,
		Archiver:     env.archiver(format),
		Locks:        locker,
	})
}

func TestIndexFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dir      string
		expected string
	}{
		{"/opt/splunk/var/lib/splunk/main/db/db_2_1_0", "main"},
		{"/opt/splunk/var/lib/splunk/web/colddb/db_2_1_0/", "web"},
		{"/data/idx2/db_2_1_0", "idx2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, IndexFromPath(tt.dir), tt.dir)
	}
}

func TestFreezeBucket_MovesAndArchives(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	b := env.nativeBucket(t, "idx1", "b1")
	f := newTestFreezer(env, types.FormatSplunkBucket)

	require.NoError(t, f.FreezeBucket(context.Background(), b.Directory(), ""))

	assert.NoDirExists(t, b.Directory(), "indexer copy moved away")
	assert.NoDirExists(t, filepath.Join(env.root, "safe", "idx1", "b1"), "safe copy removed after archiving")
	assert.NoFileExists(t, filepath.Join(env.root, "safe", "idx1", ".idx1_b1.lock"))
	assert.FileExists(t, filepath.Join(env.archivedPath("idx1", "b1", types.FormatSplunkBucket), types.RawdataDir, "journal"))
}

func TestFreezeBucket_NotDirectory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	f := newTestFreezer(env, types.FormatSplunkBucket)

	file := filepath.Join(env.root, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.ErrorIs(t, f.FreezeBucket(context.Background(), file, ""), ErrNotDirectory)
	assert.ErrorIs(t, f.FreezeBucket(context.Background(), filepath.Join(env.root, "missing"), ""), ErrNotDirectory)
}

func TestFreezeBucket_FailureKeepsSafeCopy(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	b := env.nativeBucket(t, "idx1", "b1")
	require.NoError(t, os.MkdirAll(env.archivedPath("idx1", "b1", types.FormatSplunkBucket), 0755))
	f := newTestFreezer(env, types.FormatSplunkBucket)

	err := f.FreezeBucket(context.Background(), b.Directory(), "")
	assert.ErrorIs(t, err, ErrTransferFailed)

	safe := filepath.Join(env.root, "safe", "idx1", "b1")
	assert.DirExists(t, safe)
	assert.NoFileExists(t, filepath.Join(env.root, "safe", "idx1", ".idx1_b1.lock"))

	// A second freeze of the same name finds the safe copy
	again := env.nativeBucket(t, "idx1", "b1")
	assert.ErrorIs(t, f.FreezeBucket(context.Background(), again.Directory(), ""), ErrAlreadyFrozen)
}

func TestFreezeBucket_LockedElsewhere(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	f := newTestFreezer(env, types.FormatSplunkBucket)

	safe := filepath.Join(env.root, "safe", "idx1", "b1")
	require.NoError(t, os.MkdirAll(filepath.Join(safe, types.RawdataDir), 0755))
	held, err := types.NewBucket("idx1", safe)
	require.NoError(t, err)
	other := lockBucket(t, held)
	defer func() {
		other.DeleteLockFile(context.Background())
		other.Close()
	}()

	err = f.archiveAt(context.Background(), "idx1", safe)
	assert.ErrorIs(t, err, ErrBucketLocked)
	assert.DirExists(t, safe)

	// Recovery skips busy buckets
	assert.NoError(t, f.RecoverSafeLocation(context.Background()))
	assert.DirExists(t, safe)
}

func TestFreezeAll_Concurrent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	f := newTestFreezer(env, types.FormatSplunkBucket)

	var dirs []string
	for i := 0; i < 10; i++ {
		b := env.nativeBucket(t, "idx1", fmt.Sprintf("db_%d_%d_%d", 200+i, 100+i, i))
		dirs = append(dirs, b.Directory())
	}
	dirs = append(dirs, filepath.Join(env.root, "missing"))

	err := f.FreezeAll(context.Background(), dirs, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotDirectory)

	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("db_%d_%d_%d", 200+i, 100+i, i)
		assert.DirExists(t, env.archivedPath("idx1", name, types.FormatSplunkBucket))
	}
}

func TestRecoverSafeLocation(t *testing.T) {
	t.Parallel()
	if runtime.GOOS != "linux" {
		t.Skip("stale sentinels only become lockable again with flock")
	}

	env := newTestEnv(t)
	f := newTestFreezer(env, types.FormatSplunkBucket)

	// Leftover from an interrupted run, including its stale sentinel
	safe := filepath.Join(env.root, "safe", "idx1", "b1")
	require.NoError(t, os.MkdirAll(filepath.Join(safe, types.RawdataDir), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(env.root, "safe", "idx1", ".idx1_b1.lock"), []byte("4242\n"), 0644))

	require.NoError(t, f.RecoverSafeLocation(context.Background()))
	assert.NoDirExists(t, safe)
	assert.DirExists(t, env.archivedPath("idx1", "b1", types.FormatSplunkBucket))
}

func TestRecoverSafeLocation_Empty(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	f := newTestFreezer(env, types.FormatSplunkBucket)
	assert.NoError(t, f.RecoverSafeLocation(context.Background()))
}
