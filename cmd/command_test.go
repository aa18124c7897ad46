// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/LeeDigitalWorks/bucketvault/pkg/archivefs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The commands share utils.ConfigurationFileDirectory, so these tests do
// not run in parallel.

const testBucket = "db_1700003600_1700000000_7"

type cliEnv struct {
	root     string
	archive  string
	thawDir  string
	indexDir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	root := t.TempDir()
	env := &cliEnv{
		root:     root,
		archive:  filepath.Join(root, "archive"),
		thawDir:  filepath.Join(root, "thawed"),
		indexDir: filepath.Join(root, "indexes", "main", "db"),
	}
	require.NoError(t, os.MkdirAll(env.indexDir, 0755))

	conf := fmt.Sprintf("thaw_locations:\n  main: %s\n", env.thawDir)
	require.NoError(t, os.WriteFile(filepath.Join(root, "bucketvault.yaml"), []byte(conf), 0644))
	return env
}

func (e *cliEnv) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	full := append([]string{
		args[0],
		"--config_dir", e.root,
		"--archive_root", archivefs.LocalURI(e.archive),
		"--cluster_name", "cluster1",
		"--server_name", "server1",
		"--safe_location", filepath.Join(e.root, "safe"),
		"--tmp_dir", filepath.Join(e.root, "tmp"),
	}, args[1:]...)

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (e *cliEnv) makeBucket(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(e.indexDir, name)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "rawdata"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rawdata", "journal"), []byte("event one\nevent two\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Hosts.data"), []byte("hosts"), 0644))
	return dir
}

// =============================================================================
// Freeze exit codes
// =============================================================================

func TestFreeze_ExitCodes(t *testing.T) {
	env := newCLIEnv(t)
	file := filepath.Join(env.root, "plain-file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "missing argument", args: []string{"freeze"}, want: ExitMissingArg},
		{name: "too many arguments", args: []string{"freeze", "a", "b"}, want: ExitTooManyArgs},
		{name: "not a directory", args: []string{"freeze", file}, want: ExitNotDirectory},
		{name: "does not exist", args: []string{"freeze", filepath.Join(env.root, "nope")}, want: ExitNotDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := env.run(t, tt.args...)
			assert.Equal(t, tt.want, code)
			assert.Contains(t, stderr, "Error:")
		})
	}
}

func TestFreeze_InvalidConfig(t *testing.T) {
	env := newCLIEnv(t)
	dir := env.makeBucket(t, testBucket)

	code, _, stderr := env.run(t, "freeze", dir, "--archive_format", "PARQUET")
	assert.Equal(t, ExitArchiveFailed, code)
	assert.Contains(t, stderr, "archive_format")
	assert.DirExists(t, dir, "bucket must stay in place when nothing was attempted")
}

// =============================================================================
// Freeze, list and thaw round trip
// =============================================================================

func TestFreezeListThaw(t *testing.T) {
	env := newCLIEnv(t)
	dir := env.makeBucket(t, testBucket)

	code, _, stderr := env.run(t, "freeze", dir)
	require.Equal(t, ExitOK, code, stderr)

	assert.NoDirExists(t, dir)
	archived := filepath.Join(env.archive, "archive_data", "cluster1", "server1", "main", testBucket, "SPLUNK_BUCKET")
	assert.FileExists(t, filepath.Join(archived, "rawdata", "journal"))
	assert.NoDirExists(t, filepath.Join(env.root, "safe", "main", testBucket))

	code, stdout, stderr := env.run(t, "list")
	require.Equal(t, ExitOK, code, stderr)
	assert.Equal(t, "main\n", stdout)

	code, stdout, stderr = env.run(t, "list", "--index", "main")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, testBucket)
	assert.Contains(t, stdout, "SPLUNK_BUCKET")

	code, stdout, stderr = env.run(t, "thaw", "--index", "main", "--dry_run")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, testBucket)
	assert.NoDirExists(t, env.thawDir)

	code, stdout, stderr = env.run(t, "thaw", "--index", "main")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "thawed")
	data, err := os.ReadFile(filepath.Join(env.thawDir, testBucket, "rawdata", "journal"))
	require.NoError(t, err)
	assert.Equal(t, "event one\nevent two\n", string(data))

	code, stdout, stderr = env.run(t, "thaw", "--index", "main")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "skipped")
}

func TestFreeze_SecondCopyKeepsArchive(t *testing.T) {
	env := newCLIEnv(t)

	code, _, stderr := env.run(t, "freeze", env.makeBucket(t, testBucket))
	require.Equal(t, ExitOK, code, stderr)

	// The same bucket handed over again must not replace the archived copy.
	again := env.makeBucket(t, testBucket)
	require.NoError(t, os.WriteFile(filepath.Join(again, "Hosts.data"), []byte("changed"), 0644))
	code, _, _ = env.run(t, "freeze", again)
	assert.Equal(t, ExitArchiveFailed, code)

	archived := filepath.Join(env.archive, "archive_data", "cluster1", "server1", "main", testBucket, "SPLUNK_BUCKET")
	data, err := os.ReadFile(filepath.Join(archived, "Hosts.data"))
	require.NoError(t, err)
	assert.Equal(t, "hosts", string(data))
}

func TestFreeze_CSVFormat(t *testing.T) {
	env := newCLIEnv(t)

	code, _, stderr := env.run(t, "freeze", env.makeBucket(t, testBucket), "--archive_format", "CSV")
	require.Equal(t, ExitOK, code, stderr)

	archived := filepath.Join(env.archive, "archive_data", "cluster1", "server1", "main", testBucket, "CSV")
	assert.FileExists(t, filepath.Join(archived, testBucket+".csv"))
	entries, err := os.ReadDir(filepath.Join(env.root, "tmp"))
	if err == nil {
		assert.Empty(t, entries, "exported copies are removed")
	}
}

// =============================================================================
// Thaw and list
// =============================================================================

func TestThaw_RequiresIndex(t *testing.T) {
	env := newCLIEnv(t)

	code, _, stderr := env.run(t, "thaw")
	assert.Equal(t, ExitMissingArg, code)
	assert.Contains(t, stderr, "--index")
}

func TestThaw_BadTime(t *testing.T) {
	env := newCLIEnv(t)

	code, _, stderr := env.run(t, "thaw", "--index", "main", "--from", "yesterday")
	assert.Equal(t, ExitMissingArg, code)
	assert.Contains(t, stderr, "--from")
}

func TestList_EmptyArchive(t *testing.T) {
	env := newCLIEnv(t)

	code, stdout, stderr := env.run(t, "list")
	require.Equal(t, ExitOK, code, stderr)
	assert.Empty(t, stdout)
}

// =============================================================================
// Version
// =============================================================================

func TestVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"version"}, &stdout, &stderr)

	require.Equal(t, ExitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "bucketvault "+Version)
	assert.Equal(t, Version, VersionInfo()["version"])
}
