// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"os"
	"path/filepath"
)

// BucketFormat identifies the on-disk representation of a bucket.
// The string value doubles as the archive directory name of that variant.
type BucketFormat string

const (
	FormatSplunkBucket BucketFormat = "SPLUNK_BUCKET" // Native indexer layout
	FormatCSV          BucketFormat = "CSV"           // Events exported to a single CSV file
	FormatUnknown      BucketFormat = "UNKNOWN"
)

// RawdataDir is the marker directory of a native bucket.
const RawdataDir = "rawdata"

// IsValid returns true for formats that can exist in the archive
func (f BucketFormat) IsValid() bool {
	switch f {
	case FormatSplunkBucket, FormatCSV:
		return true
	default:
		return false
	}
}

func (f BucketFormat) String() string {
	return string(f)
}

// ParseBucketFormat parses an archive directory name into a format.
// Returns FormatUnknown and false for anything unrecognized, including
// the literal "UNKNOWN".
func ParseBucketFormat(s string) (BucketFormat, bool) {
	f := BucketFormat(s)
	if f.IsValid() {
		return f, true
	}
	return FormatUnknown, false
}

// FormatFromDirectory infers the format of a local bucket directory.
func FormatFromDirectory(dir string) BucketFormat {
	if _, err := os.Stat(filepath.Join(dir, RawdataDir)); err == nil {
		return FormatSplunkBucket
	}
	return FormatUnknown
}
