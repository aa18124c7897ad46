// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

// Package compression provides streaming codecs for bucket journals and
// packed archive objects. It supports gzip, ZSTD, LZ4 and S2 behind one
// reader/writer interface.
package compression

import (
	"path/filepath"
	"strings"
)

// Algorithm represents a compression algorithm
type Algorithm string

const (
	// None indicates no compression
	None Algorithm = "none"
	// Gzip is what indexers write journals with
	Gzip Algorithm = "gzip"
	// ZSTD uses the Zstandard compression algorithm (balanced speed/ratio)
	ZSTD Algorithm = "zstd"
	// LZ4 uses the LZ4 compression algorithm (fast, moderate ratio)
	LZ4 Algorithm = "lz4"
	// S2 uses klauspost's S2 compression (faster than Snappy, better ratio)
	S2 Algorithm = "s2"
)

var extensions = map[Algorithm]string{
	None: "",
	Gzip: ".gz",
	ZSTD: ".zst",
	LZ4:  ".lz4",
	S2:   ".s2",
}

// IsValid returns true if the algorithm is recognized
func (a Algorithm) IsValid() bool {
	_, ok := extensions[a]
	return ok
}

// String returns the string representation of the algorithm
func (a Algorithm) String() string {
	return string(a)
}

// Extension returns the file suffix for the algorithm, including the dot.
// None has no suffix.
func (a Algorithm) Extension() string {
	return extensions[a]
}

// ParseAlgorithm parses a string into an Algorithm.
// Returns None for empty or unrecognized strings.
func ParseAlgorithm(s string) Algorithm {
	algo := Algorithm(s)
	if algo.IsValid() {
		return algo
	}
	return None
}

// ForFile picks the algorithm from a file name's extension.
// Files without a known extension are treated as uncompressed.
func ForFile(name string) Algorithm {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return None
	}
	for algo, e := range extensions {
		if e == ext {
			return algo
		}
	}
	return None
}
