// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

// Package thaw finds archived buckets and brings them back to local disk.
package thaw

import (
	"sort"

	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
)

// DefaultPreference puts the native format ahead of converted ones
var DefaultPreference = []types.BucketFormat{
	types.FormatSplunkBucket,
	types.FormatCSV,
}

// FormatChooser picks one format out of the archived variants of a bucket
type FormatChooser struct {
	preference []types.BucketFormat
}

// NewFormatChooser creates a chooser with the given preference order.
// No arguments means DefaultPreference.
func NewFormatChooser(preference ...types.BucketFormat) *FormatChooser {
	if len(preference) == 0 {
		preference = DefaultPreference
	}
	return &FormatChooser{preference: preference}
}

// ChooseBucketFormat returns the most preferred format in formats. Formats
// outside the preference list are picked in sorted order so the result never
// depends on listing order. An empty set yields FormatUnknown.
func (c *FormatChooser) ChooseBucketFormat(formats []types.BucketFormat) types.BucketFormat {
	if len(formats) == 0 {
		return types.FormatUnknown
	}
	present := make(map[types.BucketFormat]bool, len(formats))
	for _, f := range formats {
		present[f] = true
	}
	for _, f := range c.preference {
		if present[f] {
			return f
		}
	}

	rest := make([]string, 0, len(present))
	for f := range present {
		rest = append(rest, string(f))
	}
	sort.Strings(rest)
	return types.BucketFormat(rest[0])
}
