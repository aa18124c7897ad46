// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleRate(t *testing.T) {
	orig := Env
	t.Cleanup(func() { Env = orig })

	tests := []struct {
		env  string
		want float64
	}{
		{Production, 1.0},
		{Testing, 0},
		{Local, 0.1},
		{"staging", 0.1},
	}
	for _, tt := range tests {
		Env = tt.env
		assert.Equal(t, tt.want, SampleRate(), tt.env)
	}

	Env = Production
	assert.True(t, IsProduction())
	assert.False(t, IsLocal())
	assert.False(t, IsTesting())
}
