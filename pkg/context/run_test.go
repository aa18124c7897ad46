// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"bytes"
	"context"
	"testing"

	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRunID(t *testing.T) {
	t.Parallel()

	ctx, id := WithRunID(context.Background())
	require.NotEmpty(t, id)
	assert.Equal(t, id, RunID(ctx))

	same, again := WithRunID(ctx)
	assert.Equal(t, id, again, "an existing id is kept")
	assert.Equal(t, id, RunID(same))

	assert.Empty(t, RunID(context.Background()))
}

func TestWithRunLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := zerolog.New(&buf)
	ctx := logger.WithLogger(context.Background(), &base)

	ctx, id := WithRunLogger(ctx)
	logger.Ctx(ctx).Info().Msg("hello")

	assert.Contains(t, buf.String(), `"run_id":"`+id+`"`)
}
