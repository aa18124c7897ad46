// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

// Package context tags a command run with an ID carried through its context.
package context

import (
	"context"

	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"

	"github.com/google/uuid"
)

const (
	RunKey = "run_id"
)

type runID struct{}

// WithRunID returns ctx carrying a run ID, generating one if ctx has none
func WithRunID(c context.Context) (context.Context, string) {
	if id, ok := c.Value(runID{}).(string); ok {
		return c, id
	}
	newID := uuid.New().String()
	return context.WithValue(c, runID{}, newID), newID
}

// RunID returns the run ID of ctx, or ""
func RunID(c context.Context) string {
	id, _ := c.Value(runID{}).(string)
	return id
}

// WithRunLogger tags ctx with a run ID and stores a logger carrying it, so
// logger.Ctx(ctx) includes the ID on every line.
func WithRunLogger(c context.Context) (context.Context, string) {
	c, id := WithRunID(c)
	l := logger.Ctx(c).With().Str(RunKey, id).Logger()
	return logger.WithLogger(c, &l), id
}
