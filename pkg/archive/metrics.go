// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"github.com/LeeDigitalWorks/bucketvault/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TransfersTotal tracks bucket transfers by format and status
	TransfersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bucketvault",
		Subsystem: "archive",
		Name:      "transfers_total",
		Help:      "Total number of bucket transfers to the archive",
	}, []string{"format", "status"}) // status: "ok", "overwrite", "not_found", "failed"

	// TransferDuration tracks how long a single transfer takes
	TransferDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bucketvault",
		Subsystem: "archive",
		Name:      "transfer_duration_seconds",
		Help:      "Time spent transferring buckets to the archive",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300, 900},
	}, []string{"format"})

	// RunsTotal tracks archiver runs by outcome
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bucketvault",
		Subsystem: "archive",
		Name:      "runs_total",
		Help:      "Total number of bucket archiver runs",
	}, []string{"status"}) // status: "ok", "failed", "lock_lost"

	// LockCleanupFailures counts runs whose lock could not be cleaned up
	LockCleanupFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bucketvault",
		Subsystem: "archive",
		Name:      "lock_cleanup_failures_total",
		Help:      "Total number of failed lock cleanups after a run",
	})
)

func init() {
	debug.Registry().MustRegister(
		TransfersTotal,
		TransferDuration,
		RunsTotal,
		LockCleanupFailures,
	)
}
