// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package thaw

import (
	"github.com/LeeDigitalWorks/bucketvault/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	resolvedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bucketvault",
		Subsystem: "thaw",
		Name:      "resolved_buckets_total",
		Help:      "Buckets resolved against the archive by chosen format",
	}, []string{"format"})

	thawedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bucketvault",
		Subsystem: "thaw",
		Name:      "thawed_buckets_total",
		Help:      "Buckets thawed by status",
	}, []string{"status"}) // status: "ok", "failed", "skipped"

	thawedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bucketvault",
		Subsystem: "thaw",
		Name:      "thawed_bytes_total",
		Help:      "Bytes written to thaw locations",
	})
)

func init() {
	debug.Registry().MustRegister(resolvedTotal, thawedTotal, thawedBytes)
}
