// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"github.com/LeeDigitalWorks/bucketvault/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// StreamsTotal tracks codec streams opened
	StreamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bucketvault",
			Subsystem: "compression",
			Name:      "streams_total",
			Help:      "Compression streams opened",
		},
		[]string{"algorithm", "operation"}, // operation: compress, decompress
	)
)

func init() {
	debug.Registry().MustRegister(StreamsTotal)
}

func recordStream(algo Algorithm, operation string) {
	if algo == "" {
		algo = None
	}
	StreamsTotal.WithLabelValues(algo.String(), operation).Inc()
}
