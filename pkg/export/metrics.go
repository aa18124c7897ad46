// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"github.com/LeeDigitalWorks/bucketvault/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bucketvault",
			Subsystem: "export",
			Name:      "conversions_total",
			Help:      "Bucket conversions by target format and outcome",
		},
		[]string{"format", "status"}, // status: ok, error
	)

	eventsExported = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bucketvault",
			Subsystem: "export",
			Name:      "events_total",
			Help:      "Raw events written by converters",
		},
		[]string{"format"},
	)
)

func init() {
	debug.Registry().MustRegister(conversionsTotal, eventsExported)
}
