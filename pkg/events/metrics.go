// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"github.com/LeeDigitalWorks/bucketvault/pkg/debug"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// EventsEmittedTotal tracks events handed to publishers by event name
	EventsEmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bucketvault",
		Subsystem: "events",
		Name:      "emitted_total",
		Help:      "Total number of bucket events emitted",
	}, []string{"event_name"})

	// EventsDroppedTotal tracks events dropped because no publisher is configured
	EventsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bucketvault",
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Total number of bucket events dropped (emitter disabled)",
	})

	// EventsDeliveredTotal tracks events delivered by publisher
	EventsDeliveredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bucketvault",
		Subsystem: "events",
		Name:      "delivered_total",
		Help:      "Total number of bucket events delivered to publishers",
	}, []string{"publisher"}) // publisher: "redis", "kafka"

	// EventsDeliveryErrorsTotal tracks delivery errors by publisher
	EventsDeliveryErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bucketvault",
		Subsystem: "events",
		Name:      "delivery_errors_total",
		Help:      "Total number of bucket event delivery errors",
	}, []string{"publisher"})

	// EventsDeliveryDuration tracks delivery latency by publisher
	EventsDeliveryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bucketvault",
		Subsystem: "events",
		Name:      "delivery_duration_seconds",
		Help:      "Time spent delivering events to publishers",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"publisher"})
)

func init() {
	debug.Registry().MustRegister(
		EventsEmittedTotal,
		EventsDroppedTotal,
		EventsDeliveredTotal,
		EventsDeliveryErrorsTotal,
		EventsDeliveryDuration,
	)
}
