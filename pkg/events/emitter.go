// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/LeeDigitalWorks/bucketvault/pkg/logger"
	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
)

// Publisher delivers encoded events to one destination
type Publisher interface {
	// Name returns the publisher identifier used in metrics
	Name() string

	// Publish sends data. key groups events that must stay in order.
	Publish(ctx context.Context, key string, data []byte) error

	Close() error
}

// Emitter publishes bucket events to every configured publisher.
// A nil *Emitter is valid and drops all events.
type Emitter struct {
	publishers []Publisher
	cluster    string
	server     string

	// Sequencer state - monotonic counter for event ordering
	sequencer atomic.Uint64
}

// NewEmitter creates an emitter stamping events with cluster and server
func NewEmitter(cluster, server string, publishers ...Publisher) *Emitter {
	return &Emitter{
		publishers: publishers,
		cluster:    cluster,
		server:     server,
	}
}

// NewEmitterFromConfig connects the publishers enabled in cfg. A disabled
// config yields an emitter that drops everything.
func NewEmitterFromConfig(cfg types.EventsConfig, cluster, server string) (*Emitter, error) {
	if !cfg.Enabled {
		return NoopEmitter(), nil
	}

	var pubs []Publisher
	closeAll := func() {
		for _, p := range pubs {
			p.Close()
		}
	}

	if cfg.Redis.Enabled {
		p, err := NewRedisPublisher(cfg.Redis)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, p)
	}
	if cfg.Kafka.Enabled {
		p, err := NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			closeAll()
			return nil, err
		}
		pubs = append(pubs, p)
	}
	return NewEmitter(cluster, server, pubs...), nil
}

// NoopEmitter returns an emitter that drops all events
func NoopEmitter() *Emitter {
	return &Emitter{}
}

// IsEnabled returns whether any publisher will receive events
func (e *Emitter) IsEnabled() bool {
	return e != nil && len(e.publishers) > 0
}

// Emit stamps ev and publishes it to every publisher. Errors are logged,
// counted and otherwise ignored.
func (e *Emitter) Emit(ctx context.Context, ev *Event) {
	if !e.IsEnabled() {
		EventsDroppedTotal.Inc()
		return
	}

	if ev.Sequencer == "" {
		ev.Sequencer = e.nextSequencer()
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	ev.Cluster = e.cluster
	ev.Server = e.server

	data, err := ev.Marshal()
	if err != nil {
		logger.Warn().Err(err).Str("event", string(ev.Name)).Msg("failed to marshal bucket event")
		return
	}

	EventsEmittedTotal.WithLabelValues(string(ev.Name)).Inc()
	for _, p := range e.publishers {
		start := time.Now()
		if err := p.Publish(ctx, ev.Key(), data); err != nil {
			EventsDeliveryErrorsTotal.WithLabelValues(p.Name()).Inc()
			logger.Warn().
				Err(err).
				Str("publisher", p.Name()).
				Str("event", string(ev.Name)).
				Str("index", ev.Index).
				Str("bucket", ev.Bucket).
				Msg("failed to publish bucket event")
			continue
		}
		EventsDeliveredTotal.WithLabelValues(p.Name()).Inc()
		EventsDeliveryDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
	}
}

// EmitArchived reports bucket stored at uri
func (e *Emitter) EmitArchived(ctx context.Context, bucket types.Bucket, uri string, size int64) {
	if !e.IsEnabled() {
		EventsDroppedTotal.Inc()
		return
	}
	ev := NewBucketEvent(BucketArchived, bucket)
	ev.URI = uri
	ev.Size = size
	e.Emit(ctx, ev)
}

// EmitArchiveFailed reports a failed transfer of bucket to uri
func (e *Emitter) EmitArchiveFailed(ctx context.Context, bucket types.Bucket, uri string, cause error) {
	if !e.IsEnabled() {
		EventsDroppedTotal.Inc()
		return
	}
	ev := NewBucketEvent(BucketArchiveFailed, bucket)
	ev.URI = uri
	if cause != nil {
		ev.Error = cause.Error()
	}
	e.Emit(ctx, ev)
}

// EmitThawed reports the archived bucket downloaded into dir
func (e *Emitter) EmitThawed(ctx context.Context, bucket types.Bucket, dir string, size int64) {
	if !e.IsEnabled() {
		EventsDroppedTotal.Inc()
		return
	}
	ev := NewBucketEvent(BucketThawed, bucket)
	ev.Directory = dir
	ev.Size = size
	e.Emit(ctx, ev)
}

// Close closes every publisher
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	var errs []error
	for _, p := range e.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// nextSequencer generates a unique, monotonically increasing sequencer value.
// Format: hex(timestamp_ms) + hex(counter) + random_suffix
func (e *Emitter) nextSequencer() string {
	ts := time.Now().UnixMilli()
	seq := e.sequencer.Add(1)

	suffix := make([]byte, 4)
	rand.Read(suffix)

	return hex.EncodeToString([]byte{
		byte(ts >> 40), byte(ts >> 32), byte(ts >> 24), byte(ts >> 16),
		byte(ts >> 8), byte(ts),
		byte(seq >> 8), byte(seq),
	}) + hex.EncodeToString(suffix)
}
