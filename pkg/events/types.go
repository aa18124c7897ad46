// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

// Package events publishes bucket lifecycle notifications.
//
// An Emitter fans each event out to the configured publishers (Redis
// Pub/Sub, Kafka). Publishing is best effort: failures are logged and
// counted but never fail the archive or thaw operation that raised them.
package events

import (
	"encoding/json"
	"time"

	"github.com/LeeDigitalWorks/bucketvault/pkg/types"
)

// EventName categorizes bucket events
type EventName string

const (
	BucketArchived      EventName = "bucket:Archived"
	BucketArchiveFailed EventName = "bucket:ArchiveFailed"
	BucketThawed        EventName = "bucket:Thawed"
)

// Event is the JSON document published for every bucket event
type Event struct {
	Version   string    `json:"eventVersion"`
	Name      EventName `json:"eventName"`
	Time      time.Time `json:"eventTime"`
	Sequencer string    `json:"sequencer"`

	Cluster string `json:"cluster"`
	Server  string `json:"server"`

	Index  string             `json:"index"`
	Bucket string             `json:"bucket"`
	Format types.BucketFormat `json:"format"`

	// URI is the archive location of the bucket
	URI string `json:"uri,omitempty"`

	// Directory is the local directory, the source when archiving and the
	// destination when thawing
	Directory string `json:"directory,omitempty"`

	Size  int64  `json:"size,omitempty"`
	Error string `json:"error,omitempty"`
}

const eventVersion = "1.0"

// NewBucketEvent creates an event describing bucket
func NewBucketEvent(name EventName, bucket types.Bucket) *Event {
	ev := &Event{
		Version: eventVersion,
		Name:    name,
		Index:   bucket.Index(),
		Bucket:  bucket.Name(),
		Format:  bucket.Format(),
	}
	if bucket.IsRemote() {
		ev.URI = bucket.URI()
	} else {
		ev.Directory = bucket.Directory()
	}
	return ev
}

// Marshal encodes the event as JSON
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Key is the partitioning key of the event. Events of one index stay in order.
func (e *Event) Key() string {
	return e.Index
}
