// Copyright 2025 BucketVault Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/LeeDigitalWorks/bucketvault/pkg/types"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	name string
	err  error

	mu   sync.Mutex
	keys []string
	data [][]byte
}

func (p *recordingPublisher) Name() string { return p.name }

func (p *recordingPublisher) Publish(_ context.Context, key string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.data = append(p.data, data)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) events(t *testing.T) []Event {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, 0, len(p.data))
	for _, d := range p.data {
		var ev Event
		require.NoError(t, json.Unmarshal(d, &ev))
		out = append(out, ev)
	}
	return out
}

func testBucket(t *testing.T) types.Bucket {
	t.Helper()
	b, err := types.NewBucketWithFormat("main", "/var/safe/main/db_20_10_1", types.FormatSplunkBucket)
	require.NoError(t, err)
	return b
}

// =============================================================================
// Emitter
// =============================================================================

func TestEmitter_Disabled(t *testing.T) {
	t.Parallel()

	var nilEmitter *Emitter
	assert.False(t, nilEmitter.IsEnabled())
	assert.False(t, NoopEmitter().IsEnabled())

	before := testutil.ToFloat64(EventsDroppedTotal)
	nilEmitter.EmitArchived(context.Background(), testBucket(t), "mem://a", 1)
	NoopEmitter().EmitThawed(context.Background(), testBucket(t), "/thaw", 1)
	assert.GreaterOrEqual(t, testutil.ToFloat64(EventsDroppedTotal)-before, 2.0)
	assert.NoError(t, nilEmitter.Close())
}

func TestEmitter_FromDisabledConfig(t *testing.T) {
	t.Parallel()

	e, err := NewEmitterFromConfig(types.EventsConfig{Redis: types.EventsRedisConfig{Enabled: true}}, "c", "s")
	require.NoError(t, err)
	assert.False(t, e.IsEnabled(), "events.enabled gates every publisher")
}

func TestEmitter_FanOut(t *testing.T) {
	t.Parallel()

	a := &recordingPublisher{name: "a"}
	b := &recordingPublisher{name: "b"}
	e := NewEmitter("cluster1", "server1", a, b)
	require.True(t, e.IsEnabled())

	e.EmitArchived(context.Background(), testBucket(t), "file:///archive/main/db_20_10_1/SPLUNK_BUCKET", 42)

	for _, p := range []*recordingPublisher{a, b} {
		evs := p.events(t)
		require.Len(t, evs, 1)
		ev := evs[0]
		assert.Equal(t, BucketArchived, ev.Name)
		assert.Equal(t, "cluster1", ev.Cluster)
		assert.Equal(t, "server1", ev.Server)
		assert.Equal(t, "main", ev.Index)
		assert.Equal(t, "db_20_10_1", ev.Bucket)
		assert.Equal(t, types.FormatSplunkBucket, ev.Format)
		assert.Equal(t, "file:///archive/main/db_20_10_1/SPLUNK_BUCKET", ev.URI)
		assert.Equal(t, int64(42), ev.Size)
		assert.NotEmpty(t, ev.Sequencer)
		assert.False(t, ev.Time.IsZero())
		assert.Equal(t, []string{"main"}, p.keys)
	}
}

func TestEmitter_PublisherErrorDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	broken := &recordingPublisher{name: "broken-test", err: errors.New("down")}
	ok := &recordingPublisher{name: "ok-test"}
	e := NewEmitter("c", "s", broken, ok)

	e.EmitArchiveFailed(context.Background(), testBucket(t), "mem://x", errors.New("destination already exists"))

	assert.Len(t, ok.events(t), 1)
	assert.Equal(t, "destination already exists", ok.events(t)[0].Error)
	assert.Equal(t, 1.0, testutil.ToFloat64(EventsDeliveryErrorsTotal.WithLabelValues("broken-test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(EventsDeliveredTotal.WithLabelValues("ok-test")))
}

func TestEmitter_SequencerIncreases(t *testing.T) {
	t.Parallel()

	p := &recordingPublisher{name: "seq"}
	e := NewEmitter("c", "s", p)
	for range 3 {
		e.EmitThawed(context.Background(), testBucket(t), "/thaw/db_20_10_1", 1)
	}

	evs := p.events(t)
	require.Len(t, evs, 3)
	for i, ev := range evs {
		require.Len(t, ev.Sequencer, 24)
		assert.Equal(t, fmt.Sprintf("%04x", i+1), ev.Sequencer[12:16], "counter part")
	}
	assert.Equal(t, "/thaw/db_20_10_1", evs[0].Directory)
}

func TestNewBucketEvent_Remote(t *testing.T) {
	t.Parallel()

	b, err := types.NewRemoteBucket("main", "db_20_10_1", "s3://archive/x/CSV", types.FormatCSV)
	require.NoError(t, err)

	ev := NewBucketEvent(BucketThawed, b)
	assert.Equal(t, "s3://archive/x/CSV", ev.URI)
	assert.Empty(t, ev.Directory)

	data, err := ev.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"eventName":"bucket:Thawed"`)
	assert.NotContains(t, string(data), `"directory"`)
}

// =============================================================================
// Redis
// =============================================================================

func TestNewRedisPublisher_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewRedisPublisher(types.EventsRedisConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis address is required")

	_, err = NewRedisPublisher(types.EventsRedisConfig{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestRedisPublisher_Publish(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	pub, err := NewRedisPublisher(types.EventsRedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer pub.Close()
	assert.Equal(t, "redis", pub.Name())
	assert.Equal(t, "bucketvault:events:main", pub.Channel("main"))

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer sub.Close()

	ctx := context.Background()
	ps := sub.Subscribe(ctx, pub.Channel("main"))
	defer ps.Close()
	_, err = ps.Receive(ctx)
	require.NoError(t, err)

	e := NewEmitter("c", "s", pub)
	e.EmitArchived(ctx, testBucket(t), "mem://archive/x", 7)

	select {
	case msg := <-ps.Channel():
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, BucketArchived, ev.Name)
		assert.Equal(t, "db_20_10_1", ev.Bucket)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
}

func TestRedisPublisher_Close(t *testing.T) {
	t.Parallel()

	pub := &RedisPublisher{}
	assert.NoError(t, pub.Close())
}

// =============================================================================
// Kafka
// =============================================================================

func TestNewKafkaPublisher_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewKafkaPublisher(types.EventsKafkaConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one Kafka broker is required")
}

func TestNewSaramaConfig(t *testing.T) {
	t.Parallel()

	cfg := NewSaramaConfig(types.EventsKafkaConfig{
		RequiredAcks:  -1,
		Compression:   "zstd",
		WriteTimeout:  3 * time.Second,
		TLS:           true,
		SASLMechanism: "SCRAM-SHA-512",
		SASLUsername:  "u",
		SASLPassword:  "p",
	})
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
	assert.Equal(t, sarama.CompressionZSTD, cfg.Producer.Compression)
	assert.Equal(t, 3*time.Second, cfg.Net.WriteTimeout)
	assert.True(t, cfg.Net.TLS.Enable)
	assert.True(t, cfg.Net.SASL.Enable)
	assert.Equal(t, sarama.SASLMechanism(sarama.SASLTypeSCRAMSHA512), cfg.Net.SASL.Mechanism)
	require.NotNil(t, cfg.Net.SASL.SCRAMClientGeneratorFunc)
	assert.NoError(t, cfg.Net.SASL.SCRAMClientGeneratorFunc().Begin("u", "p", ""))

	plain := NewSaramaConfig(types.EventsKafkaConfig{Compression: "snappy"})
	assert.Equal(t, sarama.WaitForLocal, plain.Producer.RequiredAcks)
	assert.Equal(t, sarama.CompressionSnappy, plain.Producer.Compression)
	assert.False(t, plain.Net.SASL.Enable)
}

func TestKafkaPublisher_Publish(t *testing.T) {
	t.Parallel()

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev Event
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		if ev.Name != BucketArchived || ev.Index != "main" {
			return errors.New("unexpected event")
		}
		return nil
	})

	pub := NewKafkaPublisherWithProducer(producer, "")
	assert.Equal(t, "kafka", pub.Name())
	assert.Equal(t, defaultKafkaTopic, pub.topic)

	NewEmitter("c", "s", pub).EmitArchived(context.Background(), testBucket(t), "mem://x", 1)
	require.NoError(t, pub.Close())
}

func TestKafkaPublisher_PublishError(t *testing.T) {
	t.Parallel()

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(errors.New("broker unavailable"))

	pub := NewKafkaPublisherWithProducer(producer, "events")
	err := pub.Publish(context.Background(), "main", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka publish")
	assert.Contains(t, err.Error(), "broker unavailable")
	require.NoError(t, pub.Close())
}

func TestKafkaPublisher_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pub := NewKafkaPublisherWithProducer(mocks.NewSyncProducer(t, nil), "events")
	err := pub.Publish(ctx, "main", []byte(`{}`))
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, pub.Close())
}
