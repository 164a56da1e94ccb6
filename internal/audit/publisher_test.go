package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

// fakeProducer captures produced records and resolves promises with a
// configurable error.
type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.mu.Lock()
	f.records = append(f.records, r)
	err := f.err
	f.mu.Unlock()
	promise(r, err)
}

func (f *fakeProducer) produced() []*kgo.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*kgo.Record(nil), f.records...)
}

func sampleRecord() Record {
	return Record{
		AlertID:     "a-1",
		UserID:      "u1",
		Severity:    "CRITICAL",
		Channels:    map[string]bool{"email": true, "sms": true, "call": true, "webhook": false},
		SourceEvent: json.RawMessage(`{"userId":"u1"}`),
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublish_KeyedByUserAndShaped(t *testing.T) {
	fp := &fakeProducer{}
	p := NewPublisher(fp, "alerts")

	require.NoError(t, p.Publish(context.Background(), sampleRecord()))

	records := fp.produced()
	require.Len(t, records, 1)
	assert.Equal(t, "alerts", records[0].Topic)
	assert.Equal(t, []byte("u1"), records[0].Key)

	var got map[string]any
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, "a-1", got["alertId"])
	assert.Equal(t, "u1", got["userId"])
	assert.Equal(t, "CRITICAL", got["severity"])
	assert.Equal(t, map[string]any{"email": true, "sms": true, "call": true, "webhook": false}, got["channels"])
	assert.Equal(t, "2026-03-01T12:00:00Z", got["timestamp"])
	assert.Equal(t, map[string]any{"userId": "u1"}, got["sourceEvent"])
}

func TestPublish_FillsZeroTimestamp(t *testing.T) {
	fp := &fakeProducer{}
	p := NewPublisher(fp, "alerts")

	rec := sampleRecord()
	rec.Timestamp = time.Time{}
	require.NoError(t, p.Publish(context.Background(), rec))

	var got Record
	require.NoError(t, json.Unmarshal(fp.produced()[0].Value, &got))
	assert.False(t, got.Timestamp.IsZero())
}

func TestPublish_BrokerFailureOpensBreaker(t *testing.T) {
	fp := &fakeProducer{err: errors.New("broker down")}
	cb := NewCircuitBreaker(2, time.Minute)
	p := NewPublisher(fp, "alerts", WithBreaker(cb))

	ctx := context.Background()
	require.NoError(t, p.Publish(ctx, sampleRecord()))
	require.NoError(t, p.Publish(ctx, sampleRecord()))
	assert.True(t, cb.IsOpen())

	// With the circuit open, records are dropped locally.
	err := p.Publish(ctx, sampleRecord())
	assert.Error(t, err)
	assert.Len(t, fp.produced(), 2)
}

func TestCircuitBreaker_RecoversAfterCooldown(t *testing.T) {
	cb := NewCircuitBreaker(1, 20*time.Millisecond)

	cb.RecordFailure()
	assert.True(t, cb.IsOpen())
	assert.False(t, cb.Allow())

	time.Sleep(30 * time.Millisecond)
	assert.True(t, cb.Allow())

	cb.RecordSuccess()
	assert.False(t, cb.IsOpen())
}
