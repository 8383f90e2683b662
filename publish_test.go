package main

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	fail     error
	closed   chan bool
}

func newFakePublisher(fail error) *fakePublisher {
	return &fakePublisher{fail: fail, closed: make(chan bool, 1)}
}

func (f *fakePublisher) Publish(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakePublisher) Close() {
	f.closed <- true
}

func (f *fakePublisher) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.topics...)
}

func (f *fakePublisher) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-f.closed:
	case <-time.After(time.Second):
		t.Fatal("publisher was never closed")
	}
}

func TestTelemetrySnapshot(t *testing.T) {
	store := NewDatastore()
	store.SetFloat(ResourceTempValue, 0, 31.5)
	store.SetFloat(ResourceTempValue, 1, 24.25)
	store.SetFloat(ResourceFlowRate, 0, 18.0)
	store.SetPumpState(ResourceCPState, 0, PumpOn)
	store.SetPumpState(ResourcePPState, 0, PumpOff)

	telemetry := NewTelemetry(store, newFakePublisher(nil))
	now := time.Date(2022, 7, 15, 12, 30, 0, 0, time.UTC)
	data, err := telemetry.snapshot(now)
	assert.NoError(t, err)

	decoded := statusPayload{}
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2022-07-15T12:30:00Z", decoded.Timestamp)
	assert.Equal(t, 31.5, decoded.TempHot)
	assert.Equal(t, 24.25, decoded.TempCold)
	assert.Equal(t, 18.0, decoded.FlowRate)
	assert.Equal(t, "On", decoded.CP)
	assert.Equal(t, "Off", decoded.PP)
}

func TestTelemetrySnapshotEmptyStore(t *testing.T) {
	// Values that were never written publish as zero rather than failing.
	telemetry := NewTelemetry(NewDatastore(), newFakePublisher(nil))
	data, err := telemetry.snapshot(time.Now())
	assert.NoError(t, err)

	decoded := statusPayload{}
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 0.0, decoded.TempHot)
	assert.Equal(t, "Off", decoded.CP)
}

func TestTelemetryLoop(t *testing.T) {
	store := NewDatastore()
	pub := newFakePublisher(nil)
	telemetry := NewTelemetry(store, pub)
	telemetry.period = 5 * time.Millisecond
	telemetry.Start()
	time.Sleep(25 * time.Millisecond)
	telemetry.Stop()
	pub.waitClosed(t)

	topics := pub.published()
	assert.NotEmpty(t, topics)
	for _, topic := range topics {
		assert.Equal(t, statusTopic, topic)
	}
}

func TestTelemetryPublishFailureDoesNotStopLoop(t *testing.T) {
	pub := newFakePublisher(errors.New("broker down"))
	telemetry := NewTelemetry(NewDatastore(), pub)
	telemetry.period = 5 * time.Millisecond
	telemetry.Start()
	time.Sleep(20 * time.Millisecond)
	telemetry.Stop() // still answering the done channel
	pub.waitClosed(t)
}
