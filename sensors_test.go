package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeThermometer struct {
	name        string
	temp        float64
	updateError error
}

func (t *fakeThermometer) Name() string         { return t.name }
func (t *fakeThermometer) Temperature() float64 { return t.temp }
func (t *fakeThermometer) Update() error        { return t.updateError }

type fakeFlow struct {
	rate float64
}

func (f *fakeFlow) Rate() float64 { return f.rate }

func TestSampler(t *testing.T) {
	store := NewDatastore()
	hot := &fakeThermometer{name: "hot", temp: 30.0}
	cold := &fakeThermometer{name: "cold", temp: 22.0}
	flow := &fakeFlow{rate: 12.0}
	sampler := NewSampler(store, hot, cold, flow)

	t.Run("WritesSmoothedValues", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			sampler.sample()
		}
		t1, _, err := store.GetFloat(ResourceTempValue, 0)
		assert.NoError(t, err)
		assert.Equal(t, 30.0, t1)
		t2, _, err := store.GetFloat(ResourceTempValue, 1)
		assert.NoError(t, err)
		assert.Equal(t, 22.0, t2)
		rate, _, err := store.GetFloat(ResourceFlowRate, 0)
		assert.NoError(t, err)
		assert.Equal(t, 12.0, rate)
	})

	t.Run("MedianRejectsSingleGlitch", func(t *testing.T) {
		hot.temp = 99.0
		sampler.sample()
		hot.temp = 30.0
		t1, _, err := store.GetFloat(ResourceTempValue, 0)
		assert.NoError(t, err)
		assert.Equal(t, 30.0, t1)
	})

	t.Run("FailedUpdateAgesValue", func(t *testing.T) {
		sampler.sample()
		_, fresh, _ := store.GetFloat(ResourceTempValue, 0)
		hot.updateError = errors.New("probe unplugged")
		time.Sleep(5 * time.Millisecond)
		sampler.sample()
		_, stale, _ := store.GetFloat(ResourceTempValue, 0)
		assert.True(t, stale > fresh, "stale value should keep aging")
	})
}
