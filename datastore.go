package main

import (
	"fmt"
	"sync"
	"time"
)

// ResourceID identifies a value held in the Datastore.  Multi-instance
// resources (temperature probes) are further qualified by an instance number.
type ResourceID int

const (
	// ResourceTempValue is a probe temperature in degrees C.  Instance 0 is
	// the hot (roof return) probe, instance 1 is the cold (pool) probe.
	ResourceTempValue ResourceID = iota
	// ResourceFlowRate is the measured circulation flow in litres per minute.
	ResourceFlowRate
	// ResourceCPState is the commanded state of the circulation pump.
	ResourceCPState
	// ResourcePPState is the commanded state of the priming pump.
	ResourcePPState
	// ResourceCPOnDelta is the temperature differential that turns the CP on.
	ResourceCPOnDelta
	// ResourceCPOffDelta is the temperature differential that turns the CP off.
	ResourceCPOffDelta
	// ResourceFlowThreshold is the flow rate below which priming is needed.
	ResourceFlowThreshold
	// ResourcePPCycleCount is the number of priming cycles per trigger.
	ResourcePPCycleCount
	// ResourcePPCycleOnDuration is the priming pump on-time in seconds.
	ResourcePPCycleOnDuration
	// ResourcePPCyclePauseDuration is the pause between priming cycles in seconds.
	ResourcePPCyclePauseDuration
)

func (r ResourceID) String() string {
	switch r {
	case ResourceTempValue:
		return "temp.value"
	case ResourceFlowRate:
		return "flow.rate"
	case ResourceCPState:
		return "pumps.cp.state"
	case ResourcePPState:
		return "pumps.pp.state"
	case ResourceCPOnDelta:
		return "control.cp.on_delta"
	case ResourceCPOffDelta:
		return "control.cp.off_delta"
	case ResourceFlowThreshold:
		return "control.flow.threshold"
	case ResourcePPCycleCount:
		return "control.pp.cycle_count"
	case ResourcePPCycleOnDuration:
		return "control.pp.on_duration"
	case ResourcePPCyclePauseDuration:
		return "control.pp.pause_duration"
	default:
		return fmt.Sprintf("resource(%d)", int(r))
	}
}

type storeKey struct {
	id       ResourceID
	instance int
}

type storeEntry struct {
	value   interface{}
	written time.Time
}

// Datastore is a thread-safe keyed store of sensor, configuration and
// actuator values.  Every value is tagged with its last write time so that
// readers can judge staleness.  A single get returns a self-consistent value;
// writes to different resources never interfere.
type Datastore struct {
	mutex  sync.RWMutex
	values map[storeKey]storeEntry
}

// NewDatastore creates an empty Datastore.
func NewDatastore() *Datastore {
	return &Datastore{
		values: make(map[storeKey]storeEntry),
	}
}

func (d *Datastore) set(id ResourceID, instance int, value interface{}) {
	d.mutex.Lock()
	d.values[storeKey{id, instance}] = storeEntry{value: value, written: time.Now()}
	d.mutex.Unlock()
}

func (d *Datastore) get(id ResourceID, instance int) (interface{}, time.Duration, error) {
	d.mutex.RLock()
	entry, ok := d.values[storeKey{id, instance}]
	d.mutex.RUnlock()
	if !ok {
		return nil, 0, fmt.Errorf("%s[%d] has never been written", id, instance)
	}
	return entry.value, time.Since(entry.written), nil
}

// SetFloat stores a float64 value for the resource.
func (d *Datastore) SetFloat(id ResourceID, instance int, value float64) {
	d.set(id, instance, value)
}

// GetFloat returns the stored float64 value and its age.  A missing or
// mistyped value returns 0.0 and an error, never a panic.
func (d *Datastore) GetFloat(id ResourceID, instance int) (float64, time.Duration, error) {
	value, age, err := d.get(id, instance)
	if err != nil {
		return 0.0, age, err
	}
	f, ok := value.(float64)
	if !ok {
		return 0.0, age, fmt.Errorf("%s[%d] is not a float", id, instance)
	}
	return f, age, nil
}

// SetUint32 stores a uint32 value for the resource.
func (d *Datastore) SetUint32(id ResourceID, instance int, value uint32) {
	d.set(id, instance, value)
}

// GetUint32 returns the stored uint32 value and its age.
func (d *Datastore) GetUint32(id ResourceID, instance int) (uint32, time.Duration, error) {
	value, age, err := d.get(id, instance)
	if err != nil {
		return 0, age, err
	}
	u, ok := value.(uint32)
	if !ok {
		return 0, age, fmt.Errorf("%s[%d] is not a uint32", id, instance)
	}
	return u, age, nil
}

// SetPumpState stores a pump state for the resource.
func (d *Datastore) SetPumpState(id ResourceID, instance int, value PumpState) {
	d.set(id, instance, value)
}

// GetPumpState returns the stored pump state and its age.  A missing or
// mistyped value reads as PumpOff.
func (d *Datastore) GetPumpState(id ResourceID, instance int) (PumpState, time.Duration, error) {
	value, age, err := d.get(id, instance)
	if err != nil {
		return PumpOff, age, err
	}
	s, ok := value.(PumpState)
	if !ok {
		return PumpOff, age, fmt.Errorf("%s[%d] is not a pump state", id, instance)
	}
	return s, age, nil
}
