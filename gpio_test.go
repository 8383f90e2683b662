package main

import (
	"sync"
	"testing"
)

// TestPin is a fake PiPin that records what the code under test did to it.
type TestPin struct {
	mu        sync.Mutex
	pin       uint8
	direction Direction
	state     GpioState
	pull      Pull
	edge      Edge
	writes    int
	handler   NotificationHandler
}

// NewTestPin is a GpioProvider for tests.
func NewTestPin(pin uint8) PiPin {
	return &TestPin{pin: pin, state: Low}
}

func (t *TestPin) Input() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.direction = Input
}

func (t *TestPin) Output(s GpioState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.direction = Output
	t.state = s
}

func (t *TestPin) Read() (GpioState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, nil
}

func (t *TestPin) Write(s GpioState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
	t.writes++
	return nil
}

func (t *TestPin) Pin() uint8 {
	return t.pin
}

func (t *TestPin) Close() {}

func (t *TestPin) Watch(h NotificationHandler, p Pull, e Edge) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.direction = Input
	t.pull = p
	t.edge = e
	t.handler = h
	return nil
}

// fire simulates an edge arriving at the pin.
func (t *TestPin) fire(n Notification) error {
	t.mu.Lock()
	h := t.handler
	t.state = n.Value
	t.mu.Unlock()
	if h == nil {
		return nil
	}
	return h(n)
}

func (t *TestPin) snapshot() (Direction, GpioState, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.direction, t.state, t.writes
}

func checkPinState(t *testing.T, name string, pin PiPin, dir Direction, state GpioState) bool {
	tpin := pin.(*TestPin)
	d, s, _ := tpin.snapshot()
	if d != dir {
		t.Errorf("%s pin direction %s, expected %s", name, d, dir)
		return false
	}
	if s != state {
		t.Errorf("%s pin state %s, expected %s", name, s, state)
		return false
	}
	return true
}

func TestGpioRelay(t *testing.T) {
	pin := &TestPin{}
	relay := newRelay(pin, "Test Pin", mftr)
	start := relay.startTime
	stop := relay.stopTime

	t.Run("NewRelay", func(t *testing.T) {
		checkPinState(t, "TestPin", relay.pin, Output, High)
	})

	t.Run("TurnOn", func(t *testing.T) {
		if err := relay.TurnOn(); err != nil {
			t.Error(err.Error())
		}
		checkPinState(t, "TestPin", relay.pin, Output, Low)
		if !relay.GetStartTime().After(start) {
			t.Errorf("Start time not updated")
		}
		if !relay.GetStopTime().Equal(stop) {
			t.Errorf("Stop time should not have been updated")
		}
		if relay.Status() != "On" {
			t.Errorf("Status should have been On")
		}
	})

	start = relay.startTime
	t.Run("TurnOff", func(t *testing.T) {
		if err := relay.TurnOff(); err != nil {
			t.Error(err.Error())
		}
		checkPinState(t, "TestPin", pin, Output, High)
		if !relay.GetStartTime().Equal(start) {
			t.Errorf("Start time should not have been updated")
		}
		if !relay.GetStopTime().After(stop) {
			t.Errorf("Stop time not updated")
		}
		if relay.Status() != "Off" {
			t.Errorf("Status should have been Off")
		}
	})
}

func TestPumpRelays(t *testing.T) {
	store := NewDatastore()
	cpPin := &TestPin{pin: cpGpio}
	ppPin := &TestPin{pin: ppGpio}
	pumps := newPumpRelays(store,
		newRelay(cpPin, "Circulation Pump", mftr),
		newRelay(ppPin, "Priming Pump", mftr))

	t.Run("SetCPOn", func(t *testing.T) {
		if err := pumps.SetPump(CirculationPump, PumpOn); err != nil {
			t.Error(err.Error())
		}
		checkPinState(t, "CP", cpPin, Output, Low)
		checkPinState(t, "PP", ppPin, Output, High)
		state, _, err := store.GetPumpState(ResourceCPState, 0)
		if err != nil {
			t.Error(err.Error())
		}
		if state != PumpOn {
			t.Errorf("Datastore CP state %s, expected On", state)
		}
	})

	t.Run("SetPPOn", func(t *testing.T) {
		if err := pumps.SetPump(PrimingPump, PumpOn); err != nil {
			t.Error(err.Error())
		}
		checkPinState(t, "PP", ppPin, Output, Low)
		state, _, err := store.GetPumpState(ResourcePPState, 0)
		if err != nil {
			t.Error(err.Error())
		}
		if state != PumpOn {
			t.Errorf("Datastore PP state %s, expected On", state)
		}
	})

	t.Run("SetCPOff", func(t *testing.T) {
		if err := pumps.SetPump(CirculationPump, PumpOff); err != nil {
			t.Error(err.Error())
		}
		checkPinState(t, "CP", cpPin, Output, High)
		state, _, _ := store.GetPumpState(ResourceCPState, 0)
		if state != PumpOff {
			t.Errorf("Datastore CP state %s, expected Off", state)
		}
	})

	t.Run("UnknownSelector", func(t *testing.T) {
		if err := pumps.SetPump(Pump(42), PumpOn); err == nil {
			t.Error("Expected an error for an unknown pump selector")
		}
	})
}
