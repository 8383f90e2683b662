package main

import (
	"fmt"
	"time"

	"github.com/brutella/hc/accessory"
)

const (
	cpGpio   uint8 = 17
	ppGpio   uint8 = 27
	flowGpio uint8 = 23
)

// Relay drives a single channel on the relay board.  The board is active-low:
// pulling the pin low energizes the relay.
type Relay struct {
	name      string
	pin       PiPin
	startTime time.Time
	stopTime  time.Time
	accessory *accessory.Switch
}

// AccessoryInfo fills out the HomeKit metadata for a device.
func AccessoryInfo(name string, manufacturer string) accessory.Info {
	return accessory.Info{Name: name, Manufacturer: manufacturer}
}

func timeStr(t time.Time) string {
	return fmt.Sprintf("%02d:%02d:%02d.%09d",
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond())
}

// NewRelay creates a Relay for the given gpio number.
func NewRelay(pin uint8, name string, manufacturer string) *Relay {
	return newRelay(gpioProvider(pin), name, manufacturer)
}

func newRelay(pin PiPin, name string, manufacturer string) *Relay {
	relay := Relay{
		name:      name,
		pin:       pin,
		startTime: time.Now().Add(time.Hour * -24),
		stopTime:  time.Now().Add(time.Hour * -24),
		accessory: accessory.NewSwitch(AccessoryInfo(name, manufacturer)),
	}
	relay.pin.Output(High) // active-low, start de-energized
	return &relay
}

// Accessory returns the HomeKit accessory for the relay.
func (r *Relay) Accessory() *accessory.Accessory {
	return r.accessory.Accessory
}

// Name returns the relay's name.
func (r *Relay) Name() string {
	return r.name
}

func (r *Relay) String() string {
	return fmt.Sprintf(
		"Relay: { Name: %s, Pin: %d, StartTime: %s, StopTime: %s }",
		r.name, r.pin.Pin(), timeStr(r.startTime), timeStr(r.stopTime))
}

// TurnOn energizes the relay.
func (r *Relay) TurnOn() error {
	Trace("TurnOn %s", r.name)
	if err := r.pin.Write(Low); err != nil {
		return err
	}
	r.startTime = time.Now()
	r.accessory.Switch.On.SetValue(true)
	return nil
}

// TurnOff de-energizes the relay.
func (r *Relay) TurnOff() error {
	Trace("TurnOff %s", r.name)
	if err := r.pin.Write(High); err != nil {
		return err
	}
	r.stopTime = time.Now()
	r.accessory.Switch.On.SetValue(false)
	return nil
}

// IsOn returns true if the relay is energized.
func (r *Relay) IsOn() bool {
	state, err := r.pin.Read()
	if err != nil {
		check(err, "could not read relay %s", r.name)
		return false
	}
	return state == Low
}

// Status returns a human readable relay state.
func (r *Relay) Status() string {
	if r.IsOn() {
		return "On"
	}
	return "Off"
}

// GetStartTime returns the last time the relay was energized.
func (r *Relay) GetStartTime() time.Time {
	return r.startTime
}

// GetStopTime returns the last time the relay was de-energized.
func (r *Relay) GetStopTime() time.Time {
	return r.stopTime
}
