package main

import "fmt"

// PumpState is the commanded state of a pump.
type PumpState int

const (
	// PumpOff means the pump is not running
	PumpOff PumpState = iota
	// PumpOn means the pump is running
	PumpOn
)

func (s PumpState) String() string {
	switch s {
	case PumpOff:
		return "Off"
	case PumpOn:
		return "On"
	default:
		return "Unknown"
	}
}

// Pump selects one of the two pumps on the relay board.
type Pump int

const (
	// CirculationPump moves water through the solar panels.
	CirculationPump Pump = iota
	// PrimingPump re-primes the circulation loop when flow is inadequate.
	PrimingPump
)

func (p Pump) String() string {
	switch p {
	case CirculationPump:
		return "CP"
	case PrimingPump:
		return "PP"
	default:
		return "Unknown"
	}
}

// PumpCommander issues pump commands to the relay board.  Each pump is owned
// by exactly one control task; no two tasks command the same pump.
type PumpCommander interface {
	SetPump(Pump, PumpState) error
}

// PumpRelays drives the pump relays and mirrors every commanded state into
// the datastore, where the other tasks (and the web and telemetry surfaces)
// observe it.
type PumpRelays struct {
	store *Datastore
	cp    *Relay
	pp    *Relay
}

// NewPumpRelays creates the relay pair on their fixed board pins.
func NewPumpRelays(store *Datastore, manufacturer string) *PumpRelays {
	return newPumpRelays(store,
		NewRelay(cpGpio, "Circulation Pump", manufacturer),
		NewRelay(ppGpio, "Priming Pump", manufacturer))
}

func newPumpRelays(store *Datastore, cp *Relay, pp *Relay) *PumpRelays {
	p := PumpRelays{
		store: store,
		cp:    cp,
		pp:    pp,
	}
	p.bindHK()
	return &p
}

// bindHK rejects remote HomeKit writes.  The pumps belong to the control
// tasks; the accessories only reflect state.
func (p *PumpRelays) bindHK() {
	p.cp.accessory.Switch.On.OnValueRemoteUpdate(func(on bool) {
		Log("HomeKit request to set CP on=%t ignored, pump is controller owned", on)
		p.cp.accessory.Switch.On.SetValue(p.cp.IsOn())
	})
	p.pp.accessory.Switch.On.OnValueRemoteUpdate(func(on bool) {
		Log("HomeKit request to set PP on=%t ignored, pump is controller owned", on)
		p.pp.accessory.Switch.On.SetValue(p.pp.IsOn())
	})
}

// SetPump commands a pump relay and records the new state in the datastore.
func (p *PumpRelays) SetPump(pump Pump, state PumpState) error {
	var relay *Relay
	var resource ResourceID
	switch pump {
	case CirculationPump:
		relay, resource = p.cp, ResourceCPState
	case PrimingPump:
		relay, resource = p.pp, ResourcePPState
	default:
		return fmt.Errorf("unknown pump selector %d", pump)
	}
	var err error
	if state == PumpOn {
		err = relay.TurnOn()
	} else {
		err = relay.TurnOff()
	}
	if err != nil {
		return fmt.Errorf("%s relay: %w", pump, err)
	}
	p.store.SetPumpState(resource, 0, state)
	return nil
}

// CPRelay returns the circulation pump relay.
func (p *PumpRelays) CPRelay() *Relay {
	return p.cp
}

// PPRelay returns the priming pump relay.
func (p *PumpRelays) PPRelay() *Relay {
	return p.pp
}
