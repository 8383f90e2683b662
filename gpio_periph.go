package main

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// OpenGPIO initializes the host GPIO drivers.  Call once at startup.
func OpenGPIO() error {
	_, err := host.Init()
	return err
}

// CloseGPIO releases the GPIO interface.
func CloseGPIO() error {
	return nil
}

// periphPin implements PiPin on top of periph.io.
type periphPin struct {
	number uint8
	pin    gpio.PinIO
	done   chan bool
}

// NewGpio creates a new PiPin for a given gpio number.
func NewGpio(number uint8) PiPin {
	return &periphPin{
		number: number,
		pin:    gpioreg.ByName(fmt.Sprintf("GPIO%d", number)),
		done:   make(chan bool, 1),
	}
}

func periphLevel(s GpioState) gpio.Level {
	if s == High {
		return gpio.High
	}
	return gpio.Low
}

func periphPull(p Pull) gpio.Pull {
	switch p {
	case PullDown:
		return gpio.PullDown
	case PullUp:
		return gpio.PullUp
	case Float:
		return gpio.Float
	default:
		return gpio.PullNoChange
	}
}

func periphEdge(e Edge) gpio.Edge {
	switch e {
	case RisingEdge:
		return gpio.RisingEdge
	case FallingEdge:
		return gpio.FallingEdge
	case BothEdges:
		return gpio.BothEdges
	default:
		return gpio.NoEdge
	}
}

// Input sets the pin to be read from.
func (g *periphPin) Input() {
	if g.pin == nil {
		return
	}
	check(g.pin.In(gpio.PullNoChange, gpio.NoEdge), "Input failed on pin %d", g.number)
}

// Output sets the pin to be written to and sets the initial state.
func (g *periphPin) Output(s GpioState) {
	if g.pin == nil {
		return
	}
	check(g.pin.Out(periphLevel(s)), "Output failed on pin %d", g.number)
}

// Read returns the current state of the pin.
func (g *periphPin) Read() (GpioState, error) {
	if g.pin == nil {
		return Low, fmt.Errorf("gpio %d not present on this host", g.number)
	}
	if g.pin.Read() == gpio.High {
		return High, nil
	}
	return Low, nil
}

// Write sets the state of the pin.
func (g *periphPin) Write(s GpioState) error {
	if g.pin == nil {
		return fmt.Errorf("gpio %d not present on this host", g.number)
	}
	return g.pin.Out(periphLevel(s))
}

// Pin returns the GPIO number of the pin.
func (g *periphPin) Pin() uint8 {
	return g.number
}

// Close releases the resources related to the pin.
func (g *periphPin) Close() {
	select {
	case g.done <- true:
	default:
	}
	if g.pin != nil {
		g.pin.Halt()
	}
}

// Watch registers a handler to be called when the pin changes state.  The
// handler runs on its own goroutine until it returns an error or the pin is
// closed.
func (g *periphPin) Watch(h NotificationHandler, p Pull, e Edge) error {
	if g.pin == nil {
		return fmt.Errorf("gpio %d not present on this host", g.number)
	}
	if err := g.pin.In(periphPull(p), periphEdge(e)); err != nil {
		return err
	}
	go func() {
		start := time.Now()
		for {
			select {
			case <-g.done:
				Info("watcher for pin %d closed after %s", g.number, time.Since(start))
				return
			default:
			}
			if !g.pin.WaitForEdge(time.Second) {
				continue
			}
			state := Low
			if g.pin.Read() == gpio.High {
				state = High
			}
			n := Notification{
				Pin:   g.number,
				Time:  time.Now(),
				Value: state,
			}
			if err := h(n); err != nil {
				Info("watcher for pin %d exited after %s: %v",
					g.number, time.Since(start), err)
				return
			}
		}
	}()
	return nil
}
