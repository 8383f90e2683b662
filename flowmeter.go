package main

import (
	"sync"
	"time"
)

// FlowMeter derives a flow rate from the pulses of a hall-effect flow sensor.
// Each revolution of the paddle wheel produces one rising edge; dividing the
// pulse count by the sensor's pulses-per-litre constant over the sample
// window gives litres per minute.
type FlowMeter struct {
	pin            PiPin
	pulsesPerLitre float64
	window         time.Duration

	mutex  sync.Mutex
	pulses int
	rate   float64
	done   chan bool
	stop   sync.Once
}

// NewFlowMeter creates a flow meter on the given gpio number.
func NewFlowMeter(gpio uint8, pulsesPerLitre float64) *FlowMeter {
	return newFlowMeter(gpioProvider(gpio), pulsesPerLitre)
}

func newFlowMeter(pin PiPin, pulsesPerLitre float64) *FlowMeter {
	return &FlowMeter{
		pin:            pin,
		pulsesPerLitre: pulsesPerLitre,
		window:         5 * time.Second,
		done:           make(chan bool),
	}
}

// Start begins counting pulses and updating the rate once per window.
func (f *FlowMeter) Start() error {
	err := f.pin.Watch(func(n Notification) error {
		f.mutex.Lock()
		f.pulses++
		f.mutex.Unlock()
		return nil
	}, PullUp, RisingEdge)
	if err != nil {
		return err
	}
	go f.runLoop()
	return nil
}

func (f *FlowMeter) runLoop() {
	ticker := time.NewTicker(f.window)
	defer ticker.Stop()
	for {
		select {
		case <-f.done:
			f.pin.Close()
			return
		case <-ticker.C:
			f.updateRate()
		}
	}
}

// updateRate folds the window's pulse count into a litres/minute rate.
func (f *FlowMeter) updateRate() {
	f.mutex.Lock()
	litres := float64(f.pulses) / f.pulsesPerLitre
	f.pulses = 0
	f.rate = litres * float64(time.Minute) / float64(f.window)
	f.mutex.Unlock()
}

// Rate returns the most recent flow rate in litres per minute.
func (f *FlowMeter) Rate() float64 {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.rate
}

// Stop ends pulse counting.  Closing the channel rather than sending on it
// keeps Stop from blocking when Start failed and the loop never ran.
func (f *FlowMeter) Stop() {
	f.stop.Do(func() { close(f.done) })
}
