package main

import "time"

// FlowSource provides a current flow rate in litres per minute.
type FlowSource interface {
	Rate() float64
}

// Sampler periodically reads the probes, smooths the readings and writes
// them into the datastore for the control tasks, the web server and
// telemetry.  A failed probe read skips the write, so the value's age in the
// datastore keeps growing and consumers can see the staleness.
type Sampler struct {
	store    *Datastore
	hot      Thermometer
	cold     Thermometer
	flow     FlowSource
	hotHist  *History
	coldHist *History
	flowHist *History
	period   time.Duration
	done     chan bool
}

// NewSampler creates a sampler for the two probes and the flow meter.
func NewSampler(store *Datastore, hot, cold Thermometer, flow FlowSource) *Sampler {
	return &Sampler{
		store:    store,
		hot:      hot,
		cold:     cold,
		flow:     flow,
		hotHist:  NewHistory(5),
		coldHist: NewHistory(5),
		flowHist: NewHistory(5),
		period:   time.Second,
		done:     make(chan bool),
	}
}

// Start kicks off the sampling task.
func (s *Sampler) Start() {
	go s.runLoop()
}

// Stop ends the sampling task.
func (s *Sampler) Stop() {
	s.done <- true
}

func (s *Sampler) runLoop() {
	start := time.Now()
	for {
		s.sample()
		wake := nextWake(start, s.period, time.Now())
		select {
		case <-s.done:
			return
		case <-time.After(time.Until(wake)):
		}
	}
}

func (s *Sampler) sample() {
	if check(s.hot.Update(), "could not update %s", s.hot.Name()) == nil {
		s.hotHist.Push(s.hot.Temperature())
		s.store.SetFloat(ResourceTempValue, 0, s.hotHist.Median())
	}
	if check(s.cold.Update(), "could not update %s", s.cold.Name()) == nil {
		s.coldHist.Push(s.cold.Temperature())
		s.store.SetFloat(ResourceTempValue, 1, s.coldHist.Median())
	}
	s.flowHist.Push(s.flow.Rate())
	s.store.SetFloat(ResourceFlowRate, 0, s.flowHist.Median())
}
