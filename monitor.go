package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"
)

const (
	mftr = "Bonnie Labs"
	// pulsesPerLitre for the inline hall-effect flow sensor (YF-DN40).
	pulsesPerLitre = 4.8
)

// PoolMonitor owns the datastore and every task that reads or writes it: the
// sensor sampler, the two pump control tasks, telemetry and the RRD updater.
type PoolMonitor struct {
	config    *Config
	store     *Datastore
	pumps     *PumpRelays
	cp        *CPController
	pp        *PPController
	flow      *FlowMeter
	hotTemp   *W1Thermometer
	coldTemp  *W1Thermometer
	sampler   *Sampler
	telemetry *Telemetry
	tempRrd   *Rrd
	pumpRrd   *Rrd
	done      chan bool
}

// NewPoolMonitor assembles the system from a parsed Config.
func NewPoolMonitor(config *Config) *PoolMonitor {
	store := NewDatastore()
	config.Apply(store)
	pm := PoolMonitor{
		config:   config,
		store:    store,
		pumps:    NewPumpRelays(store, mftr),
		flow:     NewFlowMeter(flowGpio, pulsesPerLitre),
		hotTemp:  NewW1Thermometer("Roof Return Temp", mftr, *config.hotProbe),
		coldTemp: NewW1Thermometer("Pool Temp", mftr, *config.coldProbe),
		tempRrd:  NewRrd(*config.dataDirectory + "/temps.rrd"),
		pumpRrd:  NewRrd(*config.dataDirectory + "/pumps.rrd"),
		done:     make(chan bool),
	}
	pm.cp = NewCPController(store, pm.pumps)
	pm.pp = NewPPController(store, pm.pumps)
	pm.sampler = NewSampler(store, pm.hotTemp, pm.coldTemp, pm.flow)
	return &pm
}

// Start kicks off every task.  The control tasks hold their own
// stabilization delay, so sensors get a head start on them naturally.
func (pm *PoolMonitor) Start() {
	pid := os.Getpid()
	check(ioutil.WriteFile(*pm.config.pidfile, []byte(fmt.Sprintf("%d\n", pid)), 0644),
		"could not write pidfile %s", *pm.config.pidfile)

	pm.createRrds()
	check(pm.flow.Start(), "could not start flow meter")
	pm.sampler.Start()
	pm.cp.Start()
	pm.pp.Start()
	if pm.config.cfg.Broker != "" {
		pub, err := NewMqttPublisher(pm.config.cfg.Broker)
		if check(err, "telemetry disabled") == nil {
			pm.telemetry = NewTelemetry(pm.store, pub)
			pm.telemetry.Start()
		}
	}
	go pm.runLoop()
	Info("Pool monitor started: %s", pm.config)
}

// Stop shuts every task down and leaves both pumps off.
func (pm *PoolMonitor) Stop() {
	pm.done <- true
	pm.cp.Stop()
	pm.pp.Stop()
	pm.sampler.Stop()
	pm.flow.Stop()
	if pm.telemetry != nil {
		pm.telemetry.Stop()
	}
	check(pm.pumps.SetPump(CirculationPump, PumpOff), "could not stop CP")
	check(pm.pumps.SetPump(PrimingPump, PumpOff), "could not stop PP")
	Info("Pool monitor stopped")
}

// runLoop feeds the RRD files and periodically logs status.
func (pm *PoolMonitor) runLoop() {
	interval := 10 * time.Second
	for tries := 0; true; tries++ {
		if tries%30 == 0 {
			Info(pm.Status())
		}
		select {
		case <-pm.done:
			return
		case <-time.After(interval):
			pm.UpdateRrd()
		}
	}
}

// Status summarizes the system for the log and the web page.
func (pm *PoolMonitor) Status() string {
	hot, _, _ := pm.store.GetFloat(ResourceTempValue, 0)
	cold, _, _ := pm.store.GetFloat(ResourceTempValue, 1)
	flow, _, _ := pm.store.GetFloat(ResourceFlowRate, 0)
	cp, _, _ := pm.store.GetPumpState(ResourceCPState, 0)
	pp, _, _ := pm.store.GetPumpState(ResourcePPState, 0)
	return fmt.Sprintf("Roof(%0.1fC) Pool(%0.1fC) Flow(%0.1f l/min) CP(%s) PP(%s)",
		hot, cold, flow, cp, pp)
}
