package main

import "fmt"

// createRrds defines the temperature/flow and pump activity databases and
// the graphs the web server serves.
func (pm *PoolMonitor) createRrds() {
	tr := pm.tempRrd
	tr.gauge("hot", "-273", "1000", colorHot, "Roof Return")
	tr.gauge("cold", "-273", "1000", colorCold, "Pool")
	tr.gauge("flow", "0", "1000", colorFlow, "Flow l/min")
	check(tr.create(*pm.config.forceRrd), "temps.rrd create")

	tg := tr.Grapher()
	tg.SetTitle("Temperatures and Flow")
	tg.SetVLabel("Degrees Celsius")
	tg.SetRightAxis(1, 0.0)
	tg.SetRightAxisLabel("litres/minute")
	tg.SetSize(640, 300)
	tg.SetImageFormat("PNG")

	pr := pm.pumpRrd
	pr.gauge("cp", "-1", "10", colorCP, "Circulation Pump")
	pr.gauge("pp", "-1", "10", colorPP, "Priming Pump")
	check(pr.create(*pm.config.forceRrd), "pumps.rrd create")

	pg := pr.Grapher()
	pg.SetTitle("Pump Activity")
	pg.SetVLabel("Pump State")
	pg.SetUpperLimit(2.0)
	pg.SetSize(640, 200)
	pg.SetImageFormat("PNG")
}

// UpdateRrd writes the current datastore values into the RRD files.
func (pm *PoolMonitor) UpdateRrd() {
	hot, _, _ := pm.store.GetFloat(ResourceTempValue, 0)
	cold, _, _ := pm.store.GetFloat(ResourceTempValue, 1)
	flow, _, _ := pm.store.GetFloat(ResourceFlowRate, 0)
	update := fmt.Sprintf("N:%f:%f:%f", hot, cold, flow)
	Debug("Updating TempRrd: %s", update)
	if err := pm.tempRrd.Updater().Update(update); err != nil {
		Error("Update failed for TempRrd {%s}: %s", update, err.Error())
	}

	cp, _, _ := pm.store.GetPumpState(ResourceCPState, 0)
	pp, _, _ := pm.store.GetPumpState(ResourcePPState, 0)
	update = fmt.Sprintf("N:%d:%d", cp, pp)
	Debug("Updating PumpRrd: %s", update)
	if err := pm.pumpRrd.Updater().Update(update); err != nil {
		Error("Update failed for PumpRrd {%s}: %s", update, err.Error())
	}
}
