package main

import "time"

const (
	// controlPeriod is the fixed evaluation period of both control tasks.
	controlPeriod = time.Second
	// stabilizationDelay gives freshly booted sensors time to settle before
	// the first evaluation.
	stabilizationDelay = 10 * time.Second
)

// nextWake returns the first ideal wake time after now on the absolute
// schedule start, start+period, start+2*period, ...  Computing from the
// schedule origin rather than from the end of the last iteration keeps work
// jitter from accumulating as drift.  All comparisons are on differences, so
// the arithmetic is safe against counter wraparound.
func nextWake(start time.Time, period time.Duration, now time.Time) time.Time {
	if period <= 0 {
		return now
	}
	elapsed := now.Sub(start)
	if elapsed < 0 {
		return start
	}
	return start.Add((elapsed/period + 1) * period)
}

// durationFromSeconds converts a configured floating-point second count to a
// Duration without losing sub-second precision.
func durationFromSeconds(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// runControlTask drives a control loop: force the owned actuator to a safe
// state, hold off for the stabilization delay, then evaluate once per period
// on an absolute-time schedule.  The done channel is only observed at the
// wait boundaries so a cancellation never interrupts an evaluation.
func runControlTask(done chan bool, settle, period time.Duration, forceOff func(), step func(time.Time)) {
	forceOff()
	select {
	case <-done:
		return
	case <-time.After(settle):
	}
	start := time.Now()
	for {
		step(time.Now())
		wake := nextWake(start, period, time.Now())
		select {
		case <-done:
			return
		case <-time.After(time.Until(wake)):
		}
	}
}

// CPController runs the circulation pump on a thermal differential with
// hysteresis.  The pump turns on when the hot probe leads the cold probe by
// at least the on-delta, and off again once the lead collapses to the
// off-delta.  The gap between the two deltas forms a deadband that keeps the
// relay from chattering as the differential hovers near a single threshold.
type CPController struct {
	store  *Datastore
	pumps  PumpCommander
	period time.Duration
	settle time.Duration
	state  PumpState
	done   chan bool
}

// NewCPController creates the circulation pump controller in its safe
// default state.
func NewCPController(store *Datastore, pumps PumpCommander) *CPController {
	return &CPController{
		store:  store,
		pumps:  pumps,
		period: controlPeriod,
		settle: stabilizationDelay,
		state:  PumpOff,
		done:   make(chan bool),
	}
}

// Start kicks off the control task.
func (c *CPController) Start() {
	go runControlTask(c.done, c.settle, c.period, c.forceOff, c.evaluate)
}

// Stop ends the control task at the next wait boundary.
func (c *CPController) Stop() {
	c.done <- true
}

// forceOff commands the pump off regardless of any state a previous boot may
// have left behind.  There is no read-back of hardware state on restart; off
// is always the starting point.
func (c *CPController) forceOff() {
	c.state = PumpOff
	if err := c.pumps.SetPump(CirculationPump, PumpOff); err != nil {
		Error("CP: startup off command failed: %s", err.Error())
	}
}

// evaluate runs one period of the hysteresis relay.  The pump is commanded
// only on a state transition, never re-written on a steady state.  Inclusive
// comparisons deliberately favor action at the exact threshold.
func (c *CPController) evaluate(now time.Time) {
	t1, _, err1 := c.store.GetFloat(ResourceTempValue, 0)
	t2, _, err2 := c.store.GetFloat(ResourceTempValue, 1)
	Debug("CP: state %s, T1 %0.2f, T2 %0.2f", c.state, t1, t2)

	transition := false
	switch c.state {
	case PumpOff:
		// A failed read must never produce an uncontrolled on command,
		// so the on-transition only fires on good data.
		if err1 != nil || err2 != nil {
			return
		}
		delta, _, err := c.store.GetFloat(ResourceCPOnDelta, 0)
		if err != nil {
			Debug("CP: on-delta unavailable: %s", err.Error())
			return
		}
		if t1-t2 >= delta {
			c.state = PumpOn
			transition = true
		}
	case PumpOn:
		// Missing readings fall through as zero, which reads as a
		// collapsed differential and drifts the pump toward off.
		delta, _, err := c.store.GetFloat(ResourceCPOffDelta, 0)
		if err != nil {
			Debug("CP: off-delta unavailable: %s", err.Error())
		}
		if t1-t2 <= delta {
			c.state = PumpOff
			transition = true
		}
	default:
		Error("CP: invalid state %d", c.state)
		return
	}

	if transition {
		Info("CP %s: T1 %0.2f, T2 %0.2f", c.state, t1, t2)
		if err := c.pumps.SetPump(CirculationPump, c.state); err != nil {
			// Not retried this period; the next transition re-issues it.
			Error("CP: pump command failed: %s", err.Error())
		}
	}
}

// ppPhase is the priming pump's cycle phase.
type ppPhase int

const (
	// ppIdle means no priming sequence is active.
	ppIdle ppPhase = iota
	// ppRunning means the pump is on within a priming cycle.
	ppRunning
	// ppPaused means the pump is resting between priming cycles.
	ppPaused
)

func (p ppPhase) String() string {
	switch p {
	case ppIdle:
		return "Idle"
	case ppRunning:
		return "Running"
	case ppPaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// PPController runs the priming pump as a bounded duty-cycle sequence.  When
// the circulation pump is on but flow is at or below the threshold, the pump
// performs a configured number of on/pause cycles and then returns to idle
// until the trigger condition arms again.  The remaining cycle count is
// loaded once per trigger and is private to the sequence; mid-sequence
// configuration changes take effect on the next trigger.
type PPController struct {
	store  *Datastore
	pumps  PumpCommander
	period time.Duration
	settle time.Duration

	phase      ppPhase
	cycleStart time.Time
	remaining  uint32
	done       chan bool
}

// NewPPController creates the priming pump controller in its safe default
// state.
func NewPPController(store *Datastore, pumps PumpCommander) *PPController {
	return &PPController{
		store:  store,
		pumps:  pumps,
		period: controlPeriod,
		settle: stabilizationDelay,
		phase:  ppIdle,
		done:   make(chan bool),
	}
}

// Start kicks off the control task.
func (c *PPController) Start() {
	go runControlTask(c.done, c.settle, c.period, c.forceOff, c.evaluate)
}

// Stop ends the control task at the next wait boundary.
func (c *PPController) Stop() {
	c.done <- true
}

func (c *PPController) forceOff() {
	c.phase = ppIdle
	c.remaining = 0
	if err := c.pumps.SetPump(PrimingPump, PumpOff); err != nil {
		Error("PP: startup off command failed: %s", err.Error())
	}
}

func (c *PPController) command(state PumpState) {
	if err := c.pumps.SetPump(PrimingPump, state); err != nil {
		Error("PP: pump command failed: %s", err.Error())
	}
}

// cycleDuration reads a configured cycle duration.  A missing or
// non-positive value returns ok=false; callers decide which way that fails,
// but it always fails toward the pump being off.
func (c *PPController) cycleDuration(id ResourceID) (time.Duration, bool) {
	seconds, _, err := c.store.GetFloat(id, 0)
	if err != nil {
		Debug("PP: %s unavailable: %s", id, err.Error())
		return 0, false
	}
	d := durationFromSeconds(seconds)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// evaluate advances the duty-cycle state machine by one period.  The pump is
// commanded only on phase transitions.
func (c *PPController) evaluate(now time.Time) {
	Debug("PP: phase %s, remaining %d", c.phase, c.remaining)
	switch c.phase {
	case ppIdle:
		cpState, _, err := c.store.GetPumpState(ResourceCPState, 0)
		if err != nil || cpState != PumpOn {
			return
		}
		flow, _, err := c.store.GetFloat(ResourceFlowRate, 0)
		if err != nil {
			Debug("PP: flow rate unavailable: %s", err.Error())
			return
		}
		threshold, _, err := c.store.GetFloat(ResourceFlowThreshold, 0)
		if err != nil {
			Debug("PP: flow threshold unavailable: %s", err.Error())
			return
		}
		if flow > threshold {
			return
		}
		count, _, err := c.store.GetUint32(ResourcePPCycleCount, 0)
		if err != nil || count == 0 {
			// Zero configured cycles means priming is disabled.
			return
		}
		Info("PP priming: CP on, flow %0.2f <= %0.2f, %d cycles", flow, threshold, count)
		c.phase = ppRunning
		c.cycleStart = now
		c.remaining = count - 1 // the triggering cycle consumes one count
		c.command(PumpOn)
	case ppRunning:
		// A bad on-duration ends the running phase immediately rather
		// than leaving the pump energized.
		duration, ok := c.cycleDuration(ResourcePPCycleOnDuration)
		if ok && now.Sub(c.cycleStart) < duration {
			return
		}
		c.phase = ppPaused
		c.cycleStart = now
		c.command(PumpOff)
	case ppPaused:
		// A bad pause duration holds the pause; the pump stays off.
		duration, ok := c.cycleDuration(ResourcePPCyclePauseDuration)
		if !ok || now.Sub(c.cycleStart) < duration {
			return
		}
		if c.remaining > 0 {
			c.remaining--
			c.phase = ppRunning
			c.cycleStart = now
			c.command(PumpOn)
		} else {
			Info("PP priming sequence complete")
			c.phase = ppIdle
			c.command(PumpOff)
		}
	default:
		Error("PP: invalid phase %d", c.phase)
	}
}
