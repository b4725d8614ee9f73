// Package control wires button gestures to actuator actions and scheduled
// mist work, and owns the idle watchdog. Everything here runs on the single
// cooperative control loop: gesture polling is itself a zero-interval
// scheduler task, so one Scheduler.Tick drives the whole device.
package control

import (
	"log"
	"time"

	"github.com/sweeney/mistfan/internal/actuator"
	"github.com/sweeney/mistfan/internal/gesture"
	"github.com/sweeney/mistfan/internal/hw"
	"github.com/sweeney/mistfan/internal/mqtt"
	"github.com/sweeney/mistfan/internal/sched"
	"github.com/sweeney/mistfan/internal/status"
)

// Button indices, in connector order.
const (
	ButtonMist   = 0 // mist pulses and cycles
	ButtonFan    = 1 // fan on/off
	ButtonCancel = 2 // cancel cycle / cancel everything
)

// DefaultIdleTimeout is the inactivity window after which all outputs are
// forced off.
const DefaultIdleTimeout = 2 * time.Hour

// clickPulseDuration is the mist-on time for a single click.
const clickPulseDuration = 1000 * time.Millisecond

// cycleForClicks maps a click count on the mist button to a repeating cycle.
var cycleForClicks = map[int]status.Cycle{
	2: {On: 1000 * time.Millisecond, Off: 30000 * time.Millisecond},
	3: {On: 1000 * time.Millisecond, Off: 15000 * time.Millisecond},
	4: {On: 3000 * time.Millisecond, Off: 30000 * time.Millisecond},
	5: {On: 3000 * time.Millisecond, Off: 15000 * time.Millisecond},
}

// Config holds the orchestrator timing parameters.
type Config struct {
	IdleTimeout time.Duration
	Gesture     gesture.Config
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		IdleTimeout: DefaultIdleTimeout,
		Gesture:     gesture.DefaultConfig(),
	}
}

// Controller owns the gesture recognizers, the named scheduler tasks and the
// watchdog deadline. Not safe for concurrent use: everything runs inside
// Scheduler.Tick on one goroutine.
type Controller struct {
	cfg     Config
	clock   func() time.Time
	sched   *sched.Scheduler
	act     *actuator.Controller
	readers [hw.NumButtons]hw.ButtonReader
	recs    [hw.NumButtons]*gesture.Recognizer
	tracker *status.Tracker
	pub     mqtt.Publisher // nil disables the telemetry side-channel

	// Named task handles. At most one of each exists at a time: re-arming
	// cancels and discards the prior instance so stale handles never fire.
	pollTask   *sched.Task
	repeatTask *sched.Task
	idleTask   *sched.Task

	counts status.Counts
}

// New creates a Controller. pub may be nil to disable telemetry.
func New(clock func() time.Time, s *sched.Scheduler, act *actuator.Controller,
	readers [hw.NumButtons]hw.ButtonReader, tracker *status.Tracker, pub mqtt.Publisher, cfg Config) *Controller {
	c := &Controller{
		cfg:     cfg,
		clock:   clock,
		sched:   s,
		act:     act,
		readers: readers,
		tracker: tracker,
		pub:     pub,
	}
	for i := range c.recs {
		c.recs[i] = gesture.NewRecognizer(cfg.Gesture)
	}
	return c
}

// Start arms the control loop: gesture polling as a zero-interval repeating
// task, the idle watchdog, and the power-on state (fan on, mist off).
func (c *Controller) Start() {
	now := c.clock()
	c.pollTask = c.sched.ScheduleRepeating(0, c.pollButtons)
	c.armWatchdog(now)
	c.setFan(now, 100)
	c.syncTracker()
}

// pollButtons samples all three buttons and dispatches any completed
// gestures. Runs on every scheduler tick.
func (c *Controller) pollButtons(now time.Time) bool {
	for i := range c.readers {
		pressed, err := c.readers[i].Pressed()
		if err != nil {
			log.Printf("button %d read error: %v", i+1, err)
			continue
		}
		for _, ev := range c.recs[i].Process(gesture.Input{Pressed: pressed, Time: now}) {
			c.handleGesture(i, ev, now)
		}
	}
	return true
}

func (c *Controller) handleGesture(button int, ev gesture.Event, now time.Time) {
	// Every gesture re-arms the idle watchdog, before any action runs.
	c.armWatchdog(now)
	c.counts.Gestures++

	if ev.Type == gesture.EventMultiClick {
		log.Printf("button %d: %s n=%d", button+1, ev.Type, ev.Clicks)
	} else if ev.Type != gesture.EventLongPressRepeat {
		log.Printf("button %d: %s", button+1, ev.Type)
	}

	switch button {
	case ButtonMist:
		c.handleMistButton(ev, now)
	case ButtonFan:
		c.handleFanButton(ev, now)
	case ButtonCancel:
		c.handleCancelButton(ev, now)
	}
	c.syncTracker()
}

func (c *Controller) handleMistButton(ev gesture.Event, now time.Time) {
	switch ev.Type {
	case gesture.EventClick:
		c.mistPulse(now, clickPulseDuration)
	case gesture.EventDoubleClick, gesture.EventMultiClick:
		if cyc, ok := cycleForClicks[ev.Clicks]; ok {
			c.startCycle(now, cyc)
		}
	case gesture.EventLongPressStart, gesture.EventLongPressRepeat:
		c.setMist(now, true)
	case gesture.EventLongPressStop:
		c.setMist(now, false)
	}
}

func (c *Controller) handleFanButton(ev gesture.Event, now time.Time) {
	switch ev.Type {
	case gesture.EventClick:
		c.setFan(now, 100)
	case gesture.EventDoubleClick:
		c.setFan(now, 0)
	}
}

func (c *Controller) handleCancelButton(ev gesture.Event, now time.Time) {
	switch ev.Type {
	case gesture.EventClick:
		c.cancelCycle()
	case gesture.EventDoubleClick:
		c.cancelAll(now)
	}
}

// mistPulse turns the mist on immediately and schedules a one-shot off after
// the duration.
func (c *Controller) mistPulse(now time.Time, d time.Duration) {
	c.counts.MistPulses++
	c.setMist(now, true)
	c.sched.ScheduleOnce(d, func(now time.Time) bool {
		c.setMist(now, false)
		c.syncTracker()
		return false
	})
}

// startCycle replaces any running repeating cycle: one immediate pulse, then
// a repeating task with period on+off. The immediate pulse avoids waiting a
// full off duration before the first misting.
func (c *Controller) startCycle(now time.Time, cyc status.Cycle) {
	c.sched.Cancel(c.repeatTask)
	c.counts.CyclesStarted++
	log.Printf("mist cycle: on %v, off %v", cyc.On, cyc.Off)

	c.mistPulse(now, cyc.On)
	c.repeatTask = c.sched.ScheduleRepeating(cyc.On+cyc.Off, func(now time.Time) bool {
		if c.recs[ButtonMist].IsLongPressed() {
			// A human is holding the mist on. Skip this occurrence entirely;
			// the cycle itself stays scheduled.
			log.Printf("mist cycle: button held, skipping pulse")
			return true
		}
		c.mistPulse(now, cyc.On)
		c.syncTracker()
		return true
	})
	c.tracker.SetCycle(cyc)
}

// cancelCycle stops only the repeating mist cycle. Mist held on manually, a
// pending one-shot mist-off, and the fan are all unaffected.
func (c *Controller) cancelCycle() {
	c.counts.Cancels++
	log.Printf("mist cycle cancelled")
	c.sched.Cancel(c.repeatTask)
	c.repeatTask = nil
	c.tracker.SetCycle(status.Cycle{})
}

// cancelAll cancels every scheduled task and forces both outputs off.
func (c *Controller) cancelAll(now time.Time) {
	c.counts.Cancels++
	log.Printf("cancelling all tasks, forcing outputs off")
	c.clearAllTasks()
	c.setMist(now, false)
	c.setFan(now, 0)
}

// clearAllTasks wipes the scheduler and re-arms the gesture poll, which
// rides the same scheduler and must survive a cancel-all or the buttons
// would go dead. The watchdog stays disarmed until the next gesture.
func (c *Controller) clearAllTasks() {
	c.sched.CancelAll()
	c.repeatTask = nil
	c.idleTask = nil
	c.tracker.SetCycle(status.Cycle{})
	c.tracker.SetWatchdogDeadline(time.Time{})
	c.pollTask = c.sched.ScheduleRepeating(0, c.pollButtons)
}

// armWatchdog re-arms the idle deadline, discarding the prior timeout task.
func (c *Controller) armWatchdog(now time.Time) {
	c.sched.Cancel(c.idleTask)
	c.idleTask = c.sched.ScheduleOnce(c.cfg.IdleTimeout, c.idleTimeout)
	c.tracker.SetWatchdogDeadline(now.Add(c.cfg.IdleTimeout))
}

// idleTimeout is the fail-safe: after IdleTimeout with no gesture, cancel
// all outstanding work and force the outputs off. Nothing further happens
// until the next gesture re-arms the watchdog.
func (c *Controller) idleTimeout(now time.Time) bool {
	log.Printf("idle timeout after %v: cancelling tasks, forcing outputs off", c.cfg.IdleTimeout)
	c.counts.IdleTimeouts++
	c.clearAllTasks()
	c.setMist(now, false)
	c.setFan(now, 0)
	c.syncTracker()
	c.publishSystem(now, "IDLE_TIMEOUT", "")
	return false
}

// setMist applies the mist state and publishes the transition, if any.
func (c *Controller) setMist(now time.Time, on bool) {
	if !c.act.SetMist(on) {
		return
	}
	if on {
		log.Printf("mist ON")
		c.publishEvent(now, mqtt.EventMistOn)
	} else {
		log.Printf("mist OFF")
		c.publishEvent(now, mqtt.EventMistOff)
	}
}

// setFan applies a fan percent. On/off transitions (0 boundary crossings)
// are published; the duty write itself is unconditional.
func (c *Controller) setFan(now time.Time, percent int) {
	prev := c.act.State().FanDutyPercent
	applied := c.act.SetFanDutyPercent(percent)
	log.Printf("fan %d%%", applied)
	if (prev == 0) != (applied == 0) {
		if applied > 0 {
			c.publishEvent(now, mqtt.EventFanOn)
		} else {
			c.publishEvent(now, mqtt.EventFanOff)
		}
	}
}

func (c *Controller) publishEvent(now time.Time, typ mqtt.EventType) {
	if c.pub == nil {
		return
	}
	st := c.act.State()
	err := c.pub.Publish(mqtt.Event{
		Timestamp:  now,
		Type:       typ,
		MistOn:     st.MistOn,
		FanPercent: st.FanDutyPercent,
	})
	if err != nil {
		log.Printf("publish error: %v", err)
	}
}

func (c *Controller) publishSystem(now time.Time, event, reason string) {
	if c.pub == nil {
		return
	}
	snap := c.tracker.Snapshot()
	err := c.pub.PublishSystem(mqtt.SystemEvent{
		Timestamp:  now,
		Event:      event,
		Reason:     reason,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		log.Printf("system publish error: %v", err)
	}
}

func (c *Controller) syncTracker() {
	st := c.act.State()
	c.tracker.Update(st.MistOn, st.FanDutyPercent, c.counts)
}
