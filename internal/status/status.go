// Package status provides a thread-safe status tracker for the mistfan
// daemon. The control loop writes it; HTTP handlers and MQTT system events
// read it.
package status

import (
	"sync"
	"time"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs        int64
	DebounceMs    int64
	ClickWindowMs int64
	LongPressMs   int64
	IdleTimeoutMs int64
	HeartbeatMs   int64
	Broker        string
	HTTPAddr      string
}

// Counts tracks how often the control loop acted since startup.
type Counts struct {
	Gestures      int
	MistPulses    int
	CyclesStarted int
	Cancels       int
	IdleTimeouts  int
}

// Cycle describes the active repeating mist cycle. Zero values mean no cycle
// is running.
type Cycle struct {
	On  time.Duration
	Off time.Duration
}

// Active reports whether a repeating cycle is running.
func (c Cycle) Active() bool {
	return c.On > 0
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	MistOn           bool
	FanPercent       int
	Cycle            Cycle
	WatchdogDeadline time.Time // zero after an idle timeout, until the next gesture
	Counts           Counts
	StartTime        time.Time
	Now              time.Time
	MQTTConnected    bool
	Config           Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets actuator state and counts. Called from the control loop.
func (t *Tracker) Update(mistOn bool, fanPercent int, counts Counts) {
	t.mu.Lock()
	t.snap.MistOn = mistOn
	t.snap.FanPercent = fanPercent
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetCycle records the active repeating mist cycle (zero Cycle = none).
func (t *Tracker) SetCycle(c Cycle) {
	t.mu.Lock()
	t.snap.Cycle = c
	t.mu.Unlock()
}

// SetWatchdogDeadline records the current idle deadline. A zero time means
// the watchdog has fired and is waiting for the next gesture.
func (t *Tracker) SetWatchdogDeadline(deadline time.Time) {
	t.mu.Lock()
	t.snap.WatchdogDeadline = deadline
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
