package internal

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/mistfan/internal/actuator"
	"github.com/sweeney/mistfan/internal/control"
	"github.com/sweeney/mistfan/internal/gesture"
	"github.com/sweeney/mistfan/internal/hw"
	"github.com/sweeney/mistfan/internal/mqtt"
	"github.com/sweeney/mistfan/internal/sched"
	"github.com/sweeney/mistfan/internal/status"
)

// rig wires the full device stack on fakes: fake clock, scheduler, gesture
// recognizers, actuator, status tracker and MQTT publisher.
type rig struct {
	now     time.Time
	sched   *sched.Scheduler
	mist    *hw.FakeDigital
	fan     *hw.FakePWM
	buttons [hw.NumButtons]*hw.FakeButton
	act     *actuator.Controller
	tracker *status.Tracker
	pub     *mqtt.FakePublisher
	ctl     *control.Controller
}

func newRig(cfg control.Config) *rig {
	r := &rig{
		now:  time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
		mist: &hw.FakeDigital{},
		fan:  &hw.FakePWM{},
		pub:  mqtt.NewFakePublisher(),
	}
	clock := func() time.Time { return r.now }
	r.sched = sched.New(clock)
	r.act = actuator.New(r.mist, r.fan, 8)
	r.tracker = status.NewTracker(r.now, status.Config{Broker: "tcp://localhost:1883"})

	var readers [hw.NumButtons]hw.ButtonReader
	for i := range r.buttons {
		r.buttons[i] = &hw.FakeButton{}
		readers[i] = r.buttons[i]
	}

	r.ctl = control.New(clock, r.sched, r.act, readers, r.tracker, r.pub, cfg)
	r.ctl.Start()
	r.sched.Tick()
	return r
}

// run advances time in 10ms poll steps, ticking the scheduler at each step.
func (r *rig) run(d time.Duration) {
	const step = 10 * time.Millisecond
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		r.now = r.now.Add(step)
		r.sched.Tick()
	}
}

func (r *rig) click(button int) {
	r.buttons[button].Down = true
	r.run(100 * time.Millisecond)
	r.buttons[button].Down = false
	r.run(500 * time.Millisecond)
}

func (r *rig) doubleClick(button int) {
	for i := 0; i < 2; i++ {
		r.buttons[button].Down = true
		r.run(100 * time.Millisecond)
		r.buttons[button].Down = false
		r.run(150 * time.Millisecond)
	}
	r.run(500 * time.Millisecond)
}

// TestIntegrationClickToMQTTPayload checks the exact JSON that leaves the
// device for a single mist pulse, startup fan-on included.
func TestIntegrationClickToMQTTPayload(t *testing.T) {
	r := newRig(control.DefaultConfig())

	r.click(control.ButtonMist)
	r.run(1100 * time.Millisecond) // let the pulse's one-shot off fire

	if len(r.pub.Payloads) != 3 {
		t.Fatalf("expected 3 payloads (FAN_ON, MIST_ON, MIST_OFF), got %d", len(r.pub.Payloads))
	}

	expected := []string{
		`{"mistfan":{"timestamp":"2026-07-01T12:00:00Z","event":"FAN_ON","mist":{"state":"OFF"},"fan":{"percent":100}}}`,
		`{"mistfan":{"timestamp":"2026-07-01T12:00:00Z","event":"MIST_ON","mist":{"state":"ON"},"fan":{"percent":100}}}`,
		`{"mistfan":{"timestamp":"2026-07-01T12:00:01Z","event":"MIST_OFF","mist":{"state":"OFF"},"fan":{"percent":100}}}`,
	}
	for i, want := range expected {
		if string(r.pub.Payloads[i]) != want {
			t.Errorf("payload %d:\ngot:  %s\nwant: %s", i, r.pub.Payloads[i], want)
		}
	}
}

// TestIntegrationFullFlow drives gestures through every layer and checks the
// published event sequence.
func TestIntegrationFullFlow(t *testing.T) {
	r := newRig(control.DefaultConfig())

	r.click(control.ButtonMist)         // pulse
	r.run(1100 * time.Millisecond)      // pulse off fires
	r.doubleClick(control.ButtonMist)   // start 1s/30s cycle (immediate pulse)
	r.run(2 * time.Second)              // cycle pulse off fires
	r.doubleClick(control.ButtonFan)    // fan off
	r.click(control.ButtonFan)          // fan back on
	r.doubleClick(control.ButtonCancel) // cancel everything

	var types []mqtt.EventType
	for _, ev := range r.pub.Events {
		types = append(types, ev.Type)
	}

	want := []mqtt.EventType{
		mqtt.EventFanOn,   // startup
		mqtt.EventMistOn,  // click pulse
		mqtt.EventMistOff, // pulse expires
		mqtt.EventMistOn,  // cycle immediate pulse
		mqtt.EventMistOff, // cycle pulse expires
		mqtt.EventFanOff,  // fan double click
		mqtt.EventFanOn,   // fan click
		mqtt.EventFanOff,  // cancel all
	}
	if len(types) != len(want) {
		t.Fatalf("event sequence: got %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event %d: got %s, want %s (full sequence %v)", i, types[i], want[i], types)
		}
	}

	if r.mist.On {
		t.Error("expected mist off after cancel all")
	}
	if r.fan.Duty != 0 {
		t.Errorf("expected fan duty 0 after cancel all, got %d", r.fan.Duty)
	}
}

// TestIntegrationCycleInStatusJSON checks the web JSON after a cycle starts.
func TestIntegrationCycleInStatusJSON(t *testing.T) {
	r := newRig(control.DefaultConfig())

	r.doubleClick(control.ButtonMist)

	var sj status.StatusJSON
	if err := json.Unmarshal(status.FormatJSON(r.tracker.Snapshot()), &sj); err != nil {
		t.Fatalf("invalid status JSON: %v", err)
	}

	if sj.Status.Mist != "ON" {
		t.Errorf("mist: got %q, want ON (cycle pulse still running)", sj.Status.Mist)
	}
	if sj.Status.FanPercent != 100 {
		t.Errorf("fan: got %d, want 100", sj.Status.FanPercent)
	}
	if sj.Status.Cycle == nil || sj.Status.Cycle.OnMs != 1000 || sj.Status.Cycle.OffMs != 30000 {
		t.Errorf("cycle: got %+v, want 1000/30000", sj.Status.Cycle)
	}
	if sj.Status.Counts.CyclesStarted != 1 {
		t.Errorf("cycles started: got %d, want 1", sj.Status.Counts.CyclesStarted)
	}
	if sj.Status.Counts.MistPulses != 1 {
		t.Errorf("mist pulses: got %d, want 1", sj.Status.Counts.MistPulses)
	}
	if sj.Status.WatchdogDeadline == "" {
		t.Error("expected a watchdog deadline while armed")
	}
}

// TestIntegrationIdleTimeoutSystemEvent checks that an idle timeout publishes
// a full status snapshot on the system topic.
func TestIntegrationIdleTimeoutSystemEvent(t *testing.T) {
	r := newRig(control.Config{
		IdleTimeout: 5 * time.Second,
		Gesture:     gesture.DefaultConfig(),
	})

	// No gestures at all: the watchdog armed at startup fires alone.
	r.run(6 * time.Second)

	if len(r.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(r.pub.SystemEvents))
	}
	se := r.pub.SystemEvents[0]
	if se.Event != "IDLE_TIMEOUT" {
		t.Fatalf("expected IDLE_TIMEOUT, got %q", se.Event)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal(r.pub.SystemPayloads[0], &sj); err != nil {
		t.Fatalf("invalid system payload: %v", err)
	}
	if sj.Status.Event != "IDLE_TIMEOUT" {
		t.Errorf("payload event: got %q, want IDLE_TIMEOUT", sj.Status.Event)
	}
	if sj.Status.Mist != "OFF" {
		t.Errorf("payload mist: got %q, want OFF", sj.Status.Mist)
	}
	if sj.Status.FanPercent != 0 {
		t.Errorf("payload fan: got %d, want 0", sj.Status.FanPercent)
	}
	if sj.Status.Counts.IdleTimeouts != 1 {
		t.Errorf("payload idle timeouts: got %d, want 1", sj.Status.Counts.IdleTimeouts)
	}
	if sj.Status.WatchdogDeadline != "" {
		t.Errorf("expected no watchdog deadline after timeout, got %q", sj.Status.WatchdogDeadline)
	}
}

// TestIntegrationPublishFailureDoesNotBreakControl verifies that a dead
// broker never gates actuator behavior.
func TestIntegrationPublishFailureDoesNotBreakControl(t *testing.T) {
	r := newRig(control.DefaultConfig())
	r.pub.PublishError = errors.New("broker unavailable")

	r.click(control.ButtonMist)

	if !r.mist.On {
		t.Error("expected mist on despite publish failures")
	}

	r.run(1100 * time.Millisecond)
	if r.mist.On {
		t.Error("expected pulse to expire despite publish failures")
	}
}

// TestIntegrationSystemPayloadFormat verifies the exact JSON structure for
// plain system events (no status snapshot attached).
func TestIntegrationSystemPayloadFormat(t *testing.T) {
	pub := mqtt.NewFakePublisher()

	event := mqtt.SystemEvent{
		Timestamp: time.Date(2026, 7, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}
	if err := pub.PublishSystem(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-07-03T10:30:45Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(pub.SystemPayloads[0]) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", pub.SystemPayloads[0], expected)
	}
}

// TestIntegrationButtonsAliveAfterIdleTimeout verifies the device recovers
// from a timeout on the next gesture.
func TestIntegrationButtonsAliveAfterIdleTimeout(t *testing.T) {
	r := newRig(control.Config{
		IdleTimeout: 5 * time.Second,
		Gesture:     gesture.DefaultConfig(),
	})

	r.run(6 * time.Second)
	if r.fan.Duty != 0 {
		t.Fatalf("expected fan off after timeout, got duty %d", r.fan.Duty)
	}

	r.click(control.ButtonFan)
	if r.fan.Duty != 255 {
		t.Errorf("expected fan back at full duty after recovery click, got %d", r.fan.Duty)
	}
	if r.tracker.Snapshot().WatchdogDeadline.IsZero() {
		t.Error("expected watchdog re-armed by recovery click")
	}
}
