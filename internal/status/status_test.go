package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{PollMs: 10, DebounceMs: 50, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.PollMs != 10 {
		t.Errorf("Config.PollMs: got %d, want 10", snap.Config.PollMs)
	}
	if snap.MistOn {
		t.Error("expected MistOn=false initially")
	}
	if snap.Cycle.Active() {
		t.Error("expected no active cycle initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(true, 100, Counts{Gestures: 3, MistPulses: 2})

	snap := tr.Snapshot()
	if !snap.MistOn {
		t.Error("expected MistOn=true")
	}
	if snap.FanPercent != 100 {
		t.Errorf("FanPercent: got %d, want 100", snap.FanPercent)
	}
	if snap.Counts.Gestures != 3 || snap.Counts.MistPulses != 2 {
		t.Errorf("Counts: got %+v", snap.Counts)
	}
}

func TestSetCycle(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetCycle(Cycle{On: time.Second, Off: 30 * time.Second})
	snap := tr.Snapshot()
	if !snap.Cycle.Active() {
		t.Fatal("expected active cycle")
	}
	if snap.Cycle.On != time.Second || snap.Cycle.Off != 30*time.Second {
		t.Errorf("Cycle: got %+v", snap.Cycle)
	}

	tr.SetCycle(Cycle{})
	if tr.Snapshot().Cycle.Active() {
		t.Error("expected cycle cleared")
	}
}

func TestSetWatchdogDeadline(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	deadline := time.Date(2026, 1, 1, 14, 0, 0, 0, time.UTC)
	tr.SetWatchdogDeadline(deadline)
	if got := tr.Snapshot().WatchdogDeadline; !got.Equal(deadline) {
		t.Errorf("deadline: got %v, want %v", got, deadline)
	}

	tr.SetWatchdogDeadline(time.Time{})
	if got := tr.Snapshot().WatchdogDeadline; !got.IsZero() {
		t.Errorf("expected zero deadline after timeout, got %v", got)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(true, 100, Counts{})

	snap := tr.Snapshot()
	tr.Update(false, 0, Counts{})

	if !snap.MistOn {
		t.Error("snapshot mutated by later Update")
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			tr.Update(n%2 == 0, n*10, Counts{Gestures: n})
		}(i)
		go func() {
			defer wg.Done()
			_ = tr.Snapshot()
		}()
	}
	wg.Wait()
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{Broker: "tcp://localhost:1883", IdleTimeoutMs: 7200000})
	tr.Update(true, 100, Counts{MistPulses: 4})
	tr.SetCycle(Cycle{On: time.Second, Off: 15 * time.Second})

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if sj.Status.Mist != "ON" {
		t.Errorf("mist: got %q, want ON", sj.Status.Mist)
	}
	if sj.Status.FanPercent != 100 {
		t.Errorf("fan: got %d, want 100", sj.Status.FanPercent)
	}
	if sj.Status.Cycle == nil || sj.Status.Cycle.OnMs != 1000 || sj.Status.Cycle.OffMs != 15000 {
		t.Errorf("cycle: got %+v", sj.Status.Cycle)
	}
	if sj.Status.Counts.MistPulses != 4 {
		t.Errorf("mist pulses: got %d, want 4", sj.Status.Counts.MistPulses)
	}
	if sj.Status.Config.IdleTimeoutMs != 7200000 {
		t.Errorf("idle timeout: got %d", sj.Status.Config.IdleTimeoutMs)
	}
	if sj.Status.Event != "" {
		t.Errorf("web JSON should carry no event, got %q", sj.Status.Event)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	var sj StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM"), &sj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" {
		t.Errorf("event: got %q, want SHUTDOWN", sj.Status.Event)
	}
	if sj.Status.Reason != "SIGTERM" {
		t.Errorf("reason: got %q, want SIGTERM", sj.Status.Reason)
	}
	if sj.Status.Cycle != nil {
		t.Errorf("expected no cycle block, got %+v", sj.Status.Cycle)
	}
}
