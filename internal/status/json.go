package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event            string     `json:"event,omitempty"`
	Reason           string     `json:"reason,omitempty"`
	Mist             string     `json:"mist"`
	FanPercent       int        `json:"fan_percent"`
	Cycle            *CycleJSON `json:"cycle,omitempty"`
	WatchdogDeadline string     `json:"watchdog_deadline,omitempty"`
	UptimeSeconds    int64      `json:"uptime_seconds"`
	StartTime        string     `json:"start_time"`
	Timestamp        string     `json:"timestamp"`
	MQTT             MQTTStatus `json:"mqtt"`
	Counts           CountsJSON `json:"counts"`
	Config           ConfigJSON `json:"config"`
}

// CycleJSON describes the active repeating mist cycle.
type CycleJSON struct {
	OnMs  int64 `json:"on_ms"`
	OffMs int64 `json:"off_ms"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of action counts.
type CountsJSON struct {
	Gestures      int `json:"gestures"`
	MistPulses    int `json:"mist_pulses"`
	CyclesStarted int `json:"cycles_started"`
	Cancels       int `json:"cancels"`
	IdleTimeouts  int `json:"idle_timeouts"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs        int64  `json:"poll_ms"`
	DebounceMs    int64  `json:"debounce_ms"`
	ClickWindowMs int64  `json:"click_window_ms"`
	LongPressMs   int64  `json:"long_press_ms"`
	IdleTimeoutMs int64  `json:"idle_timeout_ms"`
	HeartbeatMs   int64  `json:"heartbeat_ms"`
	Broker        string `json:"broker"`
	HTTPAddr      string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	mist := "OFF"
	if snap.MistOn {
		mist = "ON"
	}

	inner := StatusInner{
		Mist:          mist,
		FanPercent:    snap.FanPercent,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Gestures:      snap.Counts.Gestures,
			MistPulses:    snap.Counts.MistPulses,
			CyclesStarted: snap.Counts.CyclesStarted,
			Cancels:       snap.Counts.Cancels,
			IdleTimeouts:  snap.Counts.IdleTimeouts,
		},
		Config: ConfigJSON{
			PollMs:        snap.Config.PollMs,
			DebounceMs:    snap.Config.DebounceMs,
			ClickWindowMs: snap.Config.ClickWindowMs,
			LongPressMs:   snap.Config.LongPressMs,
			IdleTimeoutMs: snap.Config.IdleTimeoutMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			Broker:        snap.Config.Broker,
			HTTPAddr:      snap.Config.HTTPAddr,
		},
	}

	if snap.Cycle.Active() {
		inner.Cycle = &CycleJSON{
			OnMs:  snap.Cycle.On.Milliseconds(),
			OffMs: snap.Cycle.Off.Milliseconds(),
		}
	}
	if !snap.WatchdogDeadline.IsZero() {
		inner.WatchdogDeadline = snap.WatchdogDeadline.UTC().Format(time.RFC3339)
	}

	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
