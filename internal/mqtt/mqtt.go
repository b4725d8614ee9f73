// Package mqtt publishes device telemetry with abstraction for testing.
// It is a diagnostic side-channel only: publish failures are reported to the
// caller for logging but must never gate control-flow correctness.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for actuator transition events.
const Topic = "home/mistfan/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/mistfan/system"

// EventType identifies an actuator transition.
type EventType string

const (
	EventMistOn  EventType = "MIST_ON"
	EventMistOff EventType = "MIST_OFF"
	EventFanOn   EventType = "FAN_ON"
	EventFanOff  EventType = "FAN_OFF"
)

// Event represents an actuator transition to be published.
type Event struct {
	Timestamp  time.Time
	Type       EventType
	MistOn     bool
	FanPercent int
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an actuator event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event
// (e.g. startup, shutdown, heartbeat, idle timeout).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g. "STARTUP", "SHUTDOWN", "HEARTBEAT", "IDLE_TIMEOUT"
	Reason     string // e.g. "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Mistfan DevicePayload `json:"mistfan"`
}

// DevicePayload contains the actuator event details.
type DevicePayload struct {
	Timestamp string    `json:"timestamp"`
	Event     string    `json:"event"`
	Mist      MistState `json:"mist"`
	Fan       FanState  `json:"fan"`
}

// MistState represents the mist output state.
type MistState struct {
	State string `json:"state"`
}

// FanState represents the fan output state.
type FanState struct {
	Percent int `json:"percent"`
}

// FormatPayload creates the JSON payload for an actuator event.
func FormatPayload(event Event) ([]byte, error) {
	mist := "OFF"
	if event.MistOn {
		mist = "ON"
	}
	payload := Payload{
		Mistfan: DevicePayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Mist:      MistState{State: mist},
			Fan:       FanState{Percent: event.FanPercent},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
