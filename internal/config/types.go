// Package config loads the daemon configuration from a YAML file, applying
// defaults for anything left unset.
package config

import "time"

// Pins selects the GPIO lines for the mist output and the buttons. The fan
// is driven by a PWM channel, configured separately.
type Pins struct {
	Mist    int   `yaml:"mist"`
	Buttons []int `yaml:"buttons"`
}

// PWM configures the fan PWM output.
type PWM struct {
	Chip        int `yaml:"chip"`
	Channel     int `yaml:"channel"`
	FrequencyHz int `yaml:"frequency_hz"`
	Bits        int `yaml:"bits"`
}

// Timings holds the gesture and watchdog durations, in milliseconds.
type Timings struct {
	PollMs        int64 `yaml:"poll_ms"`
	DebounceMs    int64 `yaml:"debounce_ms"`
	ClickWindowMs int64 `yaml:"click_window_ms"`
	LongPressMs   int64 `yaml:"long_press_ms"`
	IdleTimeoutMs int64 `yaml:"idle_timeout_ms"`
}

// MQTT configures the telemetry publisher. An empty or "off" broker disables
// publishing entirely.
type MQTT struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	HeartbeatMs int64  `yaml:"heartbeat_ms"`
}

// HTTP configures the status web server. An empty or "off" addr disables it.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// Config represents the full daemon configuration file.
type Config struct {
	Pins    Pins    `yaml:"pins"`
	PWM     PWM     `yaml:"pwm"`
	Timings Timings `yaml:"timings"`
	MQTT    MQTT    `yaml:"mqtt"`
	HTTP    HTTP    `yaml:"http"`
}

// Poll returns the button poll interval as a duration.
func (t Timings) Poll() time.Duration { return time.Duration(t.PollMs) * time.Millisecond }

// Debounce returns the debounce window as a duration.
func (t Timings) Debounce() time.Duration { return time.Duration(t.DebounceMs) * time.Millisecond }

// ClickWindow returns the multi-click window as a duration.
func (t Timings) ClickWindow() time.Duration { return time.Duration(t.ClickWindowMs) * time.Millisecond }

// LongPress returns the long-press threshold as a duration.
func (t Timings) LongPress() time.Duration { return time.Duration(t.LongPressMs) * time.Millisecond }

// IdleTimeout returns the idle watchdog timeout as a duration.
func (t Timings) IdleTimeout() time.Duration { return time.Duration(t.IdleTimeoutMs) * time.Millisecond }

// Heartbeat returns the heartbeat interval as a duration. Zero disables it.
func (m MQTT) Heartbeat() time.Duration { return time.Duration(m.HeartbeatMs) * time.Millisecond }
