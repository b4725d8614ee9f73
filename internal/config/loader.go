package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/mistfan/internal/hw"
)

// Default timing values, in milliseconds.
const (
	DefaultPollMs        = 10
	DefaultDebounceMs    = 50
	DefaultClickWindowMs = 400
	DefaultLongPressMs   = 800
	DefaultIdleTimeoutMs = 2 * 60 * 60 * 1000
	DefaultHeartbeatMs   = 15 * 60 * 1000
)

// DefaultConfig returns a Config with the standard wiring and timings.
func DefaultConfig() Config {
	return Config{
		Pins: Pins{
			Mist: hw.DefaultPinMist,
			Buttons: []int{
				hw.DefaultPinButtonOne,
				hw.DefaultPinButtonTwo,
				hw.DefaultPinButtonThree,
			},
		},
		PWM: PWM{
			Chip:        0,
			Channel:     hw.DefaultPWMChannel,
			FrequencyHz: hw.DefaultPWMFrequencyHz,
			Bits:        hw.DefaultPWMPrecisionBits,
		},
		Timings: Timings{
			PollMs:        DefaultPollMs,
			DebounceMs:    DefaultDebounceMs,
			ClickWindowMs: DefaultClickWindowMs,
			LongPressMs:   DefaultLongPressMs,
			IdleTimeoutMs: DefaultIdleTimeoutMs,
		},
		MQTT: MQTT{
			ClientID:    "mistfan",
			HeartbeatMs: DefaultHeartbeatMs,
		},
		HTTP: HTTP{
			Addr: ":80",
		},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Load reads and parses the config file at path. If path is empty or the
// file does not exist, the defaults are returned. Fields missing from the
// file keep their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that all config values are usable.
func Validate(cfg *Config) error {
	if len(cfg.Pins.Buttons) != hw.NumButtons {
		return ValidationError{Field: "pins.buttons", Message: fmt.Sprintf("must list exactly %d pins", hw.NumButtons)}
	}
	if cfg.PWM.FrequencyHz <= 0 {
		return ValidationError{Field: "pwm.frequency_hz", Message: "must be positive"}
	}
	if cfg.PWM.Bits < 1 || cfg.PWM.Bits > 16 {
		return ValidationError{Field: "pwm.bits", Message: "must be between 1 and 16"}
	}
	if cfg.Timings.PollMs <= 0 {
		return ValidationError{Field: "timings.poll_ms", Message: "must be positive"}
	}
	if cfg.Timings.DebounceMs < 0 {
		return ValidationError{Field: "timings.debounce_ms", Message: "must not be negative"}
	}
	if cfg.Timings.ClickWindowMs <= 0 {
		return ValidationError{Field: "timings.click_window_ms", Message: "must be positive"}
	}
	if cfg.Timings.LongPressMs <= cfg.Timings.ClickWindowMs {
		return ValidationError{Field: "timings.long_press_ms", Message: "must be longer than the click window"}
	}
	if cfg.Timings.IdleTimeoutMs <= 0 {
		return ValidationError{Field: "timings.idle_timeout_ms", Message: "must be positive"}
	}
	if cfg.MQTT.HeartbeatMs < 0 {
		return ValidationError{Field: "mqtt.heartbeat_ms", Message: "must not be negative"}
	}
	return nil
}
