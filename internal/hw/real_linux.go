//go:build linux

package hw

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// RealIO owns the device hardware: one GPIO chip with the mist output and the
// three button inputs, plus one sysfs PWM channel for the fan.
type RealIO struct {
	chip    *gpiocdev.Chip
	mist    *gpiocdev.Line
	buttons [NumButtons]*gpiocdev.Line
	fan     *SysfsPWM
}

// Pins describes the GPIO/PWM wiring to open.
type Pins struct {
	Mist    int
	Buttons [NumButtons]int

	PWMChip       int
	PWMChannel    int
	PWMFreqHz     uint32
	PrecisionBits uint
}

// DefaultPins returns the wiring from the device schematic.
func DefaultPins() Pins {
	return Pins{
		Mist:          DefaultPinMist,
		Buttons:       [NumButtons]int{DefaultPinButtonOne, DefaultPinButtonTwo, DefaultPinButtonThree},
		PWMChip:       0,
		PWMChannel:    DefaultPWMChannel,
		PWMFreqHz:     DefaultPWMFrequencyHz,
		PrecisionBits: DefaultPWMPrecisionBits,
	}
}

// OpenReal claims the GPIO lines and PWM channel for actual hardware.
func OpenReal(pins Pins) (*RealIO, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	io := &RealIO{chip: chip}

	// Mist solenoid output, initially off.
	io.mist, err = chip.RequestLine(pins.Mist,
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer("mistfan"))
	if err != nil {
		io.Close()
		return nil, fmt.Errorf("request mist pin %d: %w", pins.Mist, err)
	}

	// Buttons are active-low with the internal pull-up enabled.
	for i, pin := range pins.Buttons {
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			io.Close()
			return nil, fmt.Errorf("request button %d pin %d: %w", i+1, pin, err)
		}
		io.buttons[i] = line
	}

	io.fan, err = NewSysfsPWM(pins.PWMChip, pins.PWMChannel, pins.PWMFreqHz, pins.PrecisionBits)
	if err != nil {
		io.Close()
		return nil, fmt.Errorf("init fan pwm: %w", err)
	}

	return io, nil
}

// Mist returns the solenoid output.
func (io *RealIO) Mist() DigitalWriter { return (*mistLine)(io.mist) }

// Fan returns the fan PWM channel.
func (io *RealIO) Fan() PWM { return io.fan }

// Button returns the reader for button i (0-based).
func (io *RealIO) Button(i int) ButtonReader { return (*buttonLine)(io.buttons[i]) }

// Close releases all claimed lines and the PWM channel. The mist output is
// driven low before release so the solenoid cannot stay latched on.
func (io *RealIO) Close() error {
	var errs []error

	if io.mist != nil {
		if err := io.mist.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("mist off: %w", err))
		}
		if err := io.mist.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close mist: %w", err))
		}
	}
	for i, line := range io.buttons {
		if line == nil {
			continue
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button %d: %w", i+1, err))
		}
	}
	if io.fan != nil {
		if err := io.fan.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close fan pwm: %w", err))
		}
	}
	if io.chip != nil {
		if err := io.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// mistLine adapts a gpiocdev output line to DigitalWriter.
type mistLine gpiocdev.Line

func (l *mistLine) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return (*gpiocdev.Line)(l).SetValue(v)
}

func (l *mistLine) Close() error { return nil } // owned by RealIO

// buttonLine adapts a gpiocdev input line to ButtonReader, inverting the
// active-low level: raw 0 = pressed.
type buttonLine gpiocdev.Line

func (l *buttonLine) Pressed() (bool, error) {
	v, err := (*gpiocdev.Line)(l).Value()
	if err != nil {
		return false, fmt.Errorf("read button: %w", err)
	}
	return v == 0, nil
}

func (l *buttonLine) Close() error { return nil } // owned by RealIO

// SysfsPWM drives a hardware PWM channel through the Linux sysfs interface
// (/sys/class/pwm/pwmchipN/pwmM). Duty values are raw counts against
// 2^precision-1 and are converted to nanoseconds of the period on write.
type SysfsPWM struct {
	dir      string
	periodNs uint64
	maxDuty  uint32
}

// NewSysfsPWM exports and configures a PWM channel at the given frequency.
func NewSysfsPWM(chip, channel int, freqHz uint32, precisionBits uint) (*SysfsPWM, error) {
	if freqHz == 0 {
		return nil, fmt.Errorf("pwm frequency must be non-zero")
	}

	chipDir := fmt.Sprintf("/sys/class/pwm/pwmchip%d", chip)
	p := &SysfsPWM{
		dir:      filepath.Join(chipDir, fmt.Sprintf("pwm%d", channel)),
		periodNs: uint64(1e9) / uint64(freqHz),
		maxDuty:  (uint32(1) << precisionBits) - 1,
	}

	// Export is a no-op if the channel is already exported.
	if _, err := os.Stat(p.dir); os.IsNotExist(err) {
		if err := writeSysfs(filepath.Join(chipDir, "export"), channel); err != nil {
			return nil, fmt.Errorf("export pwm channel %d: %w", channel, err)
		}
	}

	if err := writeSysfs(filepath.Join(p.dir, "duty_cycle"), 0); err != nil {
		return nil, fmt.Errorf("zero duty_cycle: %w", err)
	}
	if err := writeSysfs(filepath.Join(p.dir, "period"), int(p.periodNs)); err != nil {
		return nil, fmt.Errorf("set period: %w", err)
	}
	if err := writeSysfs(filepath.Join(p.dir, "enable"), 1); err != nil {
		return nil, fmt.Errorf("enable: %w", err)
	}

	return p, nil
}

// SetDuty writes a raw duty value in [0, 2^precision-1]. Values above the
// maximum are treated as full on.
func (p *SysfsPWM) SetDuty(duty uint32) error {
	if duty > p.maxDuty {
		duty = p.maxDuty
	}
	ns := p.periodNs * uint64(duty) / uint64(p.maxDuty)
	if err := writeSysfs(filepath.Join(p.dir, "duty_cycle"), int(ns)); err != nil {
		return fmt.Errorf("set duty_cycle: %w", err)
	}
	return nil
}

// Close zeroes the duty and disables the channel.
func (p *SysfsPWM) Close() error {
	var errs []string
	if err := writeSysfs(filepath.Join(p.dir, "duty_cycle"), 0); err != nil {
		errs = append(errs, err.Error())
	}
	if err := writeSysfs(filepath.Join(p.dir, "enable"), 0); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("close pwm: %s", strings.Join(errs, "; "))
	}
	return nil
}

func writeSysfs(path string, v int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(v)), 0o644)
}
