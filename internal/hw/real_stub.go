//go:build !linux

package hw

import "errors"

var errNotSupported = errors.New("hw: not supported on this platform (requires Linux)")

// RealIO is not available on non-Linux platforms.
type RealIO struct{}

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

// OpenReal returns an error on non-Linux platforms.
func OpenReal(pins Pins) (*RealIO, error) {
	return nil, errNotSupported
}

// Mist is not implemented on non-Linux platforms.
func (io *RealIO) Mist() DigitalWriter { return unsupported{} }

// Fan is not implemented on non-Linux platforms.
func (io *RealIO) Fan() PWM { return unsupported{} }

// Button is not implemented on non-Linux platforms.
func (io *RealIO) Button(i int) ButtonReader { return unsupported{} }

// Close is not implemented on non-Linux platforms.
func (io *RealIO) Close() error { return nil }

type unsupported struct{}

func (unsupported) Set(bool) error { return errNotSupported }

func (unsupported) SetDuty(uint32) error { return errNotSupported }

func (unsupported) Pressed() (bool, error) { return false, errNotSupported }

func (unsupported) Close() error { return nil }
