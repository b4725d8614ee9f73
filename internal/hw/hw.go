// Package hw abstracts the device hardware: the mist solenoid GPIO output,
// the fan PWM channel, and the three push-button inputs.
// The real implementation uses the Linux GPIO character device and the sysfs
// PWM interface. The fake implementations allow testing without hardware.
package hw

// DigitalWriter drives a binary GPIO output.
type DigitalWriter interface {
	// Set drives the output high (true) or low (false).
	Set(on bool) error

	// Close releases the output line.
	Close() error
}

// PWM drives one hardware PWM channel.
type PWM interface {
	// SetDuty writes a raw duty value in [0, 2^precision-1].
	SetDuty(duty uint32) error

	// Close disables the channel and releases it.
	Close() error
}

// ButtonReader reads one push-button input.
type ButtonReader interface {
	// Pressed returns the logical button state. The raw line is active-low
	// with an internal pull-up: raw 0 = pressed.
	Pressed() (bool, error)

	// Close releases the input line.
	Close() error
}

// Default wiring (header pin numbering from the device schematic).
const (
	DefaultPinFan         = 5  // fan power mosfet, PWM speed control
	DefaultPinMist        = 7  // mist solenoid power mosfet
	DefaultPinButtonOne   = 9  // pushbutton closest to the connector
	DefaultPinButtonTwo   = 11 // pushbutton in the middle
	DefaultPinButtonThree = 12 // pushbutton farthest from the connector

	DefaultPWMChannel       = 1
	DefaultPWMFrequencyHz   = 25000
	DefaultPWMPrecisionBits = 8
)

// NumButtons is the number of physical push-buttons.
const NumButtons = 3
