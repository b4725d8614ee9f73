package hw

// FakeDigital is a test double for a GPIO output. It records every write.
type FakeDigital struct {
	// On is the current output level.
	On bool

	// Writes contains every value passed to Set, in order.
	Writes []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// Set records the write and updates the level.
func (f *FakeDigital) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.On = on
	f.Writes = append(f.Writes, on)
	return nil
}

// Close marks the output as closed.
func (f *FakeDigital) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded writes.
func (f *FakeDigital) Reset() {
	f.On = false
	f.Writes = nil
	f.Closed = false
	f.SetError = nil
}

// FakePWM is a test double for a PWM channel. It records every duty write.
type FakePWM struct {
	// Duty is the last written duty value.
	Duty uint32

	// Writes contains every duty value passed to SetDuty, in order.
	Writes []uint32

	// SetError, if set, will be returned by SetDuty.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// SetDuty records the write.
func (f *FakePWM) SetDuty(duty uint32) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Duty = duty
	f.Writes = append(f.Writes, duty)
	return nil
}

// Close marks the channel as closed.
func (f *FakePWM) Close() error {
	f.Closed = true
	return nil
}

// FakeButton is a test double for a push-button input.
//
// If Samples is non-empty, each call to Pressed consumes the next sample;
// once exhausted, the last sample repeats. With no samples, Pressed returns
// the Down field, which tests flip directly to simulate press and release.
type FakeButton struct {
	// Down is the held state returned when no samples are scripted.
	Down bool

	// Samples contains scripted pressed values.
	Samples []bool

	// index tracks current position in Samples.
	index int

	// ReadError, if set, will be returned by Pressed.
	ReadError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeButton creates a FakeButton with the given scripted samples.
func NewFakeButton(samples []bool) *FakeButton {
	return &FakeButton{Samples: samples}
}

// Pressed returns the next scripted sample, or Down if none are scripted.
func (f *FakeButton) Pressed() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return f.Down, nil
	}
	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the button as closed.
func (f *FakeButton) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the sample script.
func (f *FakeButton) Reset() {
	f.index = 0
	f.Down = false
	f.Closed = false
	f.ReadError = nil
}
