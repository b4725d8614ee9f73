// Package gesture classifies raw push-button input into discrete gestures:
// clicks, double clicks, multi-clicks and long-press phases. It contains no
// hardware or timer dependencies: time arrives with every input sample, so
// the recognizer is a pure state machine that can be driven tick by tick
// under test.
package gesture

import "time"

// EventType identifies a classified gesture.
type EventType string

const (
	EventClick           EventType = "CLICK"
	EventDoubleClick     EventType = "DOUBLE_CLICK"
	EventMultiClick      EventType = "MULTI_CLICK"
	EventLongPressStart  EventType = "LONG_PRESS_START"
	EventLongPressRepeat EventType = "LONG_PRESS_REPEAT"
	EventLongPressStop   EventType = "LONG_PRESS_STOP"
)

// Event is a classified gesture emitted by a Recognizer.
type Event struct {
	Time time.Time
	Type EventType
	// Clicks is the accumulated click count: 1 for CLICK, 2 for DOUBLE_CLICK,
	// n>=3 for MULTI_CLICK. Zero for long-press events.
	Clicks int
}

// Input is a single raw sample of the button line, already inverted to
// logical form (true = pressed).
type Input struct {
	Pressed bool
	Time    time.Time
}

// Config holds the recognizer timing windows.
type Config struct {
	// Debounce is the minimum time an edge must remain stable before it is
	// accepted as a genuine press or release.
	Debounce time.Duration
	// ClickWindow is the time after a release during which a further press
	// extends the click count instead of finalizing the gesture.
	ClickWindow time.Duration
	// LongPress is the hold duration past which a press becomes a long press.
	LongPress time.Duration
}

// DefaultConfig returns the standard timing windows.
func DefaultConfig() Config {
	return Config{
		Debounce:    50 * time.Millisecond,
		ClickWindow: 400 * time.Millisecond,
		LongPress:   800 * time.Millisecond,
	}
}

// phase is the recognizer's position in the gesture cycle.
type phase int

const (
	phaseIdle phase = iota
	phasePressDebounce
	phaseHeld
	phaseReleaseDebounce
	phaseClickWindow
	phaseLongPress
	phaseLongRelease
)
