package gesture

import "time"

// Recognizer tracks one physical button through the gesture state machine.
// It is created at startup and lives for the process lifetime; Process must
// be called from the single control-loop goroutine.
type Recognizer struct {
	cfg   Config
	phase phase

	edgeAt      time.Time // time of the edge currently being debounced
	pressedAt   time.Time // raw edge time of the current press, for long-press timing
	windowStart time.Time // start of the open multi-click window
	clicks      int
	longActive  bool
}

// NewRecognizer creates a Recognizer with the given timing windows.
func NewRecognizer(cfg Config) *Recognizer {
	return &Recognizer{cfg: cfg}
}

// IsLongPressed reports whether a long press is currently active, i.e. the
// button is being held past the long-press threshold and has not yet been
// released. Scheduled mist pulses consult this to yield to manual control.
func (r *Recognizer) IsLongPressed() bool {
	return r.longActive
}

// Process consumes one raw sample and returns any gestures it completes.
// All window checks are signed time differences against the sample time;
// the recognizer never reads a clock of its own.
func (r *Recognizer) Process(in Input) []Event {
	now := in.Time
	pressed := in.Pressed
	var events []Event

	switch r.phase {
	case phaseIdle:
		if pressed {
			r.phase = phasePressDebounce
			r.edgeAt = now
			r.pressedAt = now
		}

	case phasePressDebounce:
		if !pressed {
			// Edge did not survive the debounce window: noise. Fall back to
			// the open click window if clicks are pending, else to idle.
			if r.clicks > 0 {
				r.phase = phaseClickWindow
			} else {
				r.phase = phaseIdle
			}
		} else if now.Sub(r.edgeAt) >= r.cfg.Debounce {
			r.phase = phaseHeld
		}

	case phaseHeld:
		if !pressed {
			r.phase = phaseReleaseDebounce
			r.edgeAt = now
		} else if now.Sub(r.pressedAt) >= r.cfg.LongPress {
			// Long press takes priority over any accumulated clicks, even
			// with a multi-click window still open.
			r.clicks = 0
			r.longActive = true
			r.phase = phaseLongPress
			events = append(events, Event{Time: now, Type: EventLongPressStart})
		}

	case phaseReleaseDebounce:
		if pressed {
			// Bounce during release: still the same press. Long-press timing
			// keeps running from the original edge.
			r.phase = phaseHeld
		} else if now.Sub(r.edgeAt) >= r.cfg.Debounce {
			r.clicks++
			r.windowStart = now
			r.phase = phaseClickWindow
		}

	case phaseClickWindow:
		if pressed {
			r.phase = phasePressDebounce
			r.edgeAt = now
			r.pressedAt = now
		} else if now.Sub(r.windowStart) >= r.cfg.ClickWindow {
			events = append(events, r.finalize(now))
			r.clicks = 0
			r.phase = phaseIdle
		}

	case phaseLongPress:
		if pressed {
			events = append(events, Event{Time: now, Type: EventLongPressRepeat})
		} else {
			r.phase = phaseLongRelease
			r.edgeAt = now
		}

	case phaseLongRelease:
		if pressed {
			// Bounce: the hold continues.
			r.phase = phaseLongPress
		} else if now.Sub(r.edgeAt) >= r.cfg.Debounce {
			r.longActive = false
			r.phase = phaseIdle
			// A long press does not also count as a click.
			r.clicks = 0
			events = append(events, Event{Time: now, Type: EventLongPressStop})
		}
	}

	return events
}

// finalize resolves the accumulated click count into a single gesture.
func (r *Recognizer) finalize(now time.Time) Event {
	switch r.clicks {
	case 1:
		return Event{Time: now, Type: EventClick, Clicks: 1}
	case 2:
		return Event{Time: now, Type: EventDoubleClick, Clicks: 2}
	default:
		return Event{Time: now, Type: EventMultiClick, Clicks: r.clicks}
	}
}
