// Package actuator owns the observable state of the mist and fan outputs.
// The Controller is the only writer of that state; everything above it deals
// in logical on/off and percent values, everything below it is a hw interface.
package actuator

import (
	"log"
	"math"

	"github.com/sweeney/mistfan/internal/hw"
)

// State is the logical actuator state.
type State struct {
	MistOn         bool
	FanDutyPercent int
}

// Controller drives the mist solenoid and fan PWM channel. It is mutated
// only from the single control-loop goroutine, so no locking is required.
type Controller struct {
	mist hw.DigitalWriter
	fan  hw.PWM
	bits uint

	state State
}

// New creates a Controller with all outputs logically off.
func New(mist hw.DigitalWriter, fan hw.PWM, precisionBits uint) *Controller {
	return &Controller{
		mist: mist,
		fan:  fan,
		bits: precisionBits,
	}
}

// State returns the current logical actuator state.
func (c *Controller) State() State {
	return c.state
}

// SetMist sets the mist solenoid. The physical write is elided when the
// requested state equals the current state, so each logical transition costs
// at most one hardware toggle. Returns true if a transition occurred.
// Hardware faults are logged, not surfaced: scheduler callbacks have no
// error channel and the layer above treats writes as infallible.
func (c *Controller) SetMist(on bool) bool {
	if on == c.state.MistOn {
		return false
	}
	if err := c.mist.Set(on); err != nil {
		log.Printf("mist write error: %v", err)
	}
	c.state.MistOn = on
	return true
}

// SetFanDutyPercent sets the fan speed as a percentage. The percent is
// clamped to [0,100] before conversion; the hardware write is unconditional
// since the PWM write itself is idempotent. Returns the clamped percent.
func (c *Controller) SetFanDutyPercent(percent int) int {
	percent = clampPercent(percent)
	if err := c.fan.SetDuty(DutyFromPercent(percent, c.bits)); err != nil {
		log.Printf("fan pwm write error: %v", err)
	}
	c.state.FanDutyPercent = percent
	return percent
}

// ForceOff drives both actuators to the safe state: mist off, fan stopped.
// Used by the idle watchdog and the cancel-all gesture.
func (c *Controller) ForceOff() {
	c.SetMist(false)
	c.SetFanDutyPercent(0)
}

// MaxDuty returns the full-scale duty value for a PWM precision.
func MaxDuty(precisionBits uint) uint32 {
	return (uint32(1) << precisionBits) - 1
}

// DutyFromPercent converts a percentage to a raw hardware duty value:
// round(percent/100 * (2^precisionBits - 1)). The percent is clamped to
// [0,100] first.
func DutyFromPercent(percent int, precisionBits uint) uint32 {
	percent = clampPercent(percent)
	return uint32(math.Round(float64(percent) / 100 * float64(MaxDuty(precisionBits))))
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
