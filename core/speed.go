package core

import (
	"errors"
	"math"
)

// PWMBaseHz is the PWM counter clock after the /125 divider on a 125 MHz
// system clock
const PWMBaseHz = 1_000_000

// MaxPWMWrap is the largest wrap the 16-bit PWM counter takes
const MaxPWMWrap = math.MaxUint16

var ErrNoDriver = errors.New("core: no frequency driver")

// FrequencyDriver produces a square wave of a given frequency on a pin.
// Platform-specific implementations use PWM slices or PIO state machines.
type FrequencyDriver interface {
	// Configure claims pin for pulse output, initially disabled
	Configure(pin GPIOPin) error

	// SetFrequency starts or retunes the output and returns the frequency
	// actually produced
	SetFrequency(pin GPIOPin, hz float64) (float64, error)

	// Disable stops the output
	Disable(pin GPIOPin) error
}

// PWMWrap returns the phase-correct PWM wrap for hz on the 1 MHz counter
// clock. The result is clamped to [1, MaxPWMWrap].
func PWMWrap(hz float64) uint16 {
	mag := math.Abs(hz)
	if mag == 0 {
		return MaxPWMWrap
	}
	wrap := math.Min(MaxPWMWrap, PWMBaseHz/(2*mag))
	if wrap < 1 {
		return 1
	}
	return uint16(wrap)
}

// PWMActualFrequency returns the frequency a wrap produces
func PWMActualFrequency(wrap uint16) float64 {
	if wrap == 0 {
		return 0
	}
	return PWMBaseHz / (2 * float64(wrap))
}

// SpeedControl drives a pulse output and a direction line from a signed
// frequency
type SpeedControl struct {
	ctx    *Context
	gpio   GPIODriver
	driver FrequencyDriver
	pulse  GPIOPin
	dir    GPIOPin

	hz     float64
	actual float64
}

// NewSpeedControl configures the pulse pin on driver and dir as an output
func NewSpeedControl(c *Context, gpio GPIODriver, driver FrequencyDriver, pulse, dir GPIOPin) (*SpeedControl, error) {
	if driver == nil {
		return nil, ErrNoDriver
	}
	if err := driver.Configure(pulse); err != nil {
		return nil, err
	}
	if err := gpio.ConfigureOutput(dir); err != nil {
		return nil, err
	}
	return &SpeedControl{ctx: c, gpio: gpio, driver: driver, pulse: pulse, dir: dir}, nil
}

// Set applies a signed frequency. Zero stops the output; the sign selects
// the direction.
func (s *SpeedControl) Set(hz float64) error {
	s.hz = hz
	if hz == 0 {
		s.actual = 0
		DebugPrintln("[SPEED] requested speed of 0; stopping")
		RecordTrace(TraceFrequencyChange, uint8(s.pulse), s.ctx.Now(), 0, 0)
		return s.driver.Disable(s.pulse)
	}
	if err := s.gpio.SetPin(s.dir, hz > 0); err != nil {
		return err
	}
	actual, err := s.driver.SetFrequency(s.pulse, math.Abs(hz))
	if err != nil {
		return err
	}
	s.actual = actual
	DebugPrintln("[SPEED] requested " + FormatInt(int64(hz*1000)) +
		" mHz, actual " + FormatInt(int64(actual*1000)) + " mHz")
	RecordTrace(TraceFrequencyChange, uint8(s.pulse), s.ctx.Now(), int32(hz*1000), int32(actual*1000))
	return nil
}

// Requested returns the last signed frequency passed to Set
func (s *SpeedControl) Requested() float64 {
	return s.hz
}

// Actual returns the unsigned frequency the driver produced
func (s *SpeedControl) Actual() float64 {
	return s.actual
}
