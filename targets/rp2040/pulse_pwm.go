//go:build rp2040

package main

import (
	"machine"

	"leadscrew/core"
)

// pwmPeripheral abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// PWMFrequencyDriver produces the step pulses with a hardware PWM slice.
// Each pin owns its slice: the frequency is a property of the slice.
type PWMFrequencyDriver struct {
	channels    map[core.GPIOPin]uint8
	peripherals map[core.GPIOPin]pwmPeripheral
}

// NewPWMFrequencyDriver creates a driver with no pins claimed
func NewPWMFrequencyDriver() *PWMFrequencyDriver {
	return &PWMFrequencyDriver{
		channels:    make(map[core.GPIOPin]uint8),
		peripherals: make(map[core.GPIOPin]pwmPeripheral),
	}
}

// Configure claims the pin's slice, output held low
func (d *PWMFrequencyDriver) Configure(pin core.GPIOPin) error {
	if pin >= core.MaxPins {
		return core.ErrInvalidPin
	}
	// GPIO N is on slice (N>>1)&7, channel A for even pins, B for odd
	pwm := pwmSlice(uint8(pin>>1) & 0x7)
	if err := pwm.Configure(machine.PWMConfig{Period: periodNanos(core.MaxPWMWrap)}); err != nil {
		return err
	}
	ch, err := pwm.Channel(machine.Pin(pin))
	if err != nil {
		return err
	}
	pwm.Set(ch, 0)
	d.channels[pin] = ch
	d.peripherals[pin] = pwm
	return nil
}

// SetFrequency retunes the slice to the closest frequency the 1 MHz
// phase-correct counter produces, at 50% duty
func (d *PWMFrequencyDriver) SetFrequency(pin core.GPIOPin, hz float64) (float64, error) {
	pwm, ok := d.peripherals[pin]
	if !ok {
		return 0, core.ErrInvalidPin
	}
	wrap := core.PWMWrap(hz)
	if err := pwm.Configure(machine.PWMConfig{Period: periodNanos(wrap)}); err != nil {
		return 0, err
	}
	pwm.Set(d.channels[pin], pwm.Top()/2)
	return core.PWMActualFrequency(wrap), nil
}

// Disable holds the output low. The slice stays in PWM mode.
func (d *PWMFrequencyDriver) Disable(pin core.GPIOPin) error {
	pwm, ok := d.peripherals[pin]
	if !ok {
		return core.ErrInvalidPin
	}
	pwm.Set(d.channels[pin], 0)
	return nil
}

// periodNanos is the output period for a phase-correct wrap on the 1 MHz
// counter: up and down once, 2*wrap microseconds
func periodNanos(wrap uint16) uint64 {
	return uint64(wrap) * 2 * 1000
}

// pwmSlice returns one of the eight PWM slices, PWM0-PWM7
func pwmSlice(slice uint8) pwmPeripheral {
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
