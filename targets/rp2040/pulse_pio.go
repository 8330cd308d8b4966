//go:build rp2040

package main

import (
	"errors"
	"machine"
	"time"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"

	"leadscrew/core"
)

// pulsarRefill is how often the pulse queue is topped up; each queued
// batch covers two refill periods so the state machine never starves
const pulsarRefill = 10 * time.Millisecond

var errNoStateMachine = errors.New("pio: no free state machine")

type pulsarOutput struct {
	pulsar *piolib.Pulsar
	batch  uint32
	refill *core.ScheduledWorker
}

// PIOFrequencyDriver generates step pulses with the PIO Pulsar program.
// It divides the system clock directly, so high feed rates are not
// quantized to the 1 MHz PWM counter. Periods past the clock divider range,
// about 2 ms, are rejected.
type PIOFrequencyDriver struct {
	ctx     *core.Context
	block   *pio.PIO
	outputs map[core.GPIOPin]*pulsarOutput
}

// NewPIOFrequencyDriver claims state machines from block on demand
func NewPIOFrequencyDriver(c *core.Context, block *pio.PIO) *PIOFrequencyDriver {
	return &PIOFrequencyDriver{
		ctx:     c,
		block:   block,
		outputs: make(map[core.GPIOPin]*pulsarOutput),
	}
}

func (d *PIOFrequencyDriver) Configure(pin core.GPIOPin) error {
	if pin >= core.MaxPins {
		return core.ErrInvalidPin
	}
	if _, ok := d.outputs[pin]; ok {
		return core.ErrPinInUse
	}
	sm, err := d.block.ClaimStateMachine()
	if err != nil {
		return errNoStateMachine
	}
	pulsar, err := piolib.NewPulsar(sm, machine.Pin(pin))
	if err != nil {
		return err
	}
	out := &pulsarOutput{pulsar: pulsar}
	out.refill = core.NewScheduledWorker(d.ctx, func(now core.Time) core.Time {
		for !out.pulsar.IsQueueFull() {
			if out.pulsar.TryQueue(out.batch) != nil {
				break
			}
		}
		return now.Add(pulsarRefill)
	})
	d.outputs[pin] = out
	return nil
}

// SetFrequency flushes the queued pulses, retunes and starts refilling.
// The Pulsar period is exact to the clock divider, so hz is returned as is.
func (d *PIOFrequencyDriver) SetFrequency(pin core.GPIOPin, hz float64) (float64, error) {
	out, ok := d.outputs[pin]
	if !ok {
		return 0, core.ErrInvalidPin
	}
	if hz <= 0 {
		return 0, d.Disable(pin)
	}
	out.pulsar.Stop()
	if err := out.pulsar.SetPeriod(time.Duration(float64(time.Second) / hz)); err != nil {
		return 0, err
	}
	out.batch = uint32(hz*2*pulsarRefill.Seconds()) + 1
	out.refill.ScheduleAt(d.ctx.Now())
	return hz, nil
}

// Disable drops the queued pulses; the output idles low
func (d *PIOFrequencyDriver) Disable(pin core.GPIOPin) error {
	out, ok := d.outputs[pin]
	if !ok {
		return core.ErrInvalidPin
	}
	out.refill.Cancel()
	out.pulsar.Stop()
	return nil
}
