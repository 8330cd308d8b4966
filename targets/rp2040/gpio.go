//go:build rp2040

package main

import (
	"machine"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"leadscrew/core"
)

// SIO GPIO_IN: the level of all 30 pins in one read
var sioGPIOIn = (*volatile.Register32)(unsafe.Pointer(uintptr(0xd0000004)))

// RPGPIODriver implements core.GPIODriver on the RP2040 bank 0 pins.
//
// The machine package acknowledges the hardware edge status before calling
// back, so edges are latched here from the level sampled in the callback.
// A pulse too short to still be visible is latched as the opposite edge and
// turns into a spurious interrupt for the handler.
type RPGPIODriver struct {
	irq    *core.IRQTable
	pins   map[core.GPIOPin]machine.Pin
	events [core.MaxPins]core.EdgeMask
}

// NewRPGPIODriver creates a driver dispatching edges into irq
func NewRPGPIODriver(irq *core.IRQTable) *RPGPIODriver {
	return &RPGPIODriver{
		irq:  irq,
		pins: make(map[core.GPIOPin]machine.Pin),
	}
}

func (d *RPGPIODriver) configure(pin core.GPIOPin, mode machine.PinMode) error {
	if pin >= core.MaxPins {
		return core.ErrInvalidPin
	}
	mp := machine.Pin(pin)
	mp.Configure(machine.PinConfig{Mode: mode})
	d.pins[pin] = mp
	return nil
}

func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinOutput)
}

func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPullup)
}

func (d *RPGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPulldown)
}

// SetPin drives an output, configuring it on first use
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	mp, ok := d.pins[pin]
	if !ok {
		if err := d.ConfigureOutput(pin); err != nil {
			return err
		}
		mp = d.pins[pin]
	}
	mp.Set(value)
	return nil
}

func (d *RPGPIODriver) ReadPin(pin core.GPIOPin) bool {
	if pin >= core.MaxPins {
		return false
	}
	return sioGPIOIn.Get()&(1<<pin) != 0
}

func (d *RPGPIODriver) ReadAllLines() uint32 {
	return sioGPIOIn.Get()
}

func (d *RPGPIODriver) EdgeEvents(pin core.GPIOPin) core.EdgeMask {
	if pin >= core.MaxPins {
		return 0
	}
	state := interrupt.Disable()
	ev := d.events[pin]
	interrupt.Restore(state)
	return ev
}

func (d *RPGPIODriver) AcknowledgeEdge(pin core.GPIOPin, mask core.EdgeMask) {
	if pin >= core.MaxPins {
		return
	}
	state := interrupt.Disable()
	d.events[pin] &^= mask
	interrupt.Restore(state)
}

// EnableEdgeInterrupt routes pin's edges into the IRQ table. The core edge
// bits match machine.PinFalling and machine.PinRising.
func (d *RPGPIODriver) EnableEdgeInterrupt(pin core.GPIOPin, mask core.EdgeMask) error {
	mp, ok := d.pins[pin]
	if !ok {
		return core.ErrInvalidPin
	}
	if mask == 0 {
		return mp.SetInterrupt(0, nil)
	}
	return mp.SetInterrupt(machine.PinChange(mask), d.edge)
}

// edge runs in interrupt context
func (d *RPGPIODriver) edge(mp machine.Pin) {
	pin := core.GPIOPin(mp)
	if mp.Get() {
		d.events[pin] |= core.EdgeRise
	} else {
		d.events[pin] |= core.EdgeFall
	}
	d.irq.Dispatch(pin)
}
