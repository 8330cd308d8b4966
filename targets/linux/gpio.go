//go:build linux && !tinygo

package main

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"

	"leadscrew/core"
)

// CdevGPIODriver implements core.GPIODriver on a Linux GPIO character
// device. Inputs are requested with both edges enabled; the library's event
// goroutine stands in for the interrupt and only pins with a matching
// enabled edge are dispatched.
type CdevGPIODriver struct {
	chip string
	irq  *core.IRQTable

	mu      sync.Mutex
	lines   map[core.GPIOPin]*gpiocdev.Line
	events  [core.MaxPins]core.EdgeMask
	enabled [core.MaxPins]core.EdgeMask
}

// NewCdevGPIODriver creates a driver for chip, e.g. "gpiochip0"
func NewCdevGPIODriver(chip string, irq *core.IRQTable) *CdevGPIODriver {
	return &CdevGPIODriver{
		chip:  chip,
		irq:   irq,
		lines: make(map[core.GPIOPin]*gpiocdev.Line),
	}
}

func (d *CdevGPIODriver) request(pin core.GPIOPin, opts ...gpiocdev.LineReqOption) error {
	if pin >= core.MaxPins {
		return core.ErrInvalidPin
	}
	d.mu.Lock()
	old := d.lines[pin]
	delete(d.lines, pin)
	d.mu.Unlock()
	if old != nil {
		old.Close()
	}

	l, err := gpiocdev.RequestLine(d.chip, int(pin), append(opts, gpiocdev.WithConsumer("leadscrew"))...)
	if err != nil {
		return fmt.Errorf("request %s line %d: %w", d.chip, pin, err)
	}
	d.mu.Lock()
	d.lines[pin] = l
	d.mu.Unlock()
	return nil
}

func (d *CdevGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	return d.request(pin, gpiocdev.AsOutput(0))
}

func (d *CdevGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	return d.request(pin, gpiocdev.AsInput, gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges, gpiocdev.WithEventHandler(d.event))
}

func (d *CdevGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	return d.request(pin, gpiocdev.AsInput, gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges, gpiocdev.WithEventHandler(d.event))
}

func (d *CdevGPIODriver) line(pin core.GPIOPin) *gpiocdev.Line {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines[pin]
}

func (d *CdevGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	l := d.line(pin)
	if l == nil {
		if err := d.ConfigureOutput(pin); err != nil {
			return err
		}
		l = d.line(pin)
	}
	v := 0
	if value {
		v = 1
	}
	return l.SetValue(v)
}

func (d *CdevGPIODriver) ReadPin(pin core.GPIOPin) bool {
	l := d.line(pin)
	if l == nil {
		return false
	}
	v, err := l.Value()
	return err == nil && v != 0
}

// ReadAllLines reads each requested line in turn; the character device has
// no single-read snapshot across separate requests
func (d *CdevGPIODriver) ReadAllLines() uint32 {
	var bits uint32
	for pin := core.GPIOPin(0); pin < core.MaxPins; pin++ {
		if d.ReadPin(pin) {
			bits |= 1 << pin
		}
	}
	return bits
}

func (d *CdevGPIODriver) EdgeEvents(pin core.GPIOPin) core.EdgeMask {
	if pin >= core.MaxPins {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events[pin]
}

func (d *CdevGPIODriver) AcknowledgeEdge(pin core.GPIOPin, mask core.EdgeMask) {
	if pin >= core.MaxPins {
		return
	}
	d.mu.Lock()
	d.events[pin] &^= mask
	d.mu.Unlock()
}

func (d *CdevGPIODriver) EnableEdgeInterrupt(pin core.GPIOPin, mask core.EdgeMask) error {
	if d.line(pin) == nil {
		return core.ErrInvalidPin
	}
	d.mu.Lock()
	d.enabled[pin] = mask
	d.mu.Unlock()
	return nil
}

// event runs on the library's event goroutine
func (d *CdevGPIODriver) event(evt gpiocdev.LineEvent) {
	pin := core.GPIOPin(evt.Offset)
	if pin >= core.MaxPins {
		return
	}
	edge := core.EdgeFall
	if evt.Type == gpiocdev.LineEventRisingEdge {
		edge = core.EdgeRise
	}
	d.mu.Lock()
	d.events[pin] |= edge
	fire := (d.enabled[pin] & edge) != 0
	d.mu.Unlock()
	if fire {
		d.irq.Dispatch(pin)
	}
}

// Close releases every requested line
func (d *CdevGPIODriver) Close() {
	d.mu.Lock()
	lines := d.lines
	d.lines = make(map[core.GPIOPin]*gpiocdev.Line)
	d.mu.Unlock()
	for _, l := range lines {
		l.Close()
	}
}
