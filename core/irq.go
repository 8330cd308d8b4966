package core

import "errors"

// MaxPins is the number of GPIO pins the IRQ table can hold (RP2040 bank 0)
const MaxPins = 30

var (
	ErrPinInUse   = errors.New("core: pin already has an edge handler")
	ErrInvalidPin = errors.New("core: invalid pin")
)

// EdgeHandler receives edge interrupts for the pins it is registered on.
// HandleEdge runs in interrupt context: it must not block or suspend.
type EdgeHandler interface {
	HandleEdge(pin GPIOPin)
}

// IRQTable routes pin interrupts to the owning device. Each pin takes one
// handler for the process lifetime.
type IRQTable struct {
	cs    CriticalSection
	slots [MaxPins]EdgeHandler

	// serial is held while a handler runs so that handlers never overlap,
	// as on a single core with interrupt nesting disabled
	serial CriticalSection
}

// NewIRQTable returns an empty table
func NewIRQTable() *IRQTable {
	return &IRQTable{}
}

// Register attaches h to pin
func (t *IRQTable) Register(pin GPIOPin, h EdgeHandler) error {
	if pin >= MaxPins {
		return ErrInvalidPin
	}
	t.cs.Lock()
	defer t.cs.Unlock()
	if t.slots[pin] != nil {
		return ErrPinInUse
	}
	t.slots[pin] = h
	return nil
}

// Release detaches pin. Used for teardown in tests and simulations.
func (t *IRQTable) Release(pin GPIOPin) {
	if pin >= MaxPins {
		return
	}
	t.cs.Lock()
	t.slots[pin] = nil
	t.cs.Unlock()
}

// Handler returns the handler registered on pin, or nil
func (t *IRQTable) Handler(pin GPIOPin) EdgeHandler {
	if pin >= MaxPins {
		return nil
	}
	t.cs.Lock()
	defer t.cs.Unlock()
	return t.slots[pin]
}

// Dispatch runs the handler for pin. Platform interrupt code calls it.
// Reports whether a handler was registered.
func (t *IRQTable) Dispatch(pin GPIOPin) bool {
	h := t.Handler(pin)
	if h == nil {
		return false
	}
	t.serial.Lock()
	defer t.serial.Unlock()
	h.HandleEdge(pin)
	return true
}
