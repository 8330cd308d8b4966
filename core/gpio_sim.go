package core

import "sync"

// SimGPIO is an in-memory GPIODriver. Level changes latch edge events and
// are dispatched to the IRQ table on the calling goroutine, which plays the
// part of interrupt context.
type SimGPIO struct {
	mu      sync.Mutex
	irq     *IRQTable
	levels  uint32
	outputs uint32
	events  [MaxPins]EdgeMask
	enabled [MaxPins]EdgeMask
	writes  [MaxPins]int
}

// NewSimGPIO creates a simulated bank dispatching into irq
func NewSimGPIO(irq *IRQTable) *SimGPIO {
	return &SimGPIO{irq: irq}
}

func (s *SimGPIO) ConfigureOutput(pin GPIOPin) error {
	if pin >= MaxPins {
		return ErrInvalidPin
	}
	s.mu.Lock()
	s.outputs |= 1 << pin
	s.levels &^= 1 << pin
	s.mu.Unlock()
	return nil
}

func (s *SimGPIO) ConfigureInputPullUp(pin GPIOPin) error {
	if pin >= MaxPins {
		return ErrInvalidPin
	}
	s.mu.Lock()
	s.outputs &^= 1 << pin
	s.levels |= 1 << pin
	s.mu.Unlock()
	return nil
}

func (s *SimGPIO) ConfigureInputPullDown(pin GPIOPin) error {
	if pin >= MaxPins {
		return ErrInvalidPin
	}
	s.mu.Lock()
	s.outputs &^= 1 << pin
	s.levels &^= 1 << pin
	s.mu.Unlock()
	return nil
}

func (s *SimGPIO) SetPin(pin GPIOPin, value bool) error {
	if pin >= MaxPins {
		return ErrInvalidPin
	}
	s.mu.Lock()
	if value {
		s.levels |= 1 << pin
	} else {
		s.levels &^= 1 << pin
	}
	s.writes[pin]++
	s.mu.Unlock()
	return nil
}

func (s *SimGPIO) ReadPin(pin GPIOPin) bool {
	if pin >= MaxPins {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels&(1<<pin) != 0
}

func (s *SimGPIO) ReadAllLines() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels
}

func (s *SimGPIO) EdgeEvents(pin GPIOPin) EdgeMask {
	if pin >= MaxPins {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[pin]
}

func (s *SimGPIO) AcknowledgeEdge(pin GPIOPin, mask EdgeMask) {
	if pin >= MaxPins {
		return
	}
	s.mu.Lock()
	s.events[pin] &^= mask
	s.mu.Unlock()
}

func (s *SimGPIO) EnableEdgeInterrupt(pin GPIOPin, mask EdgeMask) error {
	if pin >= MaxPins {
		return ErrInvalidPin
	}
	s.mu.Lock()
	s.enabled[pin] |= mask
	s.mu.Unlock()
	return nil
}

// Writes returns how many times SetPin was called for pin
func (s *SimGPIO) Writes(pin GPIOPin) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[pin]
}

// SetLevel drives an input pin. A change latches the matching edge and, if
// that edge is enabled, dispatches the pin's handler.
func (s *SimGPIO) SetLevel(pin GPIOPin, level bool) {
	s.SetLevels(map[GPIOPin]bool{pin: level})
}

// SetLevels changes several pins atomically, then dispatches each pin that
// latched an enabled edge in ascending pin order. Two pins of an encoder
// switching together is how a skipped step looks on real hardware.
func (s *SimGPIO) SetLevels(levels map[GPIOPin]bool) {
	var fire []GPIOPin

	s.mu.Lock()
	for pin := GPIOPin(0); pin < MaxPins; pin++ {
		level, ok := levels[pin]
		if !ok {
			continue
		}
		bit := uint32(1) << pin
		old := s.levels&bit != 0
		if old == level {
			continue
		}
		edge := EdgeFall
		if level {
			s.levels |= bit
			edge = EdgeRise
		} else {
			s.levels &^= bit
		}
		s.events[pin] |= edge
		if (s.enabled[pin] & edge) != 0 {
			fire = append(fire, pin)
		}
	}
	s.mu.Unlock()

	for _, pin := range fire {
		s.irq.Dispatch(pin)
	}
}

// InjectEdge latches events on pin and dispatches without changing the
// level, as a glitch too short to sample would.
func (s *SimGPIO) InjectEdge(pin GPIOPin, mask EdgeMask) {
	if pin >= MaxPins {
		return
	}
	s.mu.Lock()
	s.events[pin] |= mask
	s.mu.Unlock()
	s.irq.Dispatch(pin)
}

// SimFrequencyDriver records the frequency requested per pin
type SimFrequencyDriver struct {
	mu    sync.Mutex
	freqs map[GPIOPin]float64
}

// NewSimFrequencyDriver returns an empty recorder
func NewSimFrequencyDriver() *SimFrequencyDriver {
	return &SimFrequencyDriver{freqs: make(map[GPIOPin]float64)}
}

func (d *SimFrequencyDriver) Configure(pin GPIOPin) error {
	if pin >= MaxPins {
		return ErrInvalidPin
	}
	d.mu.Lock()
	d.freqs[pin] = 0
	d.mu.Unlock()
	return nil
}

func (d *SimFrequencyDriver) SetFrequency(pin GPIOPin, hz float64) (float64, error) {
	wrap := PWMWrap(hz)
	actual := PWMActualFrequency(wrap)
	d.mu.Lock()
	d.freqs[pin] = actual
	d.mu.Unlock()
	return actual, nil
}

func (d *SimFrequencyDriver) Disable(pin GPIOPin) error {
	d.mu.Lock()
	d.freqs[pin] = 0
	d.mu.Unlock()
	return nil
}

// Frequency returns the output frequency on pin, 0 when disabled
func (d *SimFrequencyDriver) Frequency(pin GPIOPin) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.freqs[pin]
}
