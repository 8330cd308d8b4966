package core

// Quadrature increments indexed by (previous<<2)|current, where each state
// is (B<<1)|A. Turning forward walks 11 -> 01 -> 00 -> 10 -> 11. Valid
// single steps are ±1; no change and skipped steps are 0.
var quadratureTable = [16]int8{
	0, -1, 1, 0,
	1, 0, 0, -1,
	-1, 0, 0, 1,
	0, 1, -1, 0,
}

// StepsPerDetent is the number of quadrature steps between mechanical
// detents
const StepsPerDetent = 4

// quadIncrement returns the signed step for a transition
func quadIncrement(prev, cur uint8) int8 {
	return quadratureTable[(prev&3)<<2|(cur&3)]
}

// RotaryEncoder decodes a two-pin quadrature encoder into a signed detent
// count. The state is written only by the edge handler; Read takes the
// guard.
type RotaryEncoder struct {
	cs   CriticalSection
	ctx  *Context
	gpio GPIODriver
	pinA GPIOPin
	pinB GPIOPin
	box  *Waiter[int64]

	// Owned by HandleEdge
	state      uint8
	fractional int8

	// Guarded by cs
	count   int64
	invalid uint32
}

// NewRotaryEncoder configures pinA and pinB as pulled-up inputs, registers
// the decoder for both pins and enables their edge interrupts.
func NewRotaryEncoder(c *Context, gpio GPIODriver, irq *IRQTable, pinA, pinB GPIOPin) (*RotaryEncoder, error) {
	if pinA == pinB {
		return nil, ErrPinInUse
	}
	e := &RotaryEncoder{
		ctx:  c,
		gpio: gpio,
		pinA: pinA,
		pinB: pinB,
		box:  NewWaiter[int64](false),
		// Contacts close to ground, both pins idle high
		state: 3,
	}
	for _, pin := range []GPIOPin{pinA, pinB} {
		if err := gpio.ConfigureInputPullUp(pin); err != nil {
			return nil, err
		}
	}
	if err := irq.Register(pinA, e); err != nil {
		return nil, err
	}
	if err := irq.Register(pinB, e); err != nil {
		irq.Release(pinA)
		return nil, err
	}
	e.state = e.sample()
	for _, pin := range []GPIOPin{pinA, pinB} {
		gpio.AcknowledgeEdge(pin, EdgeBoth)
		if err := gpio.EnableEdgeInterrupt(pin, EdgeBoth); err != nil {
			irq.Release(pinA)
			irq.Release(pinB)
			return nil, err
		}
	}
	return e, nil
}

func (e *RotaryEncoder) sample() uint8 {
	lines := e.gpio.ReadAllLines()
	var s uint8
	if lines&(1<<e.pinA) != 0 {
		s |= 1
	}
	if lines&(1<<e.pinB) != 0 {
		s |= 2
	}
	return s
}

// HandleEdge runs in interrupt context for either pin
func (e *RotaryEncoder) HandleEdge(pin GPIOPin) {
	events := e.gpio.EdgeEvents(pin)
	if (events & EdgeBoth) == 0 {
		RecordTrace(TraceSpuriousIRQ, uint8(pin), e.ctx.Now(), int32(events), 0)
		return
	}
	e.gpio.AcknowledgeEdge(e.pinA, EdgeBoth)
	e.gpio.AcknowledgeEdge(e.pinB, EdgeBoth)

	cur := e.sample()
	e.step(cur)
}

// step advances the state machine to cur
func (e *RotaryEncoder) step(cur uint8) {
	prev := e.state
	e.state = cur
	inc := quadIncrement(prev, cur)
	if inc == 0 {
		if prev != cur {
			e.cs.Lock()
			e.invalid++
			e.cs.Unlock()
			RecordTrace(TraceInvalidStep, uint8(e.pinA), e.ctx.Now(), int32(prev<<2|cur), 0)
		}
		return
	}

	e.cs.Lock()
	e.fractional += inc
	if e.fractional != StepsPerDetent && e.fractional != -StepsPerDetent {
		e.cs.Unlock()
		return
	}
	e.count += int64(e.fractional / StepsPerDetent)
	e.fractional = 0
	count := e.count
	e.cs.Unlock()

	RecordTrace(TraceDetent, uint8(e.pinA), e.ctx.Now(), int32(count), 0)
	e.box.Send(count)
}

// Read returns the cumulative detent count
func (e *RotaryEncoder) Read() int64 {
	e.cs.Lock()
	defer e.cs.Unlock()
	return e.count
}

// Await suspends t until the count changes and returns the latest count
func (e *RotaryEncoder) Await(t *Task) int64 {
	return e.box.Await(t)
}

// TryRead returns the count if it changed since the last read
func (e *RotaryEncoder) TryRead() (int64, bool) {
	return e.box.TryRead()
}

// Set overwrites the cumulative count, e.g. to zero the feed
func (e *RotaryEncoder) Set(count int64) {
	e.cs.Lock()
	e.count = count
	e.cs.Unlock()
}

// Fractional returns the partial steps toward the next detent, in
// [-StepsPerDetent+1, StepsPerDetent-1]
func (e *RotaryEncoder) Fractional() int {
	e.cs.Lock()
	defer e.cs.Unlock()
	return int(e.fractional)
}

// InvalidTransitions returns how many sampled transitions skipped a state
func (e *RotaryEncoder) InvalidTransitions() uint32 {
	e.cs.Lock()
	defer e.cs.Unlock()
	return e.invalid
}

// Pins returns the A and B pins
func (e *RotaryEncoder) Pins() (GPIOPin, GPIOPin) {
	return e.pinA, e.pinB
}
