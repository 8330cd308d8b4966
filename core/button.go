package core

import "time"

// DefaultDebounce is the minimum spacing of accepted transitions
const DefaultDebounce = 100 * time.Millisecond

// ButtonOptions configures a debounced input
type ButtonOptions struct {
	// Edges that raise the interrupt. EdgeFall on an active-low button
	// reports presses only; EdgeBoth reports every change of value.
	Edges EdgeMask

	// Debounce window. Zero means DefaultDebounce.
	Debounce time.Duration

	// DebounceEdges selects which edges are filtered by the window. Zero
	// means both.
	DebounceEdges EdgeMask
}

// Button is a debounced digital input. A single code path serves
// press-only buttons and level-following inputs; the difference is the edge
// mask.
type Button struct {
	cs   CriticalSection
	ctx  *Context
	gpio GPIODriver
	line Line
	opts ButtonOptions
	box  *Waiter[bool]

	// Owned by HandleEdge
	lastAccepted Time
	accepted     bool
	reported     bool

	// Guarded by cs
	value    bool
	rejected uint32
}

// NewButton configures line as an input with the pull matching its
// polarity and enables edge interrupts per opts.
func NewButton(c *Context, gpio GPIODriver, irq *IRQTable, line Line, opts ButtonOptions) (*Button, error) {
	if opts.Edges == 0 {
		opts.Edges = EdgeBoth
	}
	if opts.Debounce == 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.DebounceEdges == 0 {
		opts.DebounceEdges = EdgeBoth
	}
	line.Dir = Input

	b := &Button{
		ctx:  c,
		gpio: gpio,
		line: line,
		opts: opts,
		box:  NewWaiter[bool](opts.Edges == EdgeBoth),
	}
	if err := configureLine(gpio, line); err != nil {
		return nil, err
	}
	if err := irq.Register(line.Pin, b); err != nil {
		return nil, err
	}
	b.value = line.Logical(gpio.ReadPin(line.Pin))
	b.reported = b.value
	if opts.Edges != EdgeBoth {
		b.reported = !b.edgeValue()
	}
	gpio.AcknowledgeEdge(line.Pin, EdgeBoth)
	if err := gpio.EnableEdgeInterrupt(line.Pin, opts.Edges); err != nil {
		irq.Release(line.Pin)
		return nil, err
	}
	return b, nil
}

// NewDigitalInput is a button that reports every change of level
func NewDigitalInput(c *Context, gpio GPIODriver, irq *IRQTable, line Line) (*Button, error) {
	return NewButton(c, gpio, irq, line, ButtonOptions{Edges: EdgeBoth})
}

// HandleEdge runs in interrupt context
func (b *Button) HandleEdge(pin GPIOPin) {
	events := b.gpio.EdgeEvents(pin)
	if (events & b.opts.Edges) == 0 {
		RecordTrace(TraceSpuriousIRQ, uint8(pin), b.ctx.Now(), int32(events), 0)
		return
	}
	b.gpio.AcknowledgeEdge(pin, b.opts.Edges)

	now := b.ctx.Now()
	value := b.line.Logical(b.gpio.ReadPin(pin))
	b.cs.Lock()
	b.value = value
	b.cs.Unlock()

	// A single-edge input only acts when the line sits at the level its
	// edge leads to. Anything else is a bounce on the other transition.
	if b.opts.Edges != EdgeBoth && value != b.edgeValue() {
		RecordTrace(TraceSpuriousIRQ, uint8(pin), now, int32(events), 1)
		return
	}

	if b.accepted && (events&b.opts.DebounceEdges) != 0 {
		age := now.Sub(b.lastAccepted)
		if age < b.opts.Debounce {
			b.cs.Lock()
			b.rejected++
			b.cs.Unlock()
			RecordTrace(TraceDebounceReject, uint8(pin), now, int32(age/time.Microsecond), 0)
			return
		}
	}
	b.lastAccepted = now
	b.accepted = true

	if value == b.reported {
		return
	}
	b.box.Send(value)
	b.reported = value
	if b.opts.Edges != EdgeBoth {
		// The opposite edge never interrupts, so the next accepted edge
		// is a new press
		b.reported = !value
	}
}

// edgeValue is the logical level a single-edge input reports: true for the
// edge that makes the line active
func (b *Button) edgeValue() bool {
	active := EdgeRise
	if b.line.Polarity == ActiveLow {
		active = EdgeFall
	}
	return b.opts.Edges == active
}

// Await suspends t until the input reports and returns the value
func (b *Button) Await(t *Task) bool {
	return b.box.Await(t)
}

// TryRead consumes an unread report
func (b *Button) TryRead() (bool, bool) {
	return b.box.TryRead()
}

// Value returns the logical level sampled at the last edge interrupt
func (b *Button) Value() bool {
	b.cs.Lock()
	defer b.cs.Unlock()
	return b.value
}

// Rejected returns how many edges fell inside the debounce window
func (b *Button) Rejected() uint32 {
	b.cs.Lock()
	defer b.cs.Unlock()
	return b.rejected
}

// Line returns the configured line
func (b *Button) Line() Line {
	return b.line
}
