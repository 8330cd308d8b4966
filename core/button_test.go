package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testButtonPin GPIOPin = 27

type buttonRig struct {
	ctx   *Context
	clock *ManualClock
	gpio  *SimGPIO
	btn   *Button
	got   []bool
}

func newButtonRig(t *testing.T, opts ButtonOptions) *buttonRig {
	t.Helper()
	c, clock := newManualContext()
	irq := NewIRQTable()
	gpio := NewSimGPIO(irq)
	btn, err := NewButton(c, gpio, irq, Line{Pin: testButtonPin, Polarity: ActiveLow}, opts)
	require.NoError(t, err)

	r := &buttonRig{ctx: c, clock: clock, gpio: gpio, btn: btn}
	Go(c, func(t *Task) {
		for {
			r.got = append(r.got, btn.Await(t))
		}
	})
	return r
}

// at moves the clock to ms, drives the pin and lets the consumer run
func (r *buttonRig) at(ms uint64, level bool) {
	r.clock.SetMillis(ms)
	r.gpio.SetLevel(testButtonPin, level)
	r.ctx.PollOnce()
}

func TestButtonDebounceScenario(t *testing.T) {
	r := newButtonRig(t, ButtonOptions{Edges: EdgeBoth})
	assert.False(t, r.btn.Value())

	// Press at 0 ms is accepted
	r.at(0, false)
	// Release at 50 ms bounces inside the window
	r.at(50, true)
	assert.Equal(t, uint32(1), r.btn.Rejected())

	// The real release at 120 ms: the level is already high, only the
	// interrupt fires
	r.clock.SetMillis(120)
	r.gpio.InjectEdge(testButtonPin, EdgeRise)
	r.ctx.PollOnce()

	assert.Equal(t, []bool{true, false}, r.got)
	assert.False(t, r.btn.Value())
}

func TestButtonEdgesAtWindowBoundary(t *testing.T) {
	r := newButtonRig(t, ButtonOptions{Edges: EdgeBoth})

	r.at(0, false)
	r.at(100, true)
	r.at(199, false)
	r.at(300, false) // no change, no edge
	assert.Equal(t, []bool{true, false}, r.got)
	assert.Equal(t, uint32(1), r.btn.Rejected())
}

func TestButtonUnchangedValueNotReported(t *testing.T) {
	r := newButtonRig(t, ButtonOptions{Edges: EdgeBoth})

	r.at(0, false)
	// A late glitch that samples the same level
	r.clock.SetMillis(500)
	r.gpio.InjectEdge(testButtonPin, EdgeFall)
	r.ctx.PollOnce()
	assert.Equal(t, []bool{true}, r.got)
}

func TestButtonPressOnly(t *testing.T) {
	r := newButtonRig(t, ButtonOptions{Edges: EdgeFall})

	r.at(0, false)   // press
	r.at(200, true)  // release: not an enabled edge
	r.at(400, false) // press
	r.at(450, true)
	r.at(460, false) // bounce, rejected
	assert.Equal(t, []bool{true, true}, r.got)
}

func TestButtonDebounceOnlyConfiguredEdges(t *testing.T) {
	// Releases are not filtered
	r := newButtonRig(t, ButtonOptions{Edges: EdgeBoth, DebounceEdges: EdgeFall})

	r.at(0, false)
	r.at(10, true)  // release passes
	r.at(20, false) // press inside window of release: filtered
	assert.Equal(t, []bool{true, false}, r.got)
}

func TestButtonPressOnlyIgnoresLateReleaseBounce(t *testing.T) {
	r := newButtonRig(t, ButtonOptions{Edges: EdgeFall})

	r.at(0, false)  // press
	r.at(300, true) // release raises no interrupt
	// A falling glitch on the release, long after the press, while the
	// line already reads high
	r.clock.SetMillis(305)
	r.gpio.InjectEdge(testButtonPin, EdgeFall)
	r.ctx.PollOnce()

	assert.Equal(t, []bool{true}, r.got)
	assert.False(t, r.btn.Value())
	assert.Equal(t, uint32(0), r.btn.Rejected())

	// The dropped edge does not open a debounce window
	r.at(310, false)
	assert.Equal(t, []bool{true, true}, r.got)
}

func TestButtonSpuriousInterrupt(t *testing.T) {
	r := newButtonRig(t, ButtonOptions{Edges: EdgeFall})

	// Rise latched but only fall is enabled
	r.gpio.InjectEdge(testButtonPin, EdgeRise)
	r.ctx.PollOnce()
	assert.Empty(t, r.got)
}

func TestActiveHighDigitalInput(t *testing.T) {
	c, clock := newManualContext()
	irq := NewIRQTable()
	gpio := NewSimGPIO(irq)

	in, err := NewDigitalInput(c, gpio, irq, Line{Pin: 3, Polarity: ActiveHigh})
	require.NoError(t, err)
	assert.False(t, in.Value(), "pull-down idles low")

	gpio.SetLevel(3, true)
	v, ok := in.TryRead()
	require.True(t, ok)
	assert.True(t, v)

	clock.SetMillis(150)
	gpio.SetLevel(3, false)
	v, ok = in.TryRead()
	require.True(t, ok)
	assert.False(t, v)
}

func TestLineLogical(t *testing.T) {
	assert.True(t, Line{Polarity: ActiveHigh}.Logical(true))
	assert.False(t, Line{Polarity: ActiveLow}.Logical(true))
	assert.True(t, Line{Polarity: ActiveLow}.Logical(false))
}

// refusingGPIO fails to arm edge interrupts
type refusingGPIO struct {
	*SimGPIO
}

func (refusingGPIO) EnableEdgeInterrupt(GPIOPin, EdgeMask) error {
	return errors.New("no interrupt controller")
}

func TestButtonReleasesPinWhenInterruptFails(t *testing.T) {
	c, _ := newManualContext()
	irq := NewIRQTable()
	gpio := refusingGPIO{NewSimGPIO(irq)}

	_, err := NewButton(c, gpio, irq, Line{Pin: testButtonPin, Polarity: ActiveLow}, ButtonOptions{})
	require.Error(t, err)
	assert.Nil(t, irq.Handler(testButtonPin))

	_, err = NewButton(c, gpio.SimGPIO, irq, Line{Pin: testButtonPin, Polarity: ActiveLow}, ButtonOptions{})
	assert.NoError(t, err)
}
