package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPinA GPIOPin = 22
	testPinB GPIOPin = 26
)

func TestQuadratureTableCounts(t *testing.T) {
	plus, minus, zero := 0, 0, 0
	for prev := uint8(0); prev < 4; prev++ {
		for cur := uint8(0); cur < 4; cur++ {
			switch quadIncrement(prev, cur) {
			case 1:
				plus++
			case -1:
				minus++
			case 0:
				zero++
			default:
				t.Fatalf("unexpected increment for %02b->%02b", prev, cur)
			}
		}
	}
	assert.Equal(t, 4, plus)
	assert.Equal(t, 4, minus)
	assert.Equal(t, 8, zero)

	for _, idx := range []int{0b1101, 0b0100, 0b0010, 0b1011} {
		assert.Equal(t, int8(1), quadratureTable[idx], "index %04b", idx)
	}
	for _, idx := range []int{0b1110, 0b0111, 0b0001, 0b1000} {
		assert.Equal(t, int8(-1), quadratureTable[idx], "index %04b", idx)
	}
	for s := uint8(0); s < 4; s++ {
		assert.Equal(t, int8(0), quadIncrement(s, s))
	}
}

type encoderRig struct {
	ctx   *Context
	clock *ManualClock
	gpio  *SimGPIO
	irq   *IRQTable
	enc   *RotaryEncoder
}

func newEncoderRig(t *testing.T) *encoderRig {
	t.Helper()
	c, clock := newManualContext()
	irq := NewIRQTable()
	gpio := NewSimGPIO(irq)
	enc, err := NewRotaryEncoder(c, gpio, irq, testPinA, testPinB)
	require.NoError(t, err)
	return &encoderRig{ctx: c, clock: clock, gpio: gpio, irq: irq, enc: enc}
}

// set drives the pins to state (B<<1)|A
func (r *encoderRig) set(state uint8) {
	r.gpio.SetLevels(map[GPIOPin]bool{
		testPinA: state&1 != 0,
		testPinB: state&2 != 0,
	})
}

var forwardCycle = []uint8{0b01, 0b00, 0b10, 0b11}
var reverseCycle = []uint8{0b10, 0b00, 0b01, 0b11}

func TestEncoderStartsIdleHigh(t *testing.T) {
	r := newEncoderRig(t)
	assert.Equal(t, uint8(0b11), r.enc.state)
	assert.Equal(t, int64(0), r.enc.Read())
}

func TestEncoderDetentWalk(t *testing.T) {
	r := newEncoderRig(t)

	for i, s := range forwardCycle {
		r.set(s)
		if i < 3 {
			assert.Equal(t, i+1, r.enc.Fractional(), "after edge %d", i+1)
			assert.Equal(t, int64(0), r.enc.Read())
		}
	}
	assert.Equal(t, 0, r.enc.Fractional())
	assert.Equal(t, int64(1), r.enc.Read())

	for i, s := range reverseCycle {
		r.set(s)
		if i < 3 {
			assert.Equal(t, -(i + 1), r.enc.Fractional())
		}
	}
	assert.Equal(t, int64(0), r.enc.Read())

	for _, s := range reverseCycle {
		r.set(s)
	}
	assert.Equal(t, int64(-1), r.enc.Read())
	assert.Equal(t, uint32(0), r.enc.InvalidTransitions())
}

func TestEncoderFourForwardTransitions(t *testing.T) {
	r := newEncoderRig(t)

	// 11->01, 01->00, 00->10, 10->11
	for _, s := range []uint8{0b01, 0b00, 0b10, 0b11} {
		r.set(s)
	}
	assert.Equal(t, int64(1), r.enc.Read())

	v, ok := r.enc.TryRead()
	require.True(t, ok)
	assert.Equal(t, int64(1), v)
}

func TestEncoderHalfStepBackAndForth(t *testing.T) {
	r := newEncoderRig(t)

	// Jitter on one contact never completes a detent
	for i := 0; i < 10; i++ {
		r.set(0b01)
		r.set(0b11)
	}
	assert.Equal(t, int64(0), r.enc.Read())
	assert.Equal(t, 0, r.enc.Fractional())
	_, ok := r.enc.TryRead()
	assert.False(t, ok)
}

func TestEncoderInvalidTransitionAbsorbed(t *testing.T) {
	r := newEncoderRig(t)

	// Both pins flip together: 11 -> 00 skips a state
	r.set(0b00)
	assert.Equal(t, 0, r.enc.Fractional())
	assert.Equal(t, uint32(1), r.enc.InvalidTransitions())

	// Decoding resumes from the sampled state
	for _, s := range []uint8{0b10, 0b11, 0b01, 0b00} {
		r.set(s)
	}
	assert.Equal(t, int64(1), r.enc.Read())
}

func TestEncoderSpuriousInterruptIgnored(t *testing.T) {
	r := newEncoderRig(t)

	r.irq.Dispatch(testPinA)
	assert.Equal(t, 0, r.enc.Fractional())
	assert.Equal(t, uint32(0), r.enc.InvalidTransitions())
}

func TestEncoderPinConflict(t *testing.T) {
	r := newEncoderRig(t)

	_, err := NewRotaryEncoder(r.ctx, r.gpio, r.irq, testPinA, 5)
	assert.ErrorIs(t, err, ErrPinInUse)

	_, err = NewRotaryEncoder(r.ctx, r.gpio, r.irq, 40, 41)
	assert.ErrorIs(t, err, ErrInvalidPin)
}

func TestEncoderAwaitFromTask(t *testing.T) {
	r := newEncoderRig(t)

	var got []int64
	Go(r.ctx, func(t *Task) {
		for {
			got = append(got, r.enc.Await(t))
		}
	})

	for _, s := range forwardCycle {
		r.set(s)
	}
	r.ctx.PollOnce()
	for _, s := range forwardCycle {
		r.set(s)
	}
	r.ctx.PollOnce()
	assert.Equal(t, []int64{1, 2}, got)
}

func TestEncoderConcurrentEdges(t *testing.T) {
	const detents = 200

	c := NewContext(nil)
	irq := NewIRQTable()
	gpio := NewSimGPIO(irq)
	enc, err := NewRotaryEncoder(c, gpio, irq, testPinA, testPinB)
	require.NoError(t, err)

	var last int64
	Go(c, func(t *Task) {
		for last != detents {
			last = enc.Await(t)
		}
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < detents; i++ {
			for _, s := range forwardCycle {
				gpio.SetLevels(map[GPIOPin]bool{testPinA: s&1 != 0, testPinB: s&2 != 0})
			}
		}
	}()

	deadline := time.Now().Add(10 * time.Second)
	for last != detents && time.Now().Before(deadline) {
		c.WaitForWork(c.Now().Add(time.Millisecond))
		c.PollOnce()
	}
	wg.Wait()

	assert.Equal(t, int64(detents), last)
	assert.Equal(t, int64(detents), enc.Read())
}

func TestEncoderCounterWraps(t *testing.T) {
	r := newEncoderRig(t)
	r.enc.Set(1<<63 - 1)
	for _, s := range forwardCycle {
		r.set(s)
	}
	assert.Equal(t, int64(-1<<63), r.enc.Read())
}

func TestEncoderReleasesPinsWhenInterruptFails(t *testing.T) {
	c, _ := newManualContext()
	irq := NewIRQTable()
	gpio := refusingGPIO{NewSimGPIO(irq)}

	_, err := NewRotaryEncoder(c, gpio, irq, testPinA, testPinB)
	require.Error(t, err)
	assert.Nil(t, irq.Handler(testPinA))
	assert.Nil(t, irq.Handler(testPinB))

	_, err = NewRotaryEncoder(c, gpio.SimGPIO, irq, testPinA, testPinB)
	assert.NoError(t, err)
}
