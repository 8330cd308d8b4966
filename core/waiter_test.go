package core

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaiterRoundTrip(t *testing.T) {
	w := NewWaiter[int64](false)

	_, ok := w.TryRead()
	assert.False(t, ok)

	w.Send(42)
	assert.True(t, w.Pending())
	v, ok := w.TryRead()
	require.True(t, ok)
	assert.Equal(t, int64(42), v)

	// No stale second read
	_, ok = w.TryRead()
	assert.False(t, ok)
	assert.False(t, w.Pending())
}

func TestWaiterLatestValueWins(t *testing.T) {
	w := NewWaiter[int64](false)
	w.Send(1)
	w.Send(2)
	w.Send(3)

	v, ok := w.TryRead()
	require.True(t, ok)
	assert.Equal(t, int64(3), v)
	_, ok = w.TryRead()
	assert.False(t, ok)
}

func TestWaiterAwaitRoundTrip(t *testing.T) {
	c, _ := newManualContext()
	w := NewWaiter[int64](false)

	var got []int64
	Go(c, func(t *Task) {
		for {
			got = append(got, w.Await(t))
		}
	})
	assert.Empty(t, got)

	w.Send(7)
	c.PollOnce()
	assert.Equal(t, []int64{7}, got)

	// Nothing sent: the consumer stays parked
	c.PollOnce()
	assert.Equal(t, []int64{7}, got)

	w.Send(8)
	w.Send(9)
	c.PollOnce()
	assert.Equal(t, []int64{7, 9}, got)
}

func TestWaiterValueBeforeAwaitDoesNotSuspend(t *testing.T) {
	c, _ := newManualContext()
	w := NewWaiter[bool](false)
	w.Send(true)

	var got bool
	task := Go(c, func(t *Task) { got = w.Await(t) })
	assert.True(t, task.Done())
	assert.True(t, got)
}

func TestWaiterDedupe(t *testing.T) {
	w := NewWaiter[bool](true)
	w.Send(true)
	w.Send(true)
	v, ok := w.TryRead()
	require.True(t, ok)
	assert.True(t, v)

	// Dedupe only compares with the unread value
	w.Send(true)
	assert.True(t, w.Pending())
}

func TestWaiterSecondConsumerPanics(t *testing.T) {
	c, _ := newManualContext()
	w := NewWaiter[int](false)

	Go(c, func(t *Task) { w.Await(t) })
	assert.Panics(t, func() {
		Go(c, func(t *Task) { w.Await(t) })
	})
}

func TestWaiterClose(t *testing.T) {
	w := NewWaiter[int](false)
	w.Send(1)
	w.Close()
	assert.False(t, w.Pending())
	w.Send(2)
	assert.False(t, w.Pending())
}

// parkTracker wraps a Waiter and flags resumptions that find no value
type parkTracker struct {
	w        *Waiter[int64]
	parked   bool
	spurious int
}

func (p *parkTracker) TryTake() (int64, bool) {
	v, ok := p.w.TryTake()
	if p.parked && !ok {
		p.spurious++
	}
	p.parked = false
	return v, ok
}

func (p *parkTracker) Park(t *Task) bool {
	p.parked = p.w.Park(t)
	return p.parked
}

func TestWaiterConcurrentSendNeverLosesOrDoubleResumes(t *testing.T) {
	const n = 2000

	c := NewContext(nil)
	tracker := &parkTracker{w: NewWaiter[int64](false)}

	var got []int64
	done := false
	Go(c, func(t *Task) {
		for {
			v := Await[int64](t, tracker)
			got = append(got, v)
			if v == n {
				done = true
				return
			}
		}
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int64(1); i <= n; i++ {
			tracker.w.Send(i)
			if i%7 == 0 {
				runtime.Gosched()
			}
		}
	}()

	deadline := time.Now().Add(10 * time.Second)
	for !done && time.Now().Before(deadline) {
		c.WaitForWork(c.Now().Add(time.Millisecond))
		c.PollOnce()
	}
	wg.Wait()

	require.True(t, done, "final value never delivered")
	assert.Equal(t, 0, tracker.spurious, "task resumed without a value")
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1], got[i], "value delivered twice or out of order")
	}
	assert.Equal(t, int64(n), got[len(got)-1])
}
