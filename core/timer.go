package core

import (
	"math"
	"sync/atomic"
	"time"
)

// Time is a monotonic timestamp in microseconds since boot
type Time uint64

// Never is the deadline that is never reached. A scheduled worker returning
// Never is not re-armed.
const Never Time = math.MaxUint64

// FromMillis converts milliseconds to a Time offset
func FromMillis(ms uint64) Time {
	return Time(ms * 1000)
}

// FromDuration converts a duration to a Time offset, truncating to whole
// microseconds. Negative durations map to zero.
func FromDuration(d time.Duration) Time {
	if d <= 0 {
		return 0
	}
	return Time(d / time.Microsecond)
}

// Add returns t+d, saturating at Never
func (t Time) Add(d time.Duration) Time {
	if t == Never {
		return Never
	}
	off := FromDuration(d)
	if off > Never-t {
		return Never
	}
	return t + off
}

// Sub returns the duration t-u. It is negative when u is after t.
func (t Time) Sub(u Time) time.Duration {
	if t >= u {
		return time.Duration(t-u) * time.Microsecond
	}
	return -time.Duration(u-t) * time.Microsecond
}

// Millis returns t in whole milliseconds
func (t Time) Millis() uint64 {
	return uint64(t) / 1000
}

// Clock is the monotonic time source used by the scheduler and the
// debounced inputs.
type Clock interface {
	NowMicros() Time
}

// SystemClock reads the runtime's monotonic clock
type SystemClock struct {
	boot time.Time
}

// NewSystemClock returns a clock whose zero is the moment of the call
func NewSystemClock() *SystemClock {
	return &SystemClock{boot: time.Now()}
}

// NowMicros returns microseconds since the clock was created
func (c *SystemClock) NowMicros() Time {
	return FromDuration(time.Since(c.boot))
}

// ManualClock is a clock that only moves when told to. Used by tests and by
// the simulator so that debounce windows and deadlines are deterministic.
type ManualClock struct {
	now uint64
}

// NowMicros returns the current manual time
func (c *ManualClock) NowMicros() Time {
	return Time(atomic.LoadUint64(&c.now))
}

// Set moves the clock to an absolute time
func (c *ManualClock) Set(t Time) {
	atomic.StoreUint64(&c.now, uint64(t))
}

// SetMillis moves the clock to an absolute time in milliseconds
func (c *ManualClock) SetMillis(ms uint64) {
	c.Set(FromMillis(ms))
}

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	atomic.AddUint64(&c.now, uint64(FromDuration(d)))
}
