package core

import (
	"context"
	"time"
)

// Scheduled worker states
const (
	swIdle    = 0 // not armed
	swArmed   = 1 // in the timer list
	swDue     = 2 // popped by the current poll, not yet invoked
	swRunning = 3 // callback executing
)

// Context is the cooperative execution context. It owns every pending and
// scheduled worker and is drained by a single control-flow loop; all
// application logic, including task resumption, runs from PollOnce.
//
// MarkPending may be called from any context. Everything else must be called
// from the goroutine that drives PollOnce.
type Context struct {
	cs    CriticalSection
	clock Clock
	wake  wakeSignal

	// Registered pending workers in registration order
	workers    []*PendingWorker
	anyPending bool
	batch      []*PendingWorker

	// Scheduled workers sorted by deadline, then by arm order
	timerList *ScheduledWorker
	armSeq    uint64
	due       *ScheduledWorker
}

// NewContext creates an execution context driven by the given clock
func NewContext(clock Clock) *Context {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &Context{clock: clock}
}

// Clock returns the context's time source
func (c *Context) Clock() Clock {
	return c.clock
}

// Now returns the current time of the context's clock
func (c *Context) Now() Time {
	return c.clock.NowMicros()
}

// RegisterPending makes w eligible to be flagged. Registering twice is a
// no-op.
func (c *Context) RegisterPending(w *PendingWorker) {
	c.cs.Lock()
	defer c.cs.Unlock()

	if w.registered {
		return
	}
	w.ctx = c
	w.registered = true
	w.pending = false
	c.workers = append(c.workers, w)
}

// UnregisterPending removes w. A pending flag that was set is dropped.
func (c *Context) UnregisterPending(w *PendingWorker) {
	c.cs.Lock()
	defer c.cs.Unlock()

	if !w.registered {
		return
	}
	w.registered = false
	w.pending = false
	for i, cur := range c.workers {
		if cur == w {
			copy(c.workers[i:], c.workers[i+1:])
			c.workers[len(c.workers)-1] = nil
			c.workers = c.workers[:len(c.workers)-1]
			break
		}
	}
}

// MarkPending flags w to run on the next poll. Safe from interrupt context.
// Marks coalesce: any number of calls between two polls run w once.
func (c *Context) MarkPending(w *PendingWorker) {
	c.cs.Lock()
	if !w.registered {
		c.cs.Unlock()
		return
	}
	first := !w.pending
	w.pending = true
	c.anyPending = true
	c.cs.Unlock()

	if first {
		RecordTrace(TraceMarkPending, 0, c.clock.NowMicros(), 0, 0)
	}
	c.wake.signal()
}

// RegisterScheduled arms w to run once deadline has passed
func (c *Context) RegisterScheduled(w *ScheduledWorker, deadline Time) {
	c.Reschedule(w, deadline)
}

// Reschedule moves w to a new deadline, arming it if it was idle. Passing
// Never cancels it.
func (c *Context) Reschedule(w *ScheduledWorker, deadline Time) {
	c.cs.Lock()
	w.ctx = c
	c.removeTimer(w)
	if deadline == Never {
		w.state = swIdle
		w.deadline = Never
		c.cs.Unlock()
		return
	}
	w.deadline = deadline
	c.insertTimer(w)
	c.cs.Unlock()

	c.wake.signal()
}

// UnregisterScheduled disarms w. It will not run again until re-armed.
func (c *Context) UnregisterScheduled(w *ScheduledWorker) {
	c.cs.Lock()
	defer c.cs.Unlock()

	c.removeTimer(w)
	w.state = swIdle
	w.deadline = Never
}

// Unregister removes a pending or scheduled worker from the context
func (c *Context) Unregister(w interface{}) {
	switch w := w.(type) {
	case *PendingWorker:
		c.UnregisterPending(w)
	case *ScheduledWorker:
		c.UnregisterScheduled(w)
	}
}

// insertTimer inserts w in sorted order by deadline. Equal deadlines keep
// arm order. Caller holds c.cs.
func (c *Context) insertTimer(w *ScheduledWorker) {
	c.armSeq++
	w.seq = c.armSeq
	w.state = swArmed

	if c.timerList == nil || w.deadline < c.timerList.deadline {
		w.next = c.timerList
		c.timerList = w
		return
	}

	current := c.timerList
	for current.next != nil && current.next.deadline <= w.deadline {
		current = current.next
	}
	w.next = current.next
	current.next = w
}

// removeTimer unlinks w from whichever list holds it. Caller holds c.cs.
func (c *Context) removeTimer(w *ScheduledWorker) {
	switch w.state {
	case swArmed:
		c.timerList = unlink(c.timerList, w)
	case swDue:
		c.due = unlink(c.due, w)
	}
	w.next = nil
}

func unlink(head, w *ScheduledWorker) *ScheduledWorker {
	if head == w {
		return w.next
	}
	for cur := head; cur != nil; cur = cur.next {
		if cur.next == w {
			cur.next = w.next
			break
		}
	}
	return head
}

// PollOnce runs every worker that is pending at the time of the call exactly
// once, in registration order, then every scheduled worker whose deadline
// has elapsed, in deadline order. Work made pending or due by those
// callbacks runs on the next poll.
//
// A panicking callback is fatal: the panic propagates to the caller.
func (c *Context) PollOnce() {
	pending := c.runPending()
	timers := c.runTimers()
	if pending+timers > 0 {
		RecordTrace(TracePoll, 0, c.clock.NowMicros(), int32(pending), int32(timers))
	}
}

// runPending returns how many workers it ran
func (c *Context) runPending() int {
	c.cs.Lock()
	if !c.anyPending {
		c.cs.Unlock()
		return 0
	}
	c.anyPending = false
	batch := c.batch[:0]
	for _, w := range c.workers {
		if w.pending {
			w.pending = false
			batch = append(batch, w)
		}
	}
	c.batch = batch
	c.cs.Unlock()

	ran := 0
	for i, w := range batch {
		batch[i] = nil
		// An earlier callback in this batch may have closed w
		if w.registered {
			w.fn()
			ran++
		}
	}
	return ran
}

// runTimers returns how many scheduled workers it ran
func (c *Context) runTimers() int {
	now := c.clock.NowMicros()

	// Detach everything that is due so that workers re-armed at or before
	// now by their own callbacks wait for the next poll.
	c.cs.Lock()
	if c.timerList == nil || c.timerList.deadline > now {
		c.cs.Unlock()
		return 0
	}
	head := c.timerList
	tail := head
	tail.state = swDue
	for tail.next != nil && tail.next.deadline <= now {
		tail = tail.next
		tail.state = swDue
	}
	c.timerList = tail.next
	tail.next = nil
	c.due = head
	c.cs.Unlock()

	ran := 0
	for {
		c.cs.Lock()
		w := c.due
		if w == nil {
			c.cs.Unlock()
			return ran
		}
		c.due = w.next
		w.next = nil
		w.state = swRunning
		c.cs.Unlock()

		next := w.fn(now)
		ran++

		c.cs.Lock()
		switch {
		case next != Never:
			c.removeTimer(w)
			w.deadline = next
			c.insertTimer(w)
		case w.state == swRunning:
			// Not re-armed by the callback itself
			w.state = swIdle
			w.deadline = Never
		}
		c.cs.Unlock()
	}
}

// NextWakeTime returns now if any worker is pending, otherwise the earliest
// scheduled deadline, or Never when there is nothing to do.
func (c *Context) NextWakeTime() Time {
	c.cs.Lock()
	defer c.cs.Unlock()

	if c.anyPending || c.due != nil {
		return c.clock.NowMicros()
	}
	if c.timerList != nil {
		return c.timerList.deadline
	}
	return Never
}

// WaitForWork sleeps until deadline passes or a worker is marked pending.
// Deadlines are measured against the context's clock but slept in real
// time, so a manual clock only makes sense with a deadline of now or Never.
func (c *Context) WaitForWork(deadline Time) {
	if deadline == Never {
		c.wake.wait(-1)
		return
	}
	now := c.clock.NowMicros()
	if deadline <= now {
		c.wake.wait(0)
		return
	}
	c.wake.wait(deadline.Sub(now))
}

// Run is the host loop: sleep until the next wake time, then poll, until
// ctx is cancelled. Firmware targets pass context.Background().
func (c *Context) Run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.wake.signal()
		case <-stop:
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.WaitForWork(c.NextWakeTime())
		if err := ctx.Err(); err != nil {
			return err
		}
		c.PollOnce()
	}
}

// PollFor polls repeatedly until nothing is pending or d of real time has
// passed. Used by simulations that need the context to settle.
func (c *Context) PollFor(d time.Duration) {
	end := time.Now().Add(d)
	for {
		c.PollOnce()
		if c.NextWakeTime() > c.clock.NowMicros() || !time.Now().Before(end) {
			return
		}
	}
}
