package core

import "time"

// Awaiter is something a task can suspend on.
//
// TryTake consumes a ready value. Park registers t to be woken when a value
// arrives and returns false, without registering, if one is already there.
// Both run under the awaiter's guard, so a value sent between the two calls
// is seen by Park.
type Awaiter[T any] interface {
	TryTake() (T, bool)
	Park(t *Task) bool
}

// Task is a coroutine driven by a Context. The body runs on its own
// goroutine but strictly in lockstep with the poll loop: whoever resumes the
// task blocks until it suspends again or finishes, so exactly one of them
// executes at any moment.
type Task struct {
	ctx  *Context
	exec *Executor

	resumeCh chan struct{}
	yieldCh  chan struct{}

	cs       CriticalSection
	done     bool
	joiner   *Task
	finished Notification

	panicked bool
	panicVal interface{}

	sleeper *ScheduledWorker
}

// Go creates a task and runs fn until its first suspension point or until it
// returns. Call it from scheduler context: the poll loop, a worker, another
// task, or setup code before the loop starts.
//
// A panic in fn is re-raised in whichever context resumed the task.
func Go(c *Context, fn func(t *Task)) *Task {
	t := &Task{
		ctx:      c,
		resumeCh: make(chan struct{}),
		yieldCh:  make(chan struct{}),
	}
	t.exec = NewExecutor(c)

	go t.main(fn)
	<-t.yieldCh
	t.afterYield()
	return t
}

func (t *Task) main(fn func(t *Task)) {
	defer func() {
		if r := recover(); r != nil {
			t.panicked = true
			t.panicVal = r
		}

		t.cs.Lock()
		t.done = true
		j := t.joiner
		t.joiner = nil
		t.cs.Unlock()

		t.finished.Notify()
		if j != nil {
			j.Wake()
		}
		t.yieldCh <- struct{}{}
	}()

	fn(t)
}

// suspend hands control back to the resumer and blocks until resumed
func (t *Task) suspend() {
	t.yieldCh <- struct{}{}
	<-t.resumeCh
}

// resume runs the task until its next suspension. Called from the poll loop.
func (t *Task) resume() {
	if t.Done() {
		return
	}
	t.resumeCh <- struct{}{}
	<-t.yieldCh
	t.afterYield()
}

func (t *Task) afterYield() {
	if !t.Done() {
		return
	}
	t.exec.Close()
	if t.sleeper != nil {
		t.sleeper.Close()
	}
	if t.panicked {
		panic(t.panicVal)
	}
}

// Context returns the context that drives the task
func (t *Task) Context() *Context {
	return t.ctx
}

// Wake schedules the task to be resumed from the poll loop. Safe from
// interrupt context. Awaiters call it for the task they parked.
func (t *Task) Wake() {
	t.exec.Schedule(t)
}

// Done reports whether the task body has returned
func (t *Task) Done() bool {
	t.cs.Lock()
	defer t.cs.Unlock()
	return t.done
}

// Wait blocks the calling goroutine until the task finishes. It does not
// drive the context; some other goroutine must be polling it. Never call it
// from scheduler context.
func (t *Task) Wait() {
	t.finished.Wait()
}

// TryTake reports completion
func (t *Task) TryTake() (struct{}, bool) {
	return struct{}{}, t.Done()
}

// Park registers j to be woken when t finishes
func (t *Task) Park(j *Task) bool {
	t.cs.Lock()
	defer t.cs.Unlock()
	if t.done {
		return false
	}
	if t.joiner != nil && t.joiner != j {
		panic("core: task already has a joiner")
	}
	t.joiner = j
	return true
}

// Join suspends t until other finishes
func (t *Task) Join(other *Task) {
	Await[struct{}](t, other)
}

// Await suspends t until a is ready and returns the taken value
func Await[T any](t *Task, a Awaiter[T]) T {
	for {
		if v, ok := a.TryTake(); ok {
			return v
		}
		if !a.Park(t) {
			continue
		}
		t.suspend()
	}
}

// Yield suspends t and resumes it on the next poll
func (t *Task) Yield() {
	t.Wake()
	t.suspend()
}

// Sleep suspends t until the context clock reaches until. A deadline that
// has already passed still yields once.
func (t *Task) Sleep(until Time) {
	if t.sleeper == nil {
		t.sleeper = NewScheduledWorker(t.ctx, func(Time) Time {
			t.Wake()
			return Never
		})
	}
	t.sleeper.ScheduleAt(until)
	t.suspend()
}

// SleepFor suspends t for d measured on the context clock
func (t *Task) SleepFor(d time.Duration) {
	t.Sleep(t.ctx.Now().Add(d))
}
