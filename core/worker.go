package core

// PendingWorker is a callback that runs on the next poll after it has been
// marked. The pending flag is level triggered: marking it many times before
// a poll runs it once.
type PendingWorker struct {
	ctx        *Context
	fn         func()
	registered bool
	pending    bool
}

// NewPendingWorker creates a worker and registers it with c
func NewPendingWorker(c *Context, fn func()) *PendingWorker {
	w := &PendingWorker{fn: fn}
	c.RegisterPending(w)
	return w
}

// MarkPending flags the worker. Safe from interrupt context.
func (w *PendingWorker) MarkPending() {
	if w.ctx != nil {
		w.ctx.MarkPending(w)
	}
}

// Close unregisters the worker. A mark that has not run yet is dropped.
func (w *PendingWorker) Close() {
	if w.ctx != nil {
		w.ctx.UnregisterPending(w)
	}
}

// ScheduledWorker is a callback that runs once its deadline has passed. The
// callback receives the poll time and returns the next deadline, or Never to
// stay idle.
type ScheduledWorker struct {
	ctx      *Context
	fn       func(now Time) Time
	deadline Time
	state    uint8
	seq      uint64
	next     *ScheduledWorker
}

// NewScheduledWorker creates an idle scheduled worker bound to c
func NewScheduledWorker(c *Context, fn func(now Time) Time) *ScheduledWorker {
	return &ScheduledWorker{ctx: c, fn: fn, deadline: Never}
}

// ScheduleAt arms the worker for deadline, replacing any earlier deadline
func (w *ScheduledWorker) ScheduleAt(deadline Time) {
	w.ctx.Reschedule(w, deadline)
}

// Cancel disarms the worker
func (w *ScheduledWorker) Cancel() {
	w.ctx.UnregisterScheduled(w)
}

// Close disarms the worker. It is the same as Cancel; scheduled workers hold
// no other registration.
func (w *ScheduledWorker) Close() {
	w.Cancel()
}

// Deadline returns the armed deadline, or Never when idle
func (w *ScheduledWorker) Deadline() Time {
	w.ctx.cs.Lock()
	defer w.ctx.cs.Unlock()
	if w.state == swIdle {
		return Never
	}
	return w.deadline
}

// Armed reports whether the worker is waiting for its deadline
func (w *ScheduledWorker) Armed() bool {
	return w.Deadline() != Never
}
