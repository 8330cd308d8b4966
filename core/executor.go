package core

// Executor resumes a suspended task from the poll loop. Producers running in
// interrupt context call Schedule, which only records the task and marks a
// pending worker; the task body itself runs when the worker does.
type Executor struct {
	cs          CriticalSection
	ctx         *Context
	worker      *PendingWorker
	task        *Task
	scheduledAt Time
}

// NewExecutor creates an executor whose worker is registered with c
func NewExecutor(c *Context) *Executor {
	e := &Executor{ctx: c}
	e.worker = NewPendingWorker(c, e.run)
	return e
}

// Schedule requests that t be resumed on the next poll. Safe from interrupt
// context. Scheduling again before the poll is a no-op.
func (e *Executor) Schedule(t *Task) {
	e.cs.Lock()
	if e.task == nil {
		e.task = t
		e.scheduledAt = e.ctx.Now()
	}
	e.cs.Unlock()

	e.worker.MarkPending()
}

func (e *Executor) run() {
	e.cs.Lock()
	t := e.task
	at := e.scheduledAt
	e.task = nil
	e.cs.Unlock()

	if t == nil {
		return
	}
	now := e.ctx.Now()
	RecordTrace(TraceResume, 0, now, int32(now-at), 0)
	t.resume()
}

// Close unregisters the executor's worker. A resumption that has not run
// yet is dropped.
func (e *Executor) Close() {
	e.worker.Close()
	e.cs.Lock()
	e.task = nil
	e.cs.Unlock()
}
