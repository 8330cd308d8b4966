package core

// Waiter is a single-slot mailbox between one interrupt-context producer
// and one task. A Send overwrites an unread value; the consumer sees only
// the latest. With dedupe set, sending the value that is already buffered
// is dropped.
type Waiter[T comparable] struct {
	cs       CriticalSection
	value    T
	full     bool
	dedupe   bool
	closed   bool
	consumer *Task
}

// NewWaiter creates an empty mailbox
func NewWaiter[T comparable](dedupe bool) *Waiter[T] {
	return &Waiter[T]{dedupe: dedupe}
}

// Send stores v and wakes the parked consumer, if any. Safe from interrupt
// context. The consumer slot is taken under the guard, so one Send resumes
// at most one task at most once.
func (w *Waiter[T]) Send(v T) {
	w.cs.Lock()
	if w.closed || (w.dedupe && w.full && w.value == v) {
		w.cs.Unlock()
		return
	}
	w.value = v
	w.full = true
	c := w.consumer
	w.consumer = nil
	w.cs.Unlock()

	if c != nil {
		c.Wake()
	}
}

// TryRead consumes the buffered value, if any
func (w *Waiter[T]) TryRead() (T, bool) {
	return w.TryTake()
}

// TryTake implements Awaiter
func (w *Waiter[T]) TryTake() (T, bool) {
	w.cs.Lock()
	defer w.cs.Unlock()

	var zero T
	if !w.full {
		return zero, false
	}
	v := w.value
	w.value = zero
	w.full = false
	return v, true
}

// Park implements Awaiter. A second consumer is a logic error.
func (w *Waiter[T]) Park(t *Task) bool {
	w.cs.Lock()
	defer w.cs.Unlock()

	if w.full {
		return false
	}
	if w.consumer != nil && w.consumer != t {
		panic("core: mailbox already has a consumer")
	}
	w.consumer = t
	return true
}

// Await suspends t until a value is available and consumes it
func (w *Waiter[T]) Await(t *Task) T {
	return Await[T](t, w)
}

// Pending reports whether a value is buffered
func (w *Waiter[T]) Pending() bool {
	w.cs.Lock()
	defer w.cs.Unlock()
	return w.full
}

// Close drops the buffered value and refuses further sends. Only valid when
// no task is parked on the mailbox.
func (w *Waiter[T]) Close() {
	w.cs.Lock()
	defer w.cs.Unlock()
	var zero T
	w.value = zero
	w.full = false
	w.closed = true
	w.consumer = nil
}
