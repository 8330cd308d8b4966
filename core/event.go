package core

import (
	"sync/atomic"
	"time"
)

// Event is a reusable notify/await flag. A Notify with no awaiter is kept
// and consumed by the next Await without suspending.
type Event struct {
	cs     CriticalSection
	set    bool
	waiter *Task
}

// Notify sets the event and wakes the awaiter, if any. Safe from interrupt
// context.
func (e *Event) Notify() {
	e.cs.Lock()
	e.set = true
	w := e.waiter
	e.waiter = nil
	e.cs.Unlock()

	if w != nil {
		w.Wake()
	}
}

// TryTake consumes a pending notify
func (e *Event) TryTake() (struct{}, bool) {
	e.cs.Lock()
	defer e.cs.Unlock()
	if !e.set {
		return struct{}{}, false
	}
	e.set = false
	return struct{}{}, true
}

// Park registers t unless a notify is already pending
func (e *Event) Park(t *Task) bool {
	e.cs.Lock()
	defer e.cs.Unlock()
	if e.set {
		return false
	}
	if e.waiter != nil && e.waiter != t {
		panic("core: event already has an awaiter")
	}
	e.waiter = t
	return true
}

// Await suspends t until the event is notified, then resets it
func (e *Event) Await(t *Task) {
	Await[struct{}](t, e)
}

// Reset drops a pending notify
func (e *Event) Reset() {
	e.cs.Lock()
	e.set = false
	e.cs.Unlock()
}

// Notification is a one-shot signal from any context to exactly one
// blocking waiter outside the poll loop.
type Notification struct {
	flag uint32
	wake wakeSignal
}

// Notify sets the notification. Safe from interrupt context; later calls
// have no effect.
func (n *Notification) Notify() {
	atomic.StoreUint32(&n.flag, 1)
	n.wake.signal()
}

// Notified reports whether Notify has been called
func (n *Notification) Notified() bool {
	return atomic.LoadUint32(&n.flag) == 1
}

// Wait blocks until Notify has been called
func (n *Notification) Wait() {
	for !n.Notified() {
		n.wake.wait(-1)
	}
}

// WaitTimeout blocks until Notify is called or d elapses and reports
// whether it was notified
func (n *Notification) WaitTimeout(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for !n.Notified() {
		left := time.Until(deadline)
		if left <= 0 {
			return false
		}
		n.wake.wait(left)
	}
	return true
}
