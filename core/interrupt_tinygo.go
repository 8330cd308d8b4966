//go:build tinygo

package core

import "runtime/interrupt"

// CriticalSection is a short, non-blocking guard shared between interrupt
// handlers and scheduler context. Entering it masks interrupts on the
// current core; each section keeps its own saved state so distinct sections
// may nest.
//
// It must never be held across a task suspension.
type CriticalSection struct {
	state interrupt.State
}

// Lock disables interrupts and saves the previous state
func (cs *CriticalSection) Lock() {
	state := interrupt.Disable()
	cs.state = state
}

// Unlock restores the interrupt state saved by Lock
func (cs *CriticalSection) Unlock() {
	interrupt.Restore(cs.state)
}
