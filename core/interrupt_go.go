//go:build !tinygo

package core

import "sync"

// CriticalSection is a short, non-blocking guard shared between edge
// handlers and scheduler context. On the host, edge handlers are delivered
// on their own goroutines, so a mutex gives the same exclusion that masking
// interrupts gives on the MCU.
//
// It must never be held across a task suspension.
type CriticalSection struct {
	mu sync.Mutex
}

// Lock enters the critical section
func (cs *CriticalSection) Lock() {
	cs.mu.Lock()
}

// Unlock leaves the critical section
func (cs *CriticalSection) Unlock() {
	cs.mu.Unlock()
}
