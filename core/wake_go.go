//go:build !tinygo

package core

import (
	"sync"
	"time"
)

// wakeSignal is a one-slot doorbell. Ringing it never blocks, so it is safe
// from edge handlers; the poll loop waits on it between deadlines.
type wakeSignal struct {
	once sync.Once
	ch   chan struct{}
}

func (w *wakeSignal) init() {
	w.once.Do(func() {
		w.ch = make(chan struct{}, 1)
	})
}

func (w *wakeSignal) signal() {
	w.init()
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

// wait blocks until the doorbell rings or d elapses. A negative d waits
// forever. Reports whether the doorbell rang.
func (w *wakeSignal) wait(d time.Duration) bool {
	w.init()
	if d < 0 {
		<-w.ch
		return true
	}
	if d == 0 {
		select {
		case <-w.ch:
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-w.ch:
		return true
	case <-timer.C:
		return false
	}
}
