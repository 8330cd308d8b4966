//go:build tinygo

package core

import (
	"sync/atomic"
	"time"
)

// wakePollInterval bounds how long the poll loop sleeps before rechecking
// the doorbell. Channel operations are not allowed in interrupt handlers,
// so the doorbell is a plain flag.
const wakePollInterval = 50 * time.Microsecond

type wakeSignal struct {
	flag uint32
}

func (w *wakeSignal) signal() {
	atomic.StoreUint32(&w.flag, 1)
}

func (w *wakeSignal) wait(d time.Duration) bool {
	var deadline time.Time
	if d > 0 {
		deadline = time.Now().Add(d)
	}
	for {
		if atomic.SwapUint32(&w.flag, 0) == 1 {
			return true
		}
		if d == 0 || (d > 0 && !time.Now().Before(deadline)) {
			return false
		}
		time.Sleep(wakePollInterval)
	}
}
