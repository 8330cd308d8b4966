//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"leadscrew/core"
)

// RP2040 timer peripheral: a free-running 64-bit microsecond counter
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word, no latching
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word, no latching
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// hardwareClock reads the timer directly, so it keeps counting while
// interrupts are masked
type hardwareClock struct{}

func (hardwareClock) NowMicros() core.Time {
	return core.Time(hardwareUptime())
}

// hardwareUptime reads the full 64-bit timer
func hardwareUptime() uint64 {
	// High, low, high again: retry if the low word rolled over in between
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}
