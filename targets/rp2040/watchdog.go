//go:build rp2040

package main

import (
	"machine"
	"time"

	"leadscrew/core"
)

const (
	watchdogTimeout = 2000 // ms
	watchdogFeed    = 500 * time.Millisecond
)

// startWatchdog arms the watchdog and feeds it from the scheduler, so a
// stalled poll loop resets the board
func startWatchdog(c *core.Context) error {
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: watchdogTimeout}); err != nil {
		return err
	}
	if err := machine.Watchdog.Start(); err != nil {
		return err
	}
	feed := core.NewScheduledWorker(c, func(now core.Time) core.Time {
		machine.Watchdog.Update()
		return now.Add(watchdogFeed)
	})
	feed.ScheduleAt(c.Now())
	return nil
}

// resetViaWatchdog reboots the chip and re-enumerates USB
func resetViaWatchdog() {
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1}); err == nil {
		machine.Watchdog.Start()
	}
	for {
		time.Sleep(time.Millisecond)
	}
}
