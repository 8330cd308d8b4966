//go:build rp2040

package main

import (
	"context"
	"machine"
	"time"

	pio "github.com/tinygo-org/pio/rp2-pio"

	"leadscrew/controller"
	"leadscrew/controller/config"
	"leadscrew/core"
)

// pulseOutput selects the step pulse generator, "pwm" or "pio". Set with
// -ldflags "-X main.pulseOutput=pio".
var pulseOutput = "pwm"

func main() {
	// Clear any watchdog state left from before the reset
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}
	InitUSB()

	// Give the host time to open the port before the first frames
	time.Sleep(2 * time.Second)

	defer func() {
		if r := recover(); r != nil {
			println("panic:", r)
			resetViaWatchdog()
		}
	}()

	c := core.NewContext(hardwareClock{})
	irq := core.NewIRQTable()
	gpio := NewRPGPIODriver(irq)
	cfg := config.Default()

	var pulse core.FrequencyDriver = NewPWMFrequencyDriver()
	if pulseOutput == "pio" {
		pulse = NewPIOFrequencyDriver(c, pio.PIO0)
	}

	hw := controller.Hardware{
		GPIO:      gpio,
		IRQ:       irq,
		Pulse:     pulse,
		Telemetry: &usbWriter{},
	}
	if d, err := initDisplay(cfg); err != nil {
		println("display:", err.Error())
	} else {
		hw.Display = d
	}

	ctl, err := controller.New(c, cfg, hw)
	if err != nil {
		// Wiring errors do not fix themselves; keep reporting instead of
		// reboot-looping
		for {
			println("controller:", err.Error())
			time.Sleep(time.Second)
		}
	}
	ctl.Start()

	if err := startWatchdog(c); err != nil {
		println("watchdog:", err.Error())
	}

	c.Run(context.Background())
}
