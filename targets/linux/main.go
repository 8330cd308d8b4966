//go:build linux && !tinygo

// Command leadscrew runs the controller on a Linux board through the GPIO
// character device. Step pulses are simulated; telemetry frames go to a
// file or FIFO for leadscrew-monitor.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"leadscrew/controller"
	"leadscrew/controller/config"
	"leadscrew/core"
	"leadscrew/display"
)

var (
	chip      = flag.String("chip", "gpiochip0", "GPIO character device")
	telemetry = flag.String("telemetry", "", "Write telemetry frames to this file or FIFO")
	verbose   = flag.Bool("verbose", false, "Print debug output")
	show      = flag.Bool("show", false, "Print the display to stdout on every refresh")
)

func main() {
	flag.Parse()

	core.SetDebugWriter(func(s string) { fmt.Fprintln(os.Stderr, s) })
	core.SetDebugEnabled(*verbose)
	core.InitAsyncDebug()

	c := core.NewContext(core.NewSystemClock())
	irq := core.NewIRQTable()
	gpio := NewCdevGPIODriver(*chip, irq)
	defer gpio.Close()

	cfg := config.Default()
	screen := display.NewMono(cfg.DisplayWidth, cfg.DisplayHeight)
	if *show {
		screen.OnDisplay = func(m *display.Mono) error {
			_, err := fmt.Print("\x1b[H\x1b[2J", m.String())
			return err
		}
	}

	hw := controller.Hardware{
		GPIO:    gpio,
		IRQ:     irq,
		Pulse:   core.NewSimFrequencyDriver(),
		Display: screen,
	}
	if *telemetry != "" {
		f, err := os.OpenFile(*telemetry, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		hw.Telemetry = f
	}

	ctl, err := controller.New(c, cfg, hw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ctl.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	ctl.Stop()
	if *verbose {
		core.DumpTrace()
	}
}
