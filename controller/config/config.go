// Package config holds the board wiring and tuning of the lead-screw
// controller. There is no loader: firmware builds pick a profile in code.
package config

import (
	"errors"
	"fmt"
	"time"

	"leadscrew/core"
)

// NumEncoders and NumButtons match the front panel
const (
	NumEncoders = 3
	NumButtons  = 3
)

// EncoderPins is the A/B pair of one rotary encoder
type EncoderPins struct {
	A core.GPIOPin
	B core.GPIOPin
}

// DisplayPins is the SPI wiring of the OLED panel
type DisplayPins struct {
	Clock core.GPIOPin
	Data  core.GPIOPin
	Reset core.GPIOPin
	DC    core.GPIOPin
	CS    core.GPIOPin
}

// Config describes the panel wiring and the feed parameters
type Config struct {
	Encoders [NumEncoders]EncoderPins
	Buttons  [NumButtons]core.GPIOPin

	PulsePin     core.GPIOPin
	DirectionPin core.GPIOPin

	// Debounce window and the edges it applies to
	Debounce      time.Duration
	DebounceEdges core.EdgeMask

	// Feed rate contributed per detent of the coarse and fine encoders
	CoarseHzPerDetent float64
	FineHzPerDetent   float64
	MaxFeedHz         float64

	HeartbeatPeriod time.Duration
	TelemetryPeriod time.Duration

	// Countdown shown before the controller starts, in seconds
	SplashSeconds int

	Display       DisplayPins
	DisplayWidth  int16
	DisplayHeight int16
}

// Default returns the wiring of the reference board
func Default() *Config {
	return &Config{
		Encoders: [NumEncoders]EncoderPins{
			{A: 22, B: 26},
			{A: 19, B: 20},
			{A: 17, B: 16},
		},
		Buttons:           [NumButtons]core.GPIOPin{27, 21, 18},
		PulsePin:          0,
		DirectionPin:      1,
		Debounce:          core.DefaultDebounce,
		DebounceEdges:     core.EdgeBoth,
		CoarseHzPerDetent: 100,
		FineHzPerDetent:   1,
		MaxFeedHz:         50000,
		HeartbeatPeriod:   10 * time.Second,
		TelemetryPeriod:   250 * time.Millisecond,
		SplashSeconds:     3,
		Display:           DisplayPins{Clock: 2, Data: 3, Reset: 4, DC: 5, CS: 6},
		DisplayWidth:      128,
		DisplayHeight:     64,
	}
}

// ApplyDefaults fills zero values with the defaults. Pins are left alone:
// pin 0 is a valid pin.
func (c *Config) ApplyDefaults() {
	def := Default()
	if c.Debounce == 0 {
		c.Debounce = def.Debounce
	}
	if c.DebounceEdges == 0 {
		c.DebounceEdges = def.DebounceEdges
	}
	if c.CoarseHzPerDetent == 0 {
		c.CoarseHzPerDetent = def.CoarseHzPerDetent
	}
	if c.FineHzPerDetent == 0 {
		c.FineHzPerDetent = def.FineHzPerDetent
	}
	if c.MaxFeedHz == 0 {
		c.MaxFeedHz = def.MaxFeedHz
	}
	if c.HeartbeatPeriod == 0 {
		c.HeartbeatPeriod = def.HeartbeatPeriod
	}
	if c.TelemetryPeriod == 0 {
		c.TelemetryPeriod = def.TelemetryPeriod
	}
	if c.DisplayWidth == 0 {
		c.DisplayWidth = def.DisplayWidth
	}
	if c.DisplayHeight == 0 {
		c.DisplayHeight = def.DisplayHeight
	}
}

// Validate reports every wiring conflict and out-of-range value
func (c *Config) Validate() error {
	var errs []error
	used := make(map[core.GPIOPin]string)
	claim := func(pin core.GPIOPin, what string) {
		if pin >= core.MaxPins {
			errs = append(errs, fmt.Errorf("%s: pin %d: %w", what, pin, core.ErrInvalidPin))
			return
		}
		if prev, ok := used[pin]; ok {
			errs = append(errs, fmt.Errorf("%s: pin %d already used by %s: %w", what, pin, prev, core.ErrPinInUse))
			return
		}
		used[pin] = what
	}

	for i, e := range c.Encoders {
		claim(e.A, fmt.Sprintf("encoder %d A", i))
		claim(e.B, fmt.Sprintf("encoder %d B", i))
	}
	for i, b := range c.Buttons {
		claim(b, fmt.Sprintf("button %d", i))
	}
	claim(c.PulsePin, "pulse")
	claim(c.DirectionPin, "direction")
	claim(c.Display.Clock, "display clock")
	claim(c.Display.Data, "display data")
	claim(c.Display.Reset, "display reset")
	claim(c.Display.DC, "display dc")
	claim(c.Display.CS, "display cs")

	if c.Debounce < 0 {
		errs = append(errs, errors.New("debounce must not be negative"))
	}
	if c.DebounceEdges&^core.EdgeBoth != 0 {
		errs = append(errs, fmt.Errorf("debounce edges 0x%x: unknown bits", uint8(c.DebounceEdges)))
	}
	if c.MaxFeedHz <= 0 {
		errs = append(errs, errors.New("max feed must be positive"))
	}
	if c.HeartbeatPeriod <= 0 || c.TelemetryPeriod <= 0 {
		errs = append(errs, errors.New("heartbeat and telemetry periods must be positive"))
	}
	if c.DisplayWidth <= 0 || c.DisplayHeight <= 0 {
		errs = append(errs, errors.New("display size must be positive"))
	}
	return errors.Join(errs...)
}
