// Package controller wires the panel inputs, the pulse output and the
// display into the electronic lead screw application.
package controller

import (
	"fmt"
	"io"
	"math"
	"time"

	"tinygo.org/x/drivers"

	"leadscrew/controller/config"
	"leadscrew/core"
	"leadscrew/display"
	"leadscrew/protocol"
)

// Button roles, by index in config.Buttons
const (
	ButtonRun     = 0
	ButtonReverse = 1
	ButtonZero    = 2
)

// Hardware is what a target provides to the controller
type Hardware struct {
	GPIO  core.GPIODriver
	IRQ   *core.IRQTable
	Pulse core.FrequencyDriver

	// Optional
	Display   drivers.Displayer
	Telemetry io.Writer
}

// Controller owns the application state. Everything except Status and
// Feed runs on the scheduler's poll loop.
type Controller struct {
	ctx *core.Context
	cfg *config.Config

	encoders [config.NumEncoders]*core.RotaryEncoder
	buttons  [config.NumButtons]*core.Button
	speed    *core.SpeedControl
	panel    *display.Panel

	values    [config.NumEncoders]int64
	running   bool
	reverse   bool
	feedHz    float64
	splashing bool

	render    *core.PendingWorker
	heartbeat *core.ScheduledWorker
	telemetry *core.ScheduledWorker

	sink   io.Writer
	out    *protocol.ScratchOutput
	frames *protocol.Encoder

	tasks []*core.Task
}

// New claims the configured pins and builds the controller. Nothing runs
// until Start.
func New(c *core.Context, cfg *config.Config, hw Hardware) (*Controller, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctl := &Controller{ctx: c, cfg: cfg, sink: hw.Telemetry}

	for i, pins := range cfg.Encoders {
		enc, err := core.NewRotaryEncoder(c, hw.GPIO, hw.IRQ, pins.A, pins.B)
		if err != nil {
			return nil, fmt.Errorf("encoder %d: %w", i, err)
		}
		ctl.encoders[i] = enc
	}

	opts := core.ButtonOptions{
		Edges:         core.EdgeFall,
		Debounce:      cfg.Debounce,
		DebounceEdges: cfg.DebounceEdges,
	}
	for i, pin := range cfg.Buttons {
		btn, err := core.NewButton(c, hw.GPIO, hw.IRQ, core.Line{Pin: pin, Polarity: core.ActiveLow}, opts)
		if err != nil {
			return nil, fmt.Errorf("button %d: %w", i, err)
		}
		ctl.buttons[i] = btn
	}

	speed, err := core.NewSpeedControl(c, hw.GPIO, hw.Pulse, cfg.PulsePin, cfg.DirectionPin)
	if err != nil {
		return nil, fmt.Errorf("speed control: %w", err)
	}
	ctl.speed = speed

	if hw.Display != nil {
		ctl.panel = display.NewPanel(hw.Display)
	}
	if hw.Telemetry != nil {
		ctl.out = protocol.NewScratchOutput()
		ctl.frames = protocol.NewEncoder(ctl.out)
	}
	return ctl, nil
}

// Start spawns the input tasks and arms the periodic workers
func (ctl *Controller) Start() {
	c := ctl.ctx

	ctl.render = core.NewPendingWorker(c, ctl.draw)
	ctl.heartbeat = core.NewScheduledWorker(c, ctl.beat)
	ctl.heartbeat.ScheduleAt(c.Now())
	if ctl.sink != nil {
		ctl.telemetry = core.NewScheduledWorker(c, ctl.report)
		ctl.telemetry.ScheduleAt(c.Now().Add(ctl.cfg.TelemetryPeriod))
	}

	for i := range ctl.encoders {
		i := i
		ctl.tasks = append(ctl.tasks, core.Go(c, func(t *core.Task) {
			for {
				ctl.values[i] = ctl.encoders[i].Await(t)
				ctl.applyFeed()
				ctl.render.MarkPending()
			}
		}))
	}

	ctl.tasks = append(ctl.tasks,
		core.Go(c, ctl.pressLoop(ButtonRun, func() { ctl.running = !ctl.running })),
		core.Go(c, ctl.pressLoop(ButtonReverse, func() { ctl.reverse = !ctl.reverse })),
		core.Go(c, ctl.pressLoop(ButtonZero, ctl.zero)),
	)

	if ctl.panel != nil && ctl.cfg.SplashSeconds > 0 {
		ctl.splashing = true
		ctl.tasks = append(ctl.tasks, core.Go(c, func(t *core.Task) {
			ctl.Splash(t, ctl.cfg.SplashSeconds)
		}))
	} else {
		ctl.render.MarkPending()
	}
}

// Stop halts the output and the periodic workers. Input tasks stay parked.
func (ctl *Controller) Stop() {
	if ctl.heartbeat != nil {
		ctl.heartbeat.Close()
	}
	if ctl.telemetry != nil {
		ctl.telemetry.Close()
	}
	if ctl.render != nil {
		ctl.render.Close()
	}
	ctl.running = false
	if err := ctl.speed.Set(0); err != nil {
		core.DebugPrintln("[CTL] stop: " + err.Error())
	}
}

func (ctl *Controller) pressLoop(idx int, onPress func()) func(*core.Task) {
	btn := ctl.buttons[idx]
	return func(t *core.Task) {
		for {
			if !btn.Await(t) {
				continue
			}
			onPress()
			ctl.applyFeed()
			ctl.render.MarkPending()
		}
	}
}

// zero resets the coarse and fine encoders, and with them the feed
func (ctl *Controller) zero() {
	for i := 0; i < 2; i++ {
		ctl.encoders[i].Set(0)
		ctl.values[i] = 0
	}
}

// Feed returns the signed feed rate the encoders currently select
func (ctl *Controller) Feed() float64 {
	hz := float64(ctl.values[0])*ctl.cfg.CoarseHzPerDetent +
		float64(ctl.values[1])*ctl.cfg.FineHzPerDetent
	hz = math.Max(-ctl.cfg.MaxFeedHz, math.Min(ctl.cfg.MaxFeedHz, hz))
	if ctl.reverse {
		hz = -hz
	}
	return hz
}

func (ctl *Controller) applyFeed() {
	hz := 0.0
	if ctl.running {
		hz = ctl.Feed()
	}
	if hz == ctl.feedHz {
		return
	}
	ctl.feedHz = hz
	if err := ctl.speed.Set(hz); err != nil {
		core.DebugPrintln("[CTL] speed: " + err.Error())
	}
}

// Splash counts down from n on the display, one second per step, then
// hands the display to the render worker
func (ctl *Controller) Splash(t *core.Task, n int) {
	for i := n; i > 0; i-- {
		ctl.panel.Clear()
		ctl.panel.DrawCentered(core.FormatInt(int64(i)))
		if err := ctl.panel.Flush(); err != nil {
			core.DebugPrintln("[CTL] display: " + err.Error())
		}
		t.SleepFor(time.Second)
	}
	ctl.splashing = false
	ctl.render.MarkPending()
}

func (ctl *Controller) draw() {
	if ctl.panel == nil || ctl.splashing {
		return
	}
	ctl.panel.Clear()
	ctl.panel.DrawValues(ctl.values)
	ctl.panel.DrawStatus(ctl.running, ctl.reverse, ctl.feedHz)
	if err := ctl.panel.Flush(); err != nil {
		core.DebugPrintln("[CTL] display: " + err.Error())
	}
}

func (ctl *Controller) beat(now core.Time) core.Time {
	line := "[HEARTBEAT] uptime=" + core.FormatMillis(now)
	core.DebugAsync(line)
	ctl.send(&protocol.Log{Text: line})
	return now.Add(ctl.cfg.HeartbeatPeriod)
}

func (ctl *Controller) report(now core.Time) core.Time {
	st := ctl.Status()
	ctl.send(&st)
	return now.Add(ctl.cfg.TelemetryPeriod)
}

type message interface {
	Encode(output protocol.OutputBuffer)
}

func (ctl *Controller) send(m message) {
	if ctl.sink == nil {
		return
	}
	if err := ctl.frames.EncodeFrame(m.Encode); err != nil {
		core.DebugPrintln("[CTL] telemetry: " + err.Error())
		return
	}
	if _, err := ctl.out.WriteTo(ctl.sink); err != nil {
		core.DebugPrintln("[CTL] telemetry: " + err.Error())
	}
}

// Status snapshots the controller for telemetry
func (ctl *Controller) Status() protocol.Status {
	st := protocol.Status{
		UptimeMillis: int64(ctl.ctx.Now().Millis()),
		Running:      ctl.running,
		Reverse:      ctl.reverse,
		FeedMilliHz:  int64(ctl.feedHz * 1000),
	}
	for i, enc := range ctl.encoders {
		st.Encoders[i] = ctl.values[i]
		st.InvalidTransitions += enc.InvalidTransitions()
	}
	for i, btn := range ctl.buttons {
		if btn.Value() {
			st.Buttons |= 1 << i
		}
	}
	return st
}

// Values returns the last encoder counts seen by the input tasks
func (ctl *Controller) Values() [config.NumEncoders]int64 {
	return ctl.values
}

// Running reports whether the pulse output is enabled
func (ctl *Controller) Running() bool {
	return ctl.running
}

// Reverse reports whether the direction is flipped
func (ctl *Controller) Reverse() bool {
	return ctl.reverse
}

// Speed exposes the pulse output
func (ctl *Controller) Speed() *core.SpeedControl {
	return ctl.speed
}
