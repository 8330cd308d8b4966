package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadscrew/core"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, EncoderPins{A: 22, B: 26}, cfg.Encoders[0])
	assert.Equal(t, [NumButtons]core.GPIOPin{27, 21, 18}, cfg.Buttons)
	assert.Equal(t, 100*time.Millisecond, cfg.Debounce)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{MaxFeedHz: 1000}
	cfg.ApplyDefaults()

	assert.Equal(t, core.DefaultDebounce, cfg.Debounce)
	assert.Equal(t, core.EdgeBoth, cfg.DebounceEdges)
	assert.Equal(t, 1000.0, cfg.MaxFeedHz, "explicit values are kept")
	assert.Equal(t, int16(128), cfg.DisplayWidth)
}

func TestValidateRejectsPinConflicts(t *testing.T) {
	cfg := Default()
	cfg.Buttons[1] = 22
	cfg.PulsePin = 40

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrPinInUse)
	assert.ErrorIs(t, err, core.ErrInvalidPin)
	assert.Contains(t, err.Error(), "button 1: pin 22 already used by encoder 0 A")
}

func TestValidateRejectsBadTuning(t *testing.T) {
	cfg := Default()
	cfg.MaxFeedHz = 0
	cfg.TelemetryPeriod = 0
	cfg.DebounceEdges = 0x10

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max feed")
	assert.Contains(t, err.Error(), "telemetry")
	assert.Contains(t, err.Error(), "unknown bits")
}

func TestValidateClaimsDisplayPins(t *testing.T) {
	cfg := Default()
	cfg.DirectionPin = cfg.Display.DC

	err := cfg.Validate()
	assert.ErrorIs(t, err, core.ErrPinInUse)
	assert.Contains(t, err.Error(), "display dc: pin 5 already used by direction")
}
