package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPWMWrap(t *testing.T) {
	tests := []struct {
		hz   float64
		wrap uint16
	}{
		{1, MaxPWMWrap},
		{7.62, MaxPWMWrap},
		{8, 62500},
		{1000, 500},
		{-1000, 500},
		{500000, 1},
		{2000000, 1},
		{0, MaxPWMWrap},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.wrap, PWMWrap(tt.hz), "hz=%v", tt.hz)
	}
	assert.InDelta(t, 1000.0, PWMActualFrequency(500), 1e-9)
	assert.InDelta(t, 7.629510948348211, PWMActualFrequency(MaxPWMWrap), 1e-9)
}

func TestSpeedControlSet(t *testing.T) {
	c, _ := newManualContext()
	gpio := NewSimGPIO(NewIRQTable())
	drv := NewSimFrequencyDriver()

	sc, err := NewSpeedControl(c, gpio, drv, 0, 1)
	require.NoError(t, err)

	require.NoError(t, sc.Set(1000))
	assert.True(t, gpio.ReadPin(1))
	assert.InDelta(t, 1000.0, drv.Frequency(0), 1e-9)
	assert.InDelta(t, 1000.0, sc.Actual(), 1e-9)

	require.NoError(t, sc.Set(-300))
	assert.False(t, gpio.ReadPin(1))
	assert.InDelta(t, PWMActualFrequency(PWMWrap(300)), drv.Frequency(0), 1e-9)
	assert.Equal(t, -300.0, sc.Requested())

	writes := gpio.Writes(1)
	require.NoError(t, sc.Set(0))
	assert.Equal(t, 0.0, drv.Frequency(0))
	assert.Equal(t, writes, gpio.Writes(1), "stopping leaves the direction line alone")
}

func TestSpeedControlNeedsDriver(t *testing.T) {
	c, _ := newManualContext()
	_, err := NewSpeedControl(c, NewSimGPIO(NewIRQTable()), nil, 0, 1)
	assert.ErrorIs(t, err, ErrNoDriver)
}
