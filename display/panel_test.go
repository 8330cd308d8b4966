package display

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonoPixels(t *testing.T) {
	m := NewMono(10, 4)
	w, h := m.Size()
	assert.Equal(t, int16(10), w)
	assert.Equal(t, int16(4), h)

	m.SetPixel(3, 2, White)
	assert.True(t, m.Pixel(3, 2))
	assert.False(t, m.Pixel(2, 3))

	m.SetPixel(3, 2, Black)
	assert.False(t, m.Pixel(3, 2))

	// Out of range is ignored
	m.SetPixel(-1, 0, White)
	m.SetPixel(10, 0, White)
	assert.Equal(t, 0, m.Lit(0, 4))
}

func TestMonoDisplayHook(t *testing.T) {
	m := NewMono(8, 8)
	var frames int
	m.OnDisplay = func(got *Mono) error {
		frames++
		assert.Same(t, m, got)
		return nil
	}
	require.NoError(t, m.Display())
	assert.Equal(t, 1, frames)
	assert.Equal(t, 1, m.Flushes())

	m.OnDisplay = func(*Mono) error { return errors.New("bus") }
	assert.EqualError(t, m.Display(), "bus")
}

func TestMonoString(t *testing.T) {
	m := NewMono(3, 2)
	m.SetPixel(1, 0, color.RGBA{R: 1})
	assert.Equal(t, ".#.\n...\n", m.String())
}

func TestPanelDrawLines(t *testing.T) {
	m := NewMono(128, 64)
	p := NewPanel(m)
	require.GreaterOrEqual(t, p.Lines(), 4)

	p.DrawValues([3]int64{1, -20, 300})
	lh := p.lineHeight
	for i := 0; i < 3; i++ {
		y0 := int16(i) * lh
		assert.NotZero(t, m.Lit(y0, y0+lh), "line %d empty", i)
	}

	p.Clear()
	assert.Zero(t, m.Lit(0, 64))
}

func TestPanelDrawStatusUsesLastLine(t *testing.T) {
	m := NewMono(128, 64)
	p := NewPanel(m)

	p.DrawStatus(true, false, 1500)
	last := int16(p.Lines()-1) * p.lineHeight
	assert.Zero(t, m.Lit(0, last))
	assert.NotZero(t, m.Lit(last, last+p.lineHeight))
}

func TestPanelDrawCentered(t *testing.T) {
	m := NewMono(128, 64)
	p := NewPanel(m)

	p.DrawCentered("3")
	assert.NotZero(t, m.Lit(16, 48))
	assert.Zero(t, m.Lit(0, 8))
	assert.Zero(t, m.Lit(56, 64))

	// Ink stays near the horizontal middle
	for y := int16(0); y < 64; y++ {
		for x := int16(0); x < 48; x++ {
			assert.False(t, m.Pixel(x, y))
		}
	}
}

func TestPanelClearWithoutFastPath(t *testing.T) {
	m := NewMono(16, 16)
	p := NewPanel(plainDisplay{m})
	m.SetPixel(4, 4, White)
	p.Clear()
	assert.False(t, m.Pixel(4, 4))
	require.NoError(t, p.Flush())
	assert.Equal(t, 1, m.Flushes())
}

// plainDisplay hides Mono's ClearBuffer
type plainDisplay struct{ m *Mono }

func (d plainDisplay) Size() (int16, int16) { return d.m.Size() }
func (d plainDisplay) SetPixel(x, y int16, c color.RGBA) { d.m.SetPixel(x, y, c) }
func (d plainDisplay) Display() error { return d.m.Display() }
