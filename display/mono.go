package display

import (
	"image/color"
)

// Mono is a packed 1-bpp framebuffer implementing drivers.Displayer.
// Any non-black color sets a pixel.
type Mono struct {
	width   int16
	height  int16
	buf     []byte
	flushes int

	// OnDisplay, if set, is called by Display with the finished frame
	OnDisplay func(m *Mono) error
}

// NewMono allocates a cleared framebuffer
func NewMono(width, height int16) *Mono {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mono{
		width:  width,
		height: height,
		buf:    make([]byte, (int(width)*int(height)+7)/8),
	}
}

// Size returns the framebuffer dimensions
func (m *Mono) Size() (x, y int16) {
	return m.width, m.height
}

// SetPixel sets or clears one pixel. Out-of-range coordinates are ignored.
func (m *Mono) SetPixel(x, y int16, c color.RGBA) {
	idx, ok := m.index(x, y)
	if !ok {
		return
	}
	if c.R|c.G|c.B != 0 {
		m.buf[idx/8] |= 1 << (idx % 8)
	} else {
		m.buf[idx/8] &^= 1 << (idx % 8)
	}
}

// Display hands the frame to OnDisplay
func (m *Mono) Display() error {
	m.flushes++
	if m.OnDisplay != nil {
		return m.OnDisplay(m)
	}
	return nil
}

// Pixel reports whether a pixel is lit
func (m *Mono) Pixel(x, y int16) bool {
	idx, ok := m.index(x, y)
	if !ok {
		return false
	}
	return m.buf[idx/8]&(1<<(idx%8)) != 0
}

// Lit counts the lit pixels in the rows [y0, y1)
func (m *Mono) Lit(y0, y1 int16) int {
	n := 0
	for y := y0; y < y1; y++ {
		for x := int16(0); x < m.width; x++ {
			if m.Pixel(x, y) {
				n++
			}
		}
	}
	return n
}

// Flushes returns how many times Display was called
func (m *Mono) Flushes() int {
	return m.flushes
}

// ClearBuffer turns every pixel off
func (m *Mono) ClearBuffer() {
	for i := range m.buf {
		m.buf[i] = 0
	}
}

// String renders the frame as rows of '#' and '.', for logs and test output
func (m *Mono) String() string {
	out := make([]byte, 0, (int(m.width)+1)*int(m.height))
	for y := int16(0); y < m.height; y++ {
		for x := int16(0); x < m.width; x++ {
			if m.Pixel(x, y) {
				out = append(out, '#')
			} else {
				out = append(out, '.')
			}
		}
		out = append(out, '\n')
	}
	return string(out)
}

func (m *Mono) index(x, y int16) (int, bool) {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return 0, false
	}
	return int(y)*int(m.width) + int(x), true
}
