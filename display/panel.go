// Package display draws the controller's front panel onto any
// tinygo drivers.Displayer.
package display

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"leadscrew/core"
)

var (
	White = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	Black = color.RGBA{A: 0xFF}
)

// bufferClearer is implemented by framebuffered displays, ssd1306 included
type bufferClearer interface {
	ClearBuffer()
}

// Panel lays out text lines on a display
type Panel struct {
	d          drivers.Displayer
	font       tinyfont.Fonter
	lineHeight int16
	fg         color.RGBA
	bg         color.RGBA
}

// NewPanel wraps d using the proggy 8pt font
func NewPanel(d drivers.Displayer) *Panel {
	return NewPanelWithFont(d, &proggy.TinySZ8pt7b)
}

// NewPanelWithFont wraps d using font
func NewPanelWithFont(d drivers.Displayer, font tinyfont.Fonter) *Panel {
	lh := int16(font.GetYAdvance())
	if lh <= 0 {
		lh = 8
	}
	return &Panel{d: d, font: font, lineHeight: lh, fg: White, bg: Black}
}

// Lines returns how many text lines fit on the display
func (p *Panel) Lines() int {
	_, h := p.d.Size()
	return int(h / p.lineHeight)
}

// Clear blanks the display buffer
func (p *Panel) Clear() {
	if c, ok := p.d.(bufferClearer); ok {
		c.ClearBuffer()
		return
	}
	w, h := p.d.Size()
	for y := int16(0); y < h; y++ {
		for x := int16(0); x < w; x++ {
			p.d.SetPixel(x, y, p.bg)
		}
	}
}

// DrawLine writes text on line n, left aligned. Lines past the bottom are
// dropped.
func (p *Panel) DrawLine(n int, text string) {
	if n < 0 || n >= p.Lines() {
		return
	}
	tinyfont.WriteLine(p.d, p.font, 0, p.baseline(n), text, p.fg)
}

// DrawValues writes one encoder count per line
func (p *Panel) DrawValues(values [3]int64) {
	for i, v := range values {
		p.DrawLine(i, core.FormatInt(int64(i))+": "+core.FormatInt(v))
	}
}

// DrawStatus writes the run state and feed rate on the last line
func (p *Panel) DrawStatus(running, reverse bool, feedHz float64) {
	state := "STOP"
	if running {
		state = "RUN"
	}
	dir := "FWD"
	if reverse {
		dir = "REV"
	}
	p.DrawLine(p.Lines()-1, state+" "+dir+" "+core.FormatInt(int64(feedHz))+"Hz")
}

// DrawCentered writes text in the middle of the display
func (p *Panel) DrawCentered(text string) {
	w, h := p.d.Size()
	_, width := tinyfont.LineWidth(p.font, text)
	x := (w - int16(width)) / 2
	if x < 0 {
		x = 0
	}
	y := (h+p.lineHeight)/2 - 2
	tinyfont.WriteLine(p.d, p.font, x, y, text, p.fg)
}

// Flush pushes the buffer to the panel
func (p *Panel) Flush() error {
	return p.d.Display()
}

func (p *Panel) baseline(n int) int16 {
	return int16(n+1)*p.lineHeight - 2
}
