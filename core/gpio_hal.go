package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// EdgeMask selects edge events. The values match the RP2040 per-pin
// interrupt status bits.
type EdgeMask uint8

const (
	EdgeFall EdgeMask = 0x4
	EdgeRise EdgeMask = 0x8
	EdgeBoth          = EdgeFall | EdgeRise
)

// Direction of a configured line
type Direction uint8

const (
	Input Direction = iota
	Output
)

// Polarity maps electrical level to logical value
type Polarity uint8

const (
	ActiveHigh Polarity = iota
	ActiveLow
)

// Line is a configured pin: identity, direction and polarity. It does not
// change after configuration.
type Line struct {
	Pin      GPIOPin
	Dir      Direction
	Polarity Polarity
}

// Logical converts an electrical level into the line's logical value
func (l Line) Logical(level bool) bool {
	if l.Polarity == ActiveLow {
		return !level
	}
	return level
}

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	// Returns error if pin is invalid or already in use
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as a digital input with pull-up resistor
	ConfigureInputPullUp(pin GPIOPin) error

	// ConfigureInputPullDown configures a pin as a digital input with pull-down resistor
	ConfigureInputPullDown(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// ReadPin reads the instantaneous pin level
	ReadPin(pin GPIOPin) bool

	// ReadAllLines samples every input at once, bit n = level of pin n
	ReadAllLines() uint32

	// EdgeEvents returns the latched edge events for a pin
	EdgeEvents(pin GPIOPin) EdgeMask

	// AcknowledgeEdge clears latched events in mask
	AcknowledgeEdge(pin GPIOPin, mask EdgeMask)

	// EnableEdgeInterrupt routes edges in mask on pin to the IRQ table
	EnableEdgeInterrupt(pin GPIOPin, mask EdgeMask) error
}

// configureLine applies pull and direction for l. Active-low inputs idle
// high through the pull-up, active-high inputs idle low.
func configureLine(gpio GPIODriver, l Line) error {
	switch {
	case l.Dir == Output:
		return gpio.ConfigureOutput(l.Pin)
	case l.Polarity == ActiveLow:
		return gpio.ConfigureInputPullUp(l.Pin)
	default:
		return gpio.ConfigureInputPullDown(l.Pin)
	}
}
