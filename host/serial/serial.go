// Package serial opens the controller's USB CDC port on the host
package serial

import (
	"io"
	"time"
)

// Port is the byte stream to and from the controller
type Port interface {
	io.ReadWriteCloser

	// Flush discards unread input and unsent output
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate. USB CDC ignores it.
	Baud int

	// Read timeout, 0 blocks
	ReadTimeout time.Duration
}

// DefaultConfig returns the settings the firmware's USB port expects
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100 * time.Millisecond,
	}
}
