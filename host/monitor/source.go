package monitor

import (
	"fmt"
	"io"
	"os"

	"leadscrew/host/serial"
)

// Source is an open telemetry stream
type Source struct {
	io.ReadCloser
	Name string
	// Serial reports whether the stream is a tty opened through host/serial
	Serial bool
}

// OpenSource opens path for reading. Character devices are opened as serial
// ports at baud; anything else (a FIFO written by the Linux target, or a
// captured file) is read as a plain file.
func OpenSource(path string, baud int) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if info.Mode()&os.ModeCharDevice != 0 {
		cfg := serial.DefaultConfig(path)
		cfg.Baud = baud
		// A timed-out read reports EOF; block instead and let cancel close
		// the port
		cfg.ReadTimeout = 0
		port, err := serial.Open(cfg)
		if err != nil {
			return nil, err
		}
		if err := port.Flush(); err != nil {
			port.Close()
			return nil, fmt.Errorf("flush %s: %w", path, err)
		}
		return &Source{ReadCloser: port, Name: port.Device(), Serial: true}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Source{ReadCloser: f, Name: path}, nil
}
