//go:build rp2040

package main

import (
	"errors"
	"machine"
)

// usbDropAfter is how many consecutive failed writes mark the host as gone.
// While gone, that many frames are dropped between retries.
const usbDropAfter = 10

var errUSBStalled = errors.New("usb: no progress")

// InitUSB configures machine.Serial, which is USB CDC on the RP2040
func InitUSB() {
	machine.Serial.Configure(machine.UARTConfig{})
}

// usbWriter sends telemetry frames over USB CDC without letting an
// unplugged host stall the poll loop
type usbWriter struct {
	failures uint32
	backoff  uint32
	dropped  uint32
}

func (w *usbWriter) Write(p []byte) (int, error) {
	if w.backoff > 0 {
		w.backoff--
		w.dropped++
		return len(p), nil
	}
	written := 0
	for written < len(p) {
		n, err := machine.Serial.Write(p[written:])
		if err == nil && n == 0 {
			err = errUSBStalled
		}
		if err != nil {
			w.failures++
			if w.failures > usbDropAfter {
				w.failures = 0
				w.backoff = usbDropAfter
			}
			return written, err
		}
		written += n
	}
	w.failures = 0
	return written, nil
}
