// Package monitor decodes the controller's telemetry stream on the host
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"leadscrew/protocol"
)

// Handler receives decoded messages. Nil callbacks are skipped.
type Handler struct {
	OnStatus func(st *protocol.Status)
	OnLog    func(l *protocol.Log)
}

// Stats counts stream health on top of the frame decoder's counters
type Stats struct {
	protocol.DecoderStats
	BadMessages uint32
}

// Monitor reads frames from a stream and dispatches them
type Monitor struct {
	r       io.Reader
	handler Handler
	buf     *protocol.ReceiveBuffer
	decoder *protocol.Decoder
	bad     uint32
}

// New creates a monitor reading from r
func New(r io.Reader, h Handler) *Monitor {
	return &Monitor{
		r:       r,
		handler: h,
		buf:     protocol.NewReceiveBuffer(protocol.MessageMax),
		decoder: protocol.NewDecoder(),
	}
}

// Run reads until the stream ends or ctx is cancelled. End of stream is not
// an error. If the reader is an io.Closer it is closed on cancellation to
// unblock a pending read.
func (m *Monitor) Run(ctx context.Context) error {
	if c, ok := m.r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { c.Close() })
		defer stop()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := m.buf.Fill(m.r)
		if n > 0 {
			m.decoder.Receive(m.buf, m.dispatch)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("monitor: read: %w", err)
		}
	}
}

func (m *Monitor) dispatch(f protocol.Frame) {
	msg, err := protocol.DecodeMessage(f.Payload)
	if err != nil {
		m.bad++
		return
	}
	switch v := msg.(type) {
	case *protocol.Status:
		if m.handler.OnStatus != nil {
			m.handler.OnStatus(v)
		}
	case *protocol.Log:
		if m.handler.OnLog != nil {
			m.handler.OnLog(v)
		}
	}
}

// Stats returns the decoder and message counters
func (m *Monitor) Stats() Stats {
	return Stats{DecoderStats: m.decoder.Stats(), BadMessages: m.bad}
}
