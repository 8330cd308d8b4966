package protocol

import (
	"errors"
	"sync/atomic"
)

var (
	ErrFrameTooLarge = errors.New("protocol: payload exceeds frame size")
	ErrBadFrame      = errors.New("protocol: malformed frame")
	ErrBadCRC        = errors.New("protocol: bad frame CRC")
)

// Frame is one decoded frame. Payload aliases the receive buffer and is only
// valid until the handler returns.
type Frame struct {
	Sequence uint8
	Payload  []byte
}

// Encoder writes frames to an output buffer with a rolling sequence number
type Encoder struct {
	output  OutputBuffer
	nextSeq uint32 // atomic uint8 stored as uint32
	scratch ScratchOutput
}

// NewEncoder creates an encoder writing to output
func NewEncoder(output OutputBuffer) *Encoder {
	return &Encoder{
		output:  output,
		nextSeq: MessageDest,
	}
}

// EncodeFrame builds the payload with frameData and appends a complete
// frame to the output. Nothing is written if the payload does not fit.
func (e *Encoder) EncodeFrame(frameData func(output OutputBuffer)) error {
	e.scratch.Reset()
	frameData(&e.scratch)
	payload := e.scratch.Result()
	if len(payload) > MessagePayloadMax {
		return ErrFrameTooLarge
	}

	seq := uint8(atomic.LoadUint32(&e.nextSeq))
	atomic.StoreUint32(&e.nextSeq, uint32(((seq+1)&MessageSeqMask)|MessageDest))

	cursor := e.output.CurPosition()

	// Write header (length placeholder and sequence)
	e.output.Output([]byte{0, seq})
	e.output.Output(payload)

	// Update length field
	changed := len(e.output.DataSince(cursor))
	e.output.Update(cursor, uint8(changed+MessageTrailerSize))

	// Calculate and write CRC
	crc := CRC16(e.output.DataSince(cursor))
	e.output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
	return nil
}

// Reset restarts the sequence
func (e *Encoder) Reset() {
	atomic.StoreUint32(&e.nextSeq, MessageDest)
}

// DecoderStats counts what the decoder saw
type DecoderStats struct {
	Frames  uint32 // Valid frames delivered
	Resyncs uint32 // Times the stream lost framing
	BadCRC  uint32 // Frames dropped for a checksum mismatch
	Lost    uint32 // Frames missing according to the sequence numbers
}

// Decoder splits a byte stream into frames, resynchronizing on the sync
// byte after garbage or corruption
type Decoder struct {
	synchronized bool
	started      bool
	nextSeq      uint8
	stats        DecoderStats
}

// NewDecoder creates a decoder. It starts synchronized; joining a stream
// mid-frame costs one resync.
func NewDecoder() *Decoder {
	return &Decoder{synchronized: true, nextSeq: MessageDest}
}

// Stats returns the decoder counters
func (d *Decoder) Stats() DecoderStats {
	return d.stats
}

// Receive processes the input buffer, calling handle for each valid frame,
// and pops everything it consumed. An incomplete trailing frame is left in
// the buffer for the next call.
func (d *Decoder) Receive(input InputBuffer, handle func(Frame)) {
	data := input.Data()

	for len(data) > 0 {
		if !d.synchronized {
			// Look for sync byte to resynchronize
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}

			if syncPos < 0 {
				// No sync byte found - discard all data
				data = data[len(data):]
				break
			}
			data = data[syncPos+1:]
			d.synchronized = true
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		seq := data[MessagePositionSeq]
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax || seq&^MessageSeqMask != MessageDest {
			d.lose()
			continue
		}

		// Wait for full message
		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.lose()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			d.stats.BadCRC++
			d.lose()
			continue
		}

		payload := data[MessageHeaderSize : msgLen-MessageTrailerSize]
		data = data[msgLen:]

		if d.started && seq != d.nextSeq {
			d.stats.Lost += uint32((seq - d.nextSeq) & MessageSeqMask)
		}
		d.started = true
		d.nextSeq = ((seq + 1) & MessageSeqMask) | MessageDest
		d.stats.Frames++

		if handle != nil {
			handle(Frame{Sequence: seq, Payload: payload})
		}
	}

	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

func (d *Decoder) lose() {
	d.synchronized = false
	d.stats.Resyncs++
}

// DecodeFrames is a convenience for complete buffers: it returns copies of
// every valid frame payload in data
func DecodeFrames(data []byte) [][]byte {
	var out [][]byte
	d := NewDecoder()
	d.Receive(NewSliceInputBuffer(data), func(f Frame) {
		out = append(out, append([]byte(nil), f.Payload...))
	})
	return out
}
