// Package protocol implements the telemetry link between the controller and
// a host monitor: VLQ integers packed into CRC-protected frames.
package protocol

// Version of the telemetry protocol
const Version = "1"

// Frame layout: len, seq, payload..., crc hi, crc lo, sync
const (
	MessageMax = 512 // Scratch buffer size, room for several frames

	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 128
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E

	// Sequence byte: high nibble fixed, low nibble counts frames
	MessageDest    = 0x10
	MessageSeqMask = 0x0F
)
