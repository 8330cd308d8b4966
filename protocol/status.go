package protocol

import "errors"

// Message IDs, the first VLQ of every payload
const (
	MsgStatus = 1
	MsgLog    = 2
)

// NumEncoders is the number of encoders reported in a status message
const NumEncoders = 3

var ErrUnknownMessage = errors.New("protocol: unknown message id")

// Status flag bits
const (
	StatusRunning = 1 << 0
	StatusReverse = 1 << 1
)

// Status is the periodic controller snapshot
type Status struct {
	UptimeMillis       int64
	Encoders           [NumEncoders]int64
	Buttons            uint8 // bit n set while button n is pressed
	Running            bool
	Reverse            bool
	FeedMilliHz        int64
	InvalidTransitions uint32
}

// Encode writes the message ID and fields
func (s *Status) Encode(output OutputBuffer) {
	EncodeVLQUint(output, MsgStatus)
	EncodeVLQInt64(output, s.UptimeMillis)
	for _, v := range s.Encoders {
		EncodeVLQInt64(output, v)
	}
	EncodeVLQUint(output, uint32(s.Buttons))
	var flags uint32
	if s.Running {
		flags |= StatusRunning
	}
	if s.Reverse {
		flags |= StatusReverse
	}
	EncodeVLQUint(output, flags)
	EncodeVLQInt64(output, s.FeedMilliHz)
	EncodeVLQUint(output, s.InvalidTransitions)
}

// decodeStatus reads the fields after the message ID
func decodeStatus(data *[]byte) (Status, error) {
	var s Status
	var err error
	if s.UptimeMillis, err = DecodeVLQInt64(data); err != nil {
		return s, err
	}
	for i := range s.Encoders {
		if s.Encoders[i], err = DecodeVLQInt64(data); err != nil {
			return s, err
		}
	}
	buttons, err := DecodeVLQUint(data)
	if err != nil {
		return s, err
	}
	s.Buttons = uint8(buttons)
	flags, err := DecodeVLQUint(data)
	if err != nil {
		return s, err
	}
	s.Running = flags&StatusRunning != 0
	s.Reverse = flags&StatusReverse != 0
	if s.FeedMilliHz, err = DecodeVLQInt64(data); err != nil {
		return s, err
	}
	if s.InvalidTransitions, err = DecodeVLQUint(data); err != nil {
		return s, err
	}
	return s, nil
}

// Log is a text line forwarded from the controller's debug output
type Log struct {
	Text string
}

// Encode writes the message ID and text
func (l *Log) Encode(output OutputBuffer) {
	EncodeVLQUint(output, MsgLog)
	text := l.Text
	// Length prefix plus id must fit a frame
	if limit := MessagePayloadMax - 4; len(text) > limit {
		text = text[:limit]
	}
	EncodeVLQString(output, text)
}

// DecodeMessage decodes one payload into a *Status or *Log
func DecodeMessage(payload []byte) (interface{}, error) {
	data := payload
	id, err := DecodeVLQUint(&data)
	if err != nil {
		return nil, err
	}
	switch id {
	case MsgStatus:
		s, err := decodeStatus(&data)
		if err != nil {
			return nil, err
		}
		return &s, nil
	case MsgLog:
		text, err := DecodeVLQString(&data)
		if err != nil {
			return nil, err
		}
		return &Log{Text: text}, nil
	default:
		return nil, ErrUnknownMessage
	}
}
