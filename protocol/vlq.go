package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("protocol: invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("protocol: buffer too small for VLQ")
)

// MaxVLQ64Len is the longest encoding of a 64-bit value
const MaxVLQ64Len = 10

// Integers are sent most significant group first, seven bits per byte, high
// bit set on every byte but the last. The first byte's bits 5-6 both set
// mark a negative value, so one byte covers [-32, 96) and each extra byte
// widens the range to [-(1<<(7n-2)), 3<<(7n-2)).

// EncodeVLQInt64 encodes a signed 64-bit integer
func EncodeVLQInt64(output OutputBuffer, v int64) {
	n := 1
	for n < MaxVLQ64Len {
		shift := uint(7*n - 2)
		if -(int64(1)<<shift) <= v && v < int64(3)<<shift {
			break
		}
		n++
	}
	var buf [MaxVLQ64Len]byte
	for i := 0; i < n-1; i++ {
		buf[i] = byte((v>>(7*uint(n-1-i)))&0x7F) | 0x80
	}
	buf[n-1] = byte(v & 0x7F)
	output.Output(buf[:n])
}

// DecodeVLQInt64 decodes a signed 64-bit integer and advances data past it
func DecodeVLQInt64(data *[]byte) (int64, error) {
	if len(*data) == 0 {
		return 0, ErrBufferTooSmall
	}

	c := uint64((*data)[0])
	*data = (*data)[1:]

	v := c & 0x7F
	if (c & 0x60) == 0x60 {
		v |= ^uint64(0x1F)
	}

	for n := 1; c&0x80 != 0; n++ {
		if n >= MaxVLQ64Len {
			return 0, ErrInvalidVLQ
		}
		if len(*data) == 0 {
			return 0, ErrBufferTooSmall
		}
		c = uint64((*data)[0])
		*data = (*data)[1:]
		v = (v << 7) | (c & 0x7F)
	}

	return int64(v), nil
}

// EncodeVLQInt encodes a signed 32-bit integer, at most five bytes
func EncodeVLQInt(output OutputBuffer, v int32) {
	EncodeVLQInt64(output, int64(v))
}

// EncodeVLQUint encodes an unsigned 32-bit integer. Values from 1<<31 go out
// as their two's complement, as on the wire they are the same bits.
func EncodeVLQUint(output OutputBuffer, v uint32) {
	EncodeVLQInt64(output, int64(int32(v)))
}

// DecodeVLQInt decodes a 32-bit value, keeping the low 32 bits
func DecodeVLQInt(data *[]byte) (int32, error) {
	v, err := DecodeVLQInt64(data)
	return int32(v), err
}

// DecodeVLQUint decodes an unsigned 32-bit value
func DecodeVLQUint(data *[]byte) (uint32, error) {
	v, err := DecodeVLQInt64(data)
	return uint32(v), err
}

// EncodeVLQBytes writes data with a length prefix
func EncodeVLQBytes(output OutputBuffer, data []byte) {
	EncodeVLQUint(output, uint32(len(data)))
	output.Output(data)
}

// DecodeVLQBytes reads a length-prefixed byte string. The result aliases
// data.
func DecodeVLQBytes(data *[]byte) ([]byte, error) {
	length, err := DecodeVLQUint(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(*data)) < length {
		return nil, ErrBufferTooSmall
	}
	result := (*data)[:length]
	*data = (*data)[length:]
	return result, nil
}

// EncodeVLQString writes s with a length prefix
func EncodeVLQString(output OutputBuffer, s string) {
	EncodeVLQUint(output, uint32(len(s)))
	output.Output([]byte(s))
}

// DecodeVLQString reads a length-prefixed string
func DecodeVLQString(data *[]byte) (string, error) {
	b, err := DecodeVLQBytes(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
