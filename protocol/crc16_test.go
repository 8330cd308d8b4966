package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC16(t *testing.T) {
	assert.Equal(t, uint16(0x6F91), CRC16([]byte("123456789")), "MCRF4XX check value")
	assert.Equal(t, uint16(0xFFFF), CRC16(nil))
	assert.NotEqual(t, CRC16([]byte{0x01, 0x02, 0x03}), CRC16([]byte{0x01, 0x02, 0x04}))
}
