package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferLittleEndianRoundTrip(t *testing.T) {
	b := NewBuffer("RAM", 16)
	b.Write32(0, 0x11223344)
	assert.Equal(t, uint8(0x44), b.Read8(0))
	assert.Equal(t, uint8(0x33), b.Read8(1))
	assert.Equal(t, uint16(0x3344), b.Read16(0))
	assert.Equal(t, uint32(0x11223344), b.Read32(0))
}

func TestBufferWrapsOffsetsIntoItsSize(t *testing.T) {
	b := NewBuffer("scratch", 8)
	b.Write8(0, 0xAB)
	assert.Equal(t, uint8(0xAB), b.Read8(8), "an offset one size past the start must wrap to 0")
}

func TestNewBufferFromBytesWrapsExistingSlice(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	b := NewBufferFromBytes("BIOS", data)
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, uint32(0x04030201), b.Read32(0))
}
