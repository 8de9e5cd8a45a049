package sideload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRAM struct {
	data map[uint32]uint8
}

func (r *fakeRAM) Write8(offset uint32, value uint8) {
	if r.data == nil {
		r.data = map[uint32]uint8{}
	}
	r.data[offset] = value
}

func buildImage(pc, gp, loadAddr, sp uint32, payload []byte) []byte {
	img := make([]byte, headerSize+len(payload))
	copy(img, magic[:])
	put := func(off int, v uint32) {
		img[off] = byte(v)
		img[off+1] = byte(v >> 8)
		img[off+2] = byte(v >> 16)
		img[off+3] = byte(v >> 24)
	}
	put(initialPCOffset, pc)
	put(initialGPOffset, gp)
	put(loadAddrOffset, loadAddr)
	put(sizeOffset, uint32(len(payload)))
	put(initialSPOffset, sp)
	copy(img[headerSize:], payload)
	return img
}

func TestParseExtractsHeaderFields(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	img := buildImage(0x80010000, 0x80020000, 0x80010000, 0x801FFF00, payload)

	exe, err := Parse(img)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x80010000), exe.InitialPC)
	assert.Equal(t, uint32(0x80020000), exe.InitialGP)
	assert.Equal(t, uint32(0x00010000), exe.LoadAddress, "load address is masked into the RAM window")
	assert.Equal(t, uint32(0x801FFF00), exe.InitialSP)
	assert.Equal(t, payload, exe.Payload)
}

func TestParseMasksLoadAddressIntoRAMWindow(t *testing.T) {
	img := buildImage(0, 0, 0x80110000, 0, nil)
	exe, err := Parse(img)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x110000), exe.LoadAddress)
}

func TestParseRejectsBadMagic(t *testing.T) {
	img := buildImage(0, 0, 0, 0, nil)
	img[0] = 'X'
	_, err := Parse(img)
	assert.Error(t, err)
}

func TestApplyToCopiesPayload(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	exe := &Exe{LoadAddress: 0x1000, Payload: payload}
	ram := &fakeRAM{}
	exe.ApplyTo(ram)
	for i, b := range payload {
		assert.Equal(t, b, ram.data[0x1000+uint32(i)])
	}
}
