package peripheral

import (
	"testing"

	"github.com/rook-emu/psxcore/internal/pad"
	"github.com/stretchr/testify/assert"
)

func transferByte(s *SIO0, tx uint8) uint8 {
	s.Write8(regData, tx)
	for s.shiftTimer > 0 {
		s.Tick()
	}
	return s.Read8(regData)
}

func TestDigitalPadRespondsWithIDAndSwitches(t *testing.T) {
	p := pad.New()
	p.SetButton(pad.Cross, true)
	s := New(p)
	s.baud = 1 // keep the test fast; cyclesPerByte floors at 1*8

	assert.Equal(t, uint8(0xFF), transferByte(s, 0x01))
	assert.Equal(t, uint8(0x41), transferByte(s, 0x00))
	assert.Equal(t, uint8(0x5A), transferByte(s, 0x00))

	sw := p.Switches()
	assert.Equal(t, uint8(sw), transferByte(s, 0x00))
	assert.Equal(t, uint8(sw>>8), transferByte(s, 0x00))
}

func TestByteReceivedIRQFiresAfterAckDelay(t *testing.T) {
	s := New(pad.New())
	s.baud = 1
	irqs := 0
	s.IRQHandler = func() { irqs++ }

	s.Write8(regData, 0x01)
	for s.shiftTimer > 0 {
		s.Tick()
	}
	assert.Equal(t, 0, irqs)

	for i := 0; i < ackIRQDelay; i++ {
		s.Tick()
	}
	assert.Equal(t, 1, irqs)
	assert.NotEqual(t, 0, s.stat&statIRQ)
}

func TestAckBitClearsIRQAndAck(t *testing.T) {
	s := New(pad.New())
	s.baud = 1
	s.Write8(regData, 0x01)
	for s.shiftTimer > 0 {
		s.Tick()
	}
	for i := 0; i < ackIRQDelay; i++ {
		s.Tick()
	}
	require := s.stat&statIRQ != 0
	assert.True(t, require)

	s.Write8(regCtrl, ctrlAck)
	assert.Equal(t, uint16(0), s.stat&(statIRQ|statACK))
}
