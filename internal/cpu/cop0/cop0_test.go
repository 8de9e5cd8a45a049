package cop0

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSRModeStackIsThreeStageLIFO covers spec.md §8 invariant 5: SR's
// bottom six bits behave as a 3-stage LIFO across any sequence of
// raise/RFE pairs.
func TestSRModeStackIsThreeStageLIFO(t *testing.T) {
	s := New()
	s.WriteRegister(12, srIEc|srKUc) // current = {IEc=1, KUc=1}, older stages 0

	s.RaiseException(CauseSys, 0x1000, false)
	// current pushed to previous; current itself cleared (shift-left).
	assert.Equal(t, uint32(0), s.SR()&0x3, "current mode bits clear on exception entry")
	assert.Equal(t, uint32(0x3), (s.SR()>>2)&0x3, "previous mode bits now hold the pre-exception current")

	s.RFE()
	assert.Equal(t, uint32(0x3), s.SR()&0x3, "RFE restores current from previous")
}

// TestRFEUndoesMostRecentRaiseExceptionOnSRBottomSix matches spec.md §8's
// round-trip property: rfe undoes raise_exception's effect on SR[5:0] only.
func TestRFEUndoesMostRecentRaiseExceptionOnSRBottomSix(t *testing.T) {
	s := New()
	s.WriteRegister(12, 0x3F) // all three stages enabled/kernel
	before := s.SR() & 0x3F

	s.RaiseException(CauseBp, 0x2000, false)
	s.RFE()

	assert.Equal(t, before, s.SR()&0x3F)
}

func TestRaiseExceptionSetsCauseAndEPCInDelaySlot(t *testing.T) {
	s := New()
	bev := s.RaiseException(CauseAdEL, 0x80001004, true)
	assert.True(t, bev, "fresh SystemControl boots with SR.BEV set")
	assert.Equal(t, uint32(0x80001000), s.EPC(), "EPC backs up to the branch when faulting in a delay slot")

	cause := s.ReadRegister(regCAUSE)
	assert.NotEqual(t, uint32(0), cause&(1<<31), "CAUSE.BD must be set")
	assert.Equal(t, uint32(CauseAdEL)<<2, cause&(0x1F<<2))
}

func TestRaiseExceptionNotInDelaySlot(t *testing.T) {
	s := New()
	s.RaiseException(CauseOvf, 0x80001000, false)
	assert.Equal(t, uint32(0x80001000), s.EPC())
	cause := s.ReadRegister(regCAUSE)
	assert.Equal(t, uint32(0), cause&(1<<31))
}

func TestIsolateCacheBit(t *testing.T) {
	s := New()
	assert.False(t, s.IsolateCache())
	s.WriteRegister(12, srIsolateCache)
	assert.True(t, s.IsolateCache())
}

func TestPendingExternalInterruptRequiresIEcAndMaskedIP(t *testing.T) {
	s := New()
	s.WriteRegister(12, srIEc|(1<<10)) // IEc=1, SR.IM bit 10 enables CAUSE.IP10
	assert.False(t, s.PendingExternalInterrupt(), "no IRQ pin asserted yet")

	s.RequestInterrupt()
	assert.True(t, s.PendingExternalInterrupt())

	s.ClearInterrupt()
	assert.False(t, s.PendingExternalInterrupt())
}

func TestWritableMaskRestrictsCause(t *testing.T) {
	s := New()
	s.WriteRegister(regCAUSE, 0xFFFFFFFF)
	assert.Equal(t, uint32(0x300), s.ReadRegister(regCAUSE)&0x300)
	// Bits outside the 0x300 mask must not have taken the write.
	assert.Equal(t, uint32(0), s.ReadRegister(regCAUSE)&^uint32(0x300)&^uint32(1<<10))
}

func TestBEVVectorSelection(t *testing.T) {
	assert.Equal(t, uint32(0xBFC00180), BEVVector(true))
	assert.Equal(t, uint32(0x80000080), BEVVector(false))
}
