package irq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCop0 struct {
	requested int
	cleared   int
}

func (f *fakeCop0) RequestInterrupt() { f.requested++ }
func (f *fakeCop0) ClearInterrupt()   { f.cleared++ }

// TestAcknowledgeCanOnlyClearBits covers spec.md §8 invariant 7: writes to
// I_STAT can never set bits, only clear them.
func TestAcknowledgeCanOnlyClearBits(t *testing.T) {
	cop0 := &fakeCop0{}
	c := New(cop0)

	c.Request(VBlank)
	c.Request(CDROM)
	assert.Equal(t, uint32(VBlank|CDROM), c.Status())

	// Acknowledging with every bit set keeps every pending bit and adds none.
	c.Acknowledge(0xFFFFFFFF)
	assert.Equal(t, uint32(VBlank|CDROM), c.Status())

	c.Request(DMA)
	c.Acknowledge(uint32(DMA)) // 0 bits clear: only DMA is kept
	assert.Equal(t, uint32(DMA), c.Status())

	c.Request(Timer0)
	c.Acknowledge(^uint32(Timer0)) // clears Timer0 only
	assert.Equal(t, uint32(DMA), c.Status(), "acknowledge must clear only the zeroed bit and never re-set one")
}

func TestMaskGatesCop0Signal(t *testing.T) {
	cop0 := &fakeCop0{}
	c := New(cop0)

	c.SetMask(0)
	c.Request(VBlank)
	assert.Equal(t, 0, cop0.requested, "masked-off pending bits must not reach cop0")

	c.SetMask(uint32(VBlank)) // unmasks the already-pending VBlank
	c.Request(GPU)            // still masked out
	assert.Equal(t, 1, cop0.requested, "unmasking a pending bit asserts cop0 once; a masked request adds nothing")

	c.Request(VBlank) // already pending and unmasked
	assert.GreaterOrEqual(t, cop0.requested, 1)
}

func TestSignalDeassertsWhenMaskedPendingReachesZero(t *testing.T) {
	cop0 := &fakeCop0{}
	c := New(cop0)
	c.SetMask(uint32(VBlank))
	c.Request(VBlank)
	assert.Equal(t, 1, cop0.requested)

	c.Acknowledge(^uint32(VBlank))
	assert.Equal(t, 1, cop0.cleared)
}

func TestStatusAndMaskAreElevenBits(t *testing.T) {
	cop0 := &fakeCop0{}
	c := New(cop0)
	c.Request(Source(0xFFFFFFFF))
	assert.Equal(t, uint32(0x7FF), c.Status())

	c.SetMask(0xFFFFFFFF)
	assert.Equal(t, uint32(0x7FF), c.Mask())
}
