package gte

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pushSXYData(g *GTE, x, y int16) {
	g.WriteData(15, uint32(uint16(x))|uint32(uint16(y))<<16)
}

// TestNCLIPCrossProduct covers spec.md §8's S5 scenario: SXY0=(0,0),
// SXY1=(100,0), SXY2=(0,100) must yield MAC0=10000.
func TestNCLIPCrossProduct(t *testing.T) {
	g := New()
	pushSXYData(g, 0, 0)
	pushSXYData(g, 100, 0)
	pushSXYData(g, 0, 100)

	g.Execute(opNCLIP)

	assert.Equal(t, int32(10000), g.MAC0())
}

// TestIRSaturationSetsItsFlagAndTheTopBit covers spec.md §8 invariant 6: a
// saturated lane sets its own flag bit, and bit 31 is the OR of bits
// 30..23 and 18..13.
func TestIRSaturationSetsItsFlagAndTheTopBit(t *testing.T) {
	g := New()
	out := g.WriteIRVector(Vec32{X: 100000, Y: 0, Z: 0}, false)

	assert.Equal(t, int16(0x7FFF), out.X, "IR1 must clamp to its signed 16-bit ceiling")

	flags := g.ReadControl(63)
	assert.NotEqual(t, uint32(0), flags&flagIR1, "the IR1 saturation flag (bit 24) must be set")
	assert.NotEqual(t, uint32(0), flags&(1<<31), "bit 31 must be set whenever any bit in 30..23 or 18..13 is set")
}

// TestNoSaturationLeavesFlagsClear is the converse of the saturation test:
// in-range lanes never set a flag, so bit 31 stays clear.
func TestNoSaturationLeavesFlagsClear(t *testing.T) {
	g := New()
	g.WriteIRVector(Vec32{X: 100, Y: 200, Z: 300}, false)

	flags := g.ReadControl(63)
	assert.Equal(t, uint32(0), flags, "no saturation must occur for in-range lanes")
}

// TestFlagRegisterResetsEachCommand covers spec.md §4.3's per-command flag
// reset: Execute clears R[63] before evaluating the new command.
func TestFlagRegisterResetsEachCommand(t *testing.T) {
	g := New()
	g.WriteIRVector(Vec32{X: 100000}, false)
	assert.NotEqual(t, uint32(0), g.ReadControl(63))

	pushSXYData(g, 0, 0)
	pushSXYData(g, 1, 0)
	pushSXYData(g, 0, 1)
	g.Execute(opNCLIP)

	assert.Equal(t, uint32(0), g.ReadControl(63), "a well-behaved NCLIP on small coordinates must not re-set stale flags")
}

// TestUNRDivideMatchesKnownGoodReciprocal pins the UNR Newton-refinement
// divide against a hand-verified (h, sz3) pair: h=256, sz3=200 must yield
// 83886, i.e. 1.28 in .16 fixed point (256/200*0x10000 = 83886.08).
func TestUNRDivideMatchesKnownGoodReciprocal(t *testing.T) {
	g := New()
	result, overflow := g.divide(256, 200)

	assert.False(t, overflow, "a well-formed H < SZ3*2 divide must not set the overflow flag")
	assert.Equal(t, uint32(83886), result)
}

// TestUNRDividePreconditionFailureSaturates covers the H >= SZ3*2 fallback:
// the divide yields 0x1FFFF and reports overflow rather than a bogus value.
func TestUNRDividePreconditionFailureSaturates(t *testing.T) {
	g := New()
	result, overflow := g.divide(1000, 100)

	assert.True(t, overflow)
	assert.Equal(t, uint32(0x1FFFF), result)
}

// TestSelectMatrixBuggedSelectorReadsControlRegistersOutOfBand pins the mx=3
// "bugged matrix" case against the documented hardware behavior: row 0 is
// fixed at [-0x60, 0x60, IR0], and rows 1/2 each splat one half of control
// registers 41/42 across all three lanes.
func TestSelectMatrixBuggedSelectorReadsControlRegistersOutOfBand(t *testing.T) {
	g := New()
	g.WriteIR0(0x123, false)
	g.R[41] = 0x0000AAAA
	g.R[42] = 0x0000BBBB

	m := g.selectMatrix(3)

	want := Matrix{
		{-0x60, 0x60, 0x123},
		{int16(uint16(0xAAAA)), int16(uint16(0xAAAA)), int16(uint16(0xAAAA))},
		{int16(uint16(0xBBBB)), int16(uint16(0xBBBB)), int16(uint16(0xBBBB))},
	}
	assert.Equal(t, want, m)
}

func TestScreenXYFifoShiftsOnEachPush(t *testing.T) {
	g := New()
	pushSXYData(g, 1, 2)
	pushSXYData(g, 3, 4)
	pushSXYData(g, 5, 6)

	x0, y0 := g.ScreenXY(0)
	x1, y1 := g.ScreenXY(1)
	x2, y2 := g.ScreenXY(2)
	assert.Equal(t, [6]int16{1, 2, 3, 4, 5, 6}, [6]int16{x0, y0, x1, y1, x2, y2})
}
