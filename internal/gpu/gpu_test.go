package gpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestFlatTriangleRasterizesWhiteOnHypotenuse covers spec.md §8's S4 scenario:
// after setting the draw area and sending a monochrome white triangle at
// (0,0), (100,0), (100,100), the pixel (50,50), which lies on the
// hypotenuse (a left edge, so the top-left rule includes it), is white and
// a point outside the triangle is untouched.
func TestFlatTriangleRasterizesWhiteOnHypotenuse(t *testing.T) {
	g := New()
	g.WriteGP1(0x00000000) // reset

	// Program a full-screen draw area so the default (0,0) clamp doesn't
	// clip the triangle away.
	g.WriteGP0(0xE3000000)             // top-left (0,0)
	g.WriteGP0(0xE4000000 | 0x1FF<<10 | 0x3FF) // bottom-right (1023,511)

	g.WriteGP0(0x20FFFFFF) // monochrome opaque triangle, color white
	g.WriteGP0(0x00000000) // vertex0 (0,0)
	g.WriteGP0(0x00000064) // vertex1 (100,0)
	g.WriteGP0(0x00640064) // vertex2 (100,100)

	assert.Equal(t, uint16(0x7FFF), g.vram.Get(50, 50), "the hypotenuse midpoint must be white")
	assert.Equal(t, uint16(0), g.vram.Get(150, 150), "outside the triangle must be untouched")
}

func TestGP1ResetTwiceIsIdempotent(t *testing.T) {
	g := New()
	g.WriteGP1(0x03000000) // display off toggle, some non-zero prior state
	g.WriteGP0(0xE1000005) // program texpage
	g.WriteGP1(0x00000000)
	first := *g

	g.WriteGP1(0x00000000)
	assert.Equal(t, first, *g, "GP1 reset applied twice must be identical")
}

func TestCPUToVRAMThenVRAMToCPURoundTrips(t *testing.T) {
	g := New()
	g.WriteGP1(0x00000000)

	// CPU->VRAM blit: dst (10,20), size 2x2.
	g.WriteGP0(0xA0000000)
	g.WriteGP0(20<<16 | 10)
	g.WriteGP0(2<<16 | 2)
	words := []uint32{0x11112222, 0x33334444}
	for _, w := range words {
		g.WriteGP0(w)
	}

	// VRAM->CPU blit of the same region.
	g.WriteGP0(0xC0000000)
	g.WriteGP0(20<<16 | 10)
	g.WriteGP0(2<<16 | 2)

	var got []uint32
	for i := 0; i < 2; i++ {
		got = append(got, g.ReadGP0())
	}

	assert.Equal(t, words, got, "readback must equal what was written, halfword-exact")
}

// TestClutAddrDecodesPackedField pins clutAddr's bit layout against the
// original source's (clut_x<<4, clut_y) formula: clut=0x0141 must decode to
// VRAM halfword coordinates (16, 5).
func TestClutAddrDecodesPackedField(t *testing.T) {
	uvWord := uint32(0x0141) << 16
	x, y := clutAddr(uvWord)

	assert.Equal(t, int32(16), x)
	assert.Equal(t, int32(5), y)
}

// TestSampleTexture4BitLooksUpCorrectPaletteEntry covers the bug where
// 4-bit indexed texture sampling ignored the primitive's CLUT address
// entirely: a texel's index must resolve through the CLUT at
// (clutX+idx, clutY), not at (idx, texPageY).
func TestSampleTexture4BitLooksUpCorrectPaletteEntry(t *testing.T) {
	g := New()
	g.texPageX, g.texPageY, g.texPageColors = 0, 0, 0

	g.vram.Set(0, 0, 0x1234) // four packed 4-bit indices: u=0 -> idx 4
	g.vram.Set(16+4, 5, 0x7123) // CLUT entry at (clutX+idx, clutY)
	g.vram.Set(4, 0, 0xDEAD)    // decoy at the old (raw idx, texPageY) address

	texel, ok := g.sampleTexture(0, 0, 16, 5)

	assert.True(t, ok)
	assert.Equal(t, uint16(0x7123), texel, "must read the CLUT-addressed entry, not the old unshifted one")
}

// TestPlotSemiTransparentBlendsAgainstExistingPixel covers the previously
// unwired semi-transparency blend formulas (spec.md §4.10): with mode 0
// ((B+F)/2) and a primitive's semi-transparent bit set, plot must blend
// into the existing VRAM pixel rather than overwrite it.
func TestPlotSemiTransparentBlendsAgainstExistingPixel(t *testing.T) {
	g := New()
	g.texPageSemiTransparent = 0 // (B+F)/2
	g.vram.Set(5, 5, compressColorDepth(100, 100, 100))

	g.plot(5, 5, compressColorDepth(200, 200, 200), true)

	r, gr, b := decodeColor(g.vram.Get(5, 5))
	wantR, wantG, wantB := decodeColor(blend(SemiTransHalf, compressColorDepth(100, 100, 100), compressColorDepth(200, 200, 200)))
	assert.Equal(t, wantR, r)
	assert.Equal(t, wantG, gr)
	assert.Equal(t, wantB, b)
}

// TestPlotOpaqueOverwritesRatherThanBlends is the converse: without the
// semi-transparent flag, plot must overwrite straight through.
func TestPlotOpaqueOverwritesRatherThanBlends(t *testing.T) {
	g := New()
	g.vram.Set(5, 5, compressColorDepth(100, 100, 100))
	fg := compressColorDepth(200, 200, 200)

	g.plot(5, 5, fg, false)

	assert.Equal(t, fg, g.vram.Get(5, 5))
}

// TestTexpageDitherBitRoundTripsThroughGPUSTAT covers GP0(0xE1) bit 9 wiring
// into both the ditherEnabled flag consumed by the rasterizer and the
// GPUSTAT readback.
func TestTexpageDitherBitRoundTripsThroughGPUSTAT(t *testing.T) {
	g := New()
	g.WriteGP0(0xE1000200) // texpage word with bit 9 (dither) set

	assert.True(t, g.ditherEnabled)
	assert.NotEqual(t, uint32(0), g.ReadGPUSTAT()&(1<<9))
}

func TestFillRectWritesCompressedColor(t *testing.T) {
	g := New()
	g.WriteGP0(0x02102030) // fill rect, color (0x30,0x20,0x10)
	g.WriteGP0(0)          // x0=0,y0=0
	g.WriteGP0(1<<16 | 1)  // w=1,h=1

	expect := compressColorDepth(0x30, 0x20, 0x10)
	assert.Equal(t, expect, g.vram.Get(0, 0))
}
