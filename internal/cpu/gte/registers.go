package gte

import "github.com/rook-emu/psxcore/internal/bit"

// Vec16 is a 3-lane signed 16-bit vector (a GTE V0/V1/V2 input vertex or an
// IR1/2/3 register triplet).
type Vec16 struct{ X, Y, Z int16 }

// Vec32 is a 3-lane signed 32-bit vector (MAC1/2/3, or a translation
// column).
type Vec32 struct{ X, Y, Z int32 }

// Matrix is a 3x3 signed 16-bit matrix, packed two-halves-per-register the
// way RT/LLM/LCM are stored.
type Matrix [3][3]int16

// Vector reads one of the three input vertex registers V0/V1/V2 (data
// registers 0,1 / 2,3 / 4,5).
func (g *GTE) Vector(idx uint8) Vec16 {
	r := uint32(idx) * 2
	return Vec16{
		X: int16(g.R[r]),
		Y: int16(g.R[r] >> 16),
		Z: int16(g.R[r+1]),
	}
}

// RGBC reads the source color/code register (data register 6): R,G,B,CODE.
func (g *GTE) RGBC() (r, gr, b, code uint8) {
	v := g.R[6]
	return uint8(v), uint8(v >> 8), uint8(v >> 16), uint8(v >> 24)
}

// OTZ reads the averaged Z value (data register 7).
func (g *GTE) OTZ() uint16 { return uint16(g.R[7]) }

func (g *GTE) writeOTZ(v uint16) { g.R[7] = uint32(v) }

// IR0 reads the interpolation factor register (data register 8).
func (g *GTE) IR0() int16 { return int16(g.R[8]) }

// IRVector reads IR1/IR2/IR3 (data registers 9,10,11).
func (g *GTE) IRVector() Vec16 {
	return Vec16{X: int16(g.R[9]), Y: int16(g.R[10]), Z: int16(g.R[11])}
}

// WriteIR0 saturates and stores IR0, setting the flag bit on clamp.
func (g *GTE) WriteIR0(v int32, lm bool) {
	lo, hi := int32(0), int32(0x1000)
	if !lm {
		lo = -0x8000
	}
	c := clampFlag(v, lo, hi)
	if c != v {
		g.setFlag(flagIR0)
	}
	g.R[8] = uint32(uint16(int16(c)))
}

// WriteIRVector saturates (MAC1/2/3) -> IR1/2/3 with the lm clamp rule and
// mirrors the result into IRGB (data register 28).
func (g *GTE) WriteIRVector(v Vec32, lm bool) Vec16 {
	lo := int32(-0x8000)
	if lm {
		lo = 0
	}
	x := clampFlag(v.X, lo, 0x7FFF)
	if x != v.X {
		g.setFlag(flagIR1)
	}
	y := clampFlag(v.Y, lo, 0x7FFF)
	if y != v.Y {
		g.setFlag(flagIR2)
	}
	z := clampFlag(v.Z, lo, 0x7FFF)
	if z != v.Z {
		g.setFlag(flagIR3)
	}
	out := Vec16{int16(x), int16(y), int16(z)}
	g.R[9] = uint32(uint16(out.X))
	g.R[10] = uint32(uint16(out.Y))
	g.R[11] = uint32(uint16(out.Z))
	g.updateIRGBFromWrite()
	return out
}

func (g *GTE) updateIRGBFromWrite() {
	ir := g.IRVector()
	scale := func(v int16) uint32 {
		c := int32(v) >> 7
		if c < 0 {
			c = 0
		}
		if c > 0x1F {
			c = 0x1F
		}
		return uint32(c)
	}
	v := scale(ir.X) | scale(ir.Y)<<5 | scale(ir.Z)<<10
	g.R[28] = v
	g.R[29] = v
}

func (g *GTE) irgb() uint32 { return g.R[28] }

func (g *GTE) writeIRGBTriplet(v uint32) {
	g.R[28] = v & 0x7FFF
	r := int16((v & 0x1F) << 7)
	gr := int16(((v >> 5) & 0x1F) << 7)
	b := int16(((v >> 10) & 0x1F) << 7)
	g.R[9], g.R[10], g.R[11] = uint32(uint16(r)), uint32(uint16(gr)), uint32(uint16(b))
}

// ScreenXY reads SXY0/1/2 (data registers 12,13,14) by fifo index 0..2.
func (g *GTE) ScreenXY(idx uint32) (x, y int16) {
	v := g.R[12+idx]
	return int16(v), int16(v >> 16)
}

// pushSXY shifts the 3-entry screen-coordinate FIFO and pushes a new pair,
// mirroring a write to data register 15 (SXYP).
func (g *GTE) pushSXY(x, y int16) {
	g.R[12] = g.R[13]
	g.R[13] = g.R[14]
	g.R[14] = uint32(uint16(x)) | uint32(uint16(y))<<16
}

// ScreenZ reads SZ0..3 (data registers 16..19) by fifo index 0..3.
func (g *GTE) ScreenZ(idx uint32) uint16 { return uint16(g.R[16+idx]) }

// pushSZ shifts the 4-entry depth FIFO and pushes a new unsigned 16-bit Z.
func (g *GTE) pushSZ(z uint16) {
	g.R[16] = g.R[17]
	g.R[17] = g.R[18]
	g.R[18] = g.R[19]
	g.R[19] = uint32(z)
}

// RGBFifo reads RGB0..2 (data registers 20..22) by fifo index 0..2.
func (g *GTE) RGBFifo(idx uint32) (r, gr, b, code uint8) {
	v := g.R[20+idx]
	return uint8(v), uint8(v >> 8), uint8(v >> 16), uint8(v >> 24)
}

// pushRGB shifts the 3-entry color FIFO and pushes a new RGB, carrying the
// CODE byte forward from RGBC.
func (g *GTE) pushRGB(r, gr, b uint8) {
	_, _, _, code := g.RGBC()
	g.R[20] = g.R[21]
	g.R[21] = g.R[22]
	g.R[22] = uint32(r) | uint32(gr)<<8 | uint32(b)<<16 | uint32(code)<<24
}

// MAC0 reads the 32-bit scalar accumulator (data register 24).
func (g *GTE) MAC0() int32 { return int32(g.R[24]) }

// MACVector reads MAC1/2/3 (data registers 25,26,27).
func (g *GTE) MACVector() Vec32 {
	return Vec32{int32(g.R[25]), int32(g.R[26]), int32(g.R[27])}
}

func (g *GTE) writeMAC0(v int64) int32 {
	c := clampFlag64(v, -0x80000000, 0x7FFFFFFF)
	if c < v {
		g.setFlag(flagMAC0Pos)
	} else if c > v {
		g.setFlag(flagMAC0Neg)
	}
	g.R[24] = uint32(int32(c))
	return int32(c)
}

// writeMACVector checks three intermediates against the signed 44-bit range,
// setting spec.md §4.3's MAC1/2/3 sticky bits on overflow, then shifts them
// right by 12 (sf=1) or leaves them unshifted (sf=0), and clamps each lane
// to signed 32 bits for storage in both modes. With sf=0 the value is not
// saturated to 44 bits: a lane wider than 32 bits is clamped to 32 bits,
// and no flag is set for that clamp.
func (g *GTE) writeMACVector(v [3]int64, sf bool) Vec32 {
	const sat44lo, sat44hi = -(int64(1) << 43), (int64(1) << 43) - 1
	shifted := [3]int64{}
	for i, x := range v {
		if x > sat44hi {
			g.setFlag([]uint32{flagMAC1Pos, flagMAC2Pos, flagMAC3Pos}[i])
		} else if x < sat44lo {
			g.setFlag([]uint32{flagMAC1Neg, flagMAC2Neg, flagMAC3Neg}[i])
		}
		if sf {
			shifted[i] = x >> 12
		} else {
			shifted[i] = x
		}
	}
	var out Vec32
	lanes := [3]*int32{&out.X, &out.Y, &out.Z}
	for i, x := range shifted {
		c := clampFlag64(x, -0x80000000, 0x7FFFFFFF)
		*lanes[i] = int32(c)
	}
	g.R[25], g.R[26], g.R[27] = uint32(out.X), uint32(out.Y), uint32(out.Z)
	return out
}

// LZCS/LZCR: leading zero/one count source and result (data registers 30,31).
func (g *GTE) LZCS() int32 { return int32(g.R[30]) }

func (g *GTE) WriteLZCS(v int32) {
	g.R[30] = uint32(v)
	g.R[31] = uint32(leadingRunLength(v))
}

func leadingRunLength(v int32) uint32 {
	u := uint32(v)
	if v >= 0 {
		n := uint32(0)
		for n < 32 && u&(1<<(31-n)) == 0 {
			n++
		}
		return n
	}
	n := uint32(0)
	for n < 32 && u&(1<<(31-n)) != 0 {
		n++
	}
	return n
}

// RT reads the 3x3 rotation/transform matrix (control registers 32..36),
// packed two signed halves per register, row-major: standard documented
// PSX hardware layout (not the duplicate-R[34]-read variant the retrieved
// Rust source's rt() snippet computes for row 3 -- see DESIGN.md).
func (g *GTE) RT() Matrix {
	return unpackMatrix(g.R[32], g.R[33], g.R[34], g.R[35], g.R[36])
}

// LLM is the light-source direction matrix (control registers 40..44).
func (g *GTE) LLM() Matrix {
	return unpackMatrix(g.R[40], g.R[41], g.R[42], g.R[43], g.R[44])
}

// LCM is the light-color matrix (control registers 48..52).
func (g *GTE) LCM() Matrix {
	return unpackMatrix(g.R[48], g.R[49], g.R[50], g.R[51], g.R[52])
}

func unpackMatrix(r0, r1, r2, r3, r4 uint32) Matrix {
	return Matrix{
		{int16(r0), int16(r0 >> 16), int16(r1)},
		{int16(r1 >> 16), int16(r2), int16(r2 >> 16)},
		{int16(r3), int16(r3 >> 16), int16(r4)},
	}
}

// TR is the translation vector (control registers 37,38,39).
func (g *GTE) TR() Vec32 { return Vec32{int32(g.R[37]), int32(g.R[38]), int32(g.R[39])} }

// BK is the background color (control registers 45,46,47).
func (g *GTE) BK() Vec32 { return Vec32{int32(g.R[45]), int32(g.R[46]), int32(g.R[47])} }

// FC is the far color (control registers 53,54,55).
func (g *GTE) FC() Vec32 { return Vec32{int32(g.R[53]), int32(g.R[54]), int32(g.R[55])} }

// OFX/OFY is the screen-space offset (control registers 56,57).
func (g *GTE) OFX() int32 { return int32(g.R[56]) }
func (g *GTE) OFY() int32 { return int32(g.R[57]) }

// H is the projection plane distance (control register 58).
func (g *GTE) H() uint16 { return uint16(g.R[58]) }

// DQA/DQB is the depth-cue interpolation pair (control registers 59,60).
func (g *GTE) DQA() int16 { return int16(g.R[59]) }
func (g *GTE) DQB() int32 { return int32(g.R[60]) }

// ZSF3/ZSF4 are the AVSZ scale factors (control registers 61,62).
func (g *GTE) ZSF3() int16 { return int16(g.R[61]) }
func (g *GTE) ZSF4() int16 { return int16(g.R[62]) }

func clampFlag(v, lo, hi int32) int32 {
	return bit.Clamp(v, lo, hi)
}

func clampFlag64(v, lo, hi int64) int64 {
	return bit.Clamp(v, lo, hi)
}
