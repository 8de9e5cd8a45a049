// Package gte implements coprocessor 2, the geometry transformation engine:
// 32 data + 32 control registers and the saturating fixed-point command set
// used for perspective transforms, lighting, and depth cueing.
//
// Grounded on _examples/original_source/src/cpu/gte/{mod,register}.rs for
// the register layout and command semantics, and on spec.md §4.3 as the
// authoritative source where the two disagree (notably the rt() matrix
// layout and the DIV corner cases the CPU package also resolves).
package gte

// GTE holds the flat 64-word register file: data registers 0..31,
// control registers 32..63.
type GTE struct {
	R [64]uint32
}

// New returns a zeroed GTE, matching cold-boot hardware state.
func New() *GTE {
	return &GTE{}
}

// ReadData implements MFC2 (data registers 0..31), applying the sign/zero
// extension each register's packed halves require.
func (g *GTE) ReadData(r uint32) uint32 {
	switch r {
	case 1, 3, 5, 8, 9, 10, 11, 16, 17, 18, 19:
		// 16-bit registers: sign-extend except SZx/OTZ/flag-like fields,
		// which are zero-extended (unsigned depth/halfwords).
		switch r {
		case 16, 17, 18, 19:
			return uint32(uint16(g.R[r]))
		default:
			return uint32(int32(int16(uint16(g.R[r]))))
		}
	case 7:
		return uint32(uint16(g.R[r]))
	case 15:
		return g.R[14] // SXYP reads back the most recent SXY2 push
	case 28, 29:
		return g.irgb()
	}
	return g.R[r]
}

// WriteData implements MTC2.
func (g *GTE) WriteData(r uint32, value uint32) {
	switch r {
	case 15:
		g.pushSXY(int16(value), int16(value>>16))
		return
	case 28:
		g.writeIRGBTriplet(value)
		return
	case 31:
		return // LZCR is read-only
	}
	g.R[r] = value
	if r == 9 || r == 10 || r == 11 {
		g.updateIRGBFromWrite()
	}
}

// ReadControl implements CFC2 (control registers 32..63).
func (g *GTE) ReadControl(r uint32) uint32 {
	switch r {
	case 32, 33, 34, 35, 36, 40, 41, 42, 43, 44, 58:
		return uint32(int32(int16(uint16(g.R[32+(r-32)]))))
	case 63:
		return g.finalizeFlags()
	}
	return g.R[r]
}

// readRaw returns control register r without the halfword-sign-extend
// special-casing ReadControl applies to register 32..36/40..44/58; used
// internally by the matrix/vector accessors which need both halves.
func (g *GTE) readRaw(r uint32) uint32 { return g.R[r] }

// WriteControl implements CTC2.
func (g *GTE) WriteControl(r uint32, value uint32) {
	g.R[r] = value
}

// Flag register accessors (R[63]).
const (
	flagIR0 = 1 << 12
	flagSY2 = 1 << 13
	flagSX2 = 1 << 14
	flagMAC0Neg = 1 << 15
	flagMAC0Pos = 1 << 16
	flagDivOverflow = 1 << 17
	flagSZ3Otz = 1 << 18
	flagColorB = 1 << 19
	flagColorG = 1 << 20
	flagColorR = 1 << 21
	flagIR3 = 1 << 22
	flagIR2 = 1 << 23
	flagIR1 = 1 << 24
	flagMAC3Neg = 1 << 25
	flagMAC2Neg = 1 << 26
	flagMAC1Neg = 1 << 27
	flagMAC3Pos = 1 << 28
	flagMAC2Pos = 1 << 29
	flagMAC1Pos = 1 << 30
)

func (g *GTE) setFlag(bits uint32) { g.R[63] |= bits }

func (g *GTE) resetFlags() { g.R[63] = 0 }

// finalizeFlags sets bit 31 to the OR of bits 30..23 and 18..13, per
// spec.md §4.3, and returns the finished flag word.
func (g *GTE) finalizeFlags() uint32 {
	top := g.R[63] & (0xFF << 23) // bits 30..23
	mid := g.R[63] & (0x3F << 13) // bits 18..13
	if top != 0 || mid != 0 {
		g.R[63] |= 1 << 31
	}
	return g.R[63]
}
