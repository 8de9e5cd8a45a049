package gte

// Command is a decoded cop2 COP2 imm25 function word.
type Command struct {
	Op uint32
	SF bool
	MX uint8
	V  uint8
	CV uint8
	LM bool
}

// DecodeCommand splits a 25-bit GTE function word into its opcode and the
// MVMVA-family selector bits (mx/v/cv/sf/lm), per spec.md §4.1/§4.3.
func DecodeCommand(word uint32) Command {
	return Command{
		Op: word & 0x3F,
		SF: (word>>19)&1 != 0,
		MX: uint8((word >> 17) & 3),
		V:  uint8((word >> 15) & 3),
		CV: uint8((word >> 13) & 3),
		LM: (word>>10)&1 != 0,
	}
}

const (
	opRTPS  = 0x01
	opNCLIP = 0x06
	opOP    = 0x0C
	opDPCS  = 0x10
	opINTPL = 0x11
	opMVMVA = 0x12
	opNCDS  = 0x13
	opCDP   = 0x14
	opNCDT  = 0x16
	opNCCS  = 0x1B
	opNCCT  = 0x3F
	opCC    = 0x1C
	opNCS   = 0x1E
	opNCT   = 0x20
	opSQR   = 0x28
	opDCPL  = 0x29
	opDPCT  = 0x2A
	opAVSZ3 = 0x2D
	opAVSZ4 = 0x2E
	opRTPT  = 0x30
	opGPF   = 0x3D
	opGPL   = 0x3E
)

// Execute decodes and runs a GTE command, returning an advisory cycle count
// (the scheduler uses this only as a hint, per spec.md §4.3).
func (g *GTE) Execute(word uint32) int {
	cmd := DecodeCommand(word)
	g.resetFlags()

	switch cmd.Op {
	case opRTPS:
		g.rtp(0, cmd.SF, true)
		return 15
	case opRTPT:
		g.rtp(0, cmd.SF, false)
		g.rtp(1, cmd.SF, false)
		g.rtp(2, cmd.SF, true)
		return 23
	case opNCLIP:
		g.nclip()
		return 8
	case opAVSZ3:
		g.avsz3()
		return 5
	case opAVSZ4:
		g.avsz4()
		return 6
	case opOP:
		g.op(cmd.SF)
		return 6
	case opMVMVA:
		g.WriteIRVector(macFromVec(g.mvmvaRaw(cmd.MX, cmd.V, cmd.CV, cmd.SF)), cmd.LM)
		return 8
	case opSQR:
		g.sqr(cmd.SF)
		return 5
	case opNCS:
		g.ncs(0)
		return 14
	case opNCT:
		g.ncs(0)
		g.ncs(1)
		g.ncs(2)
		return 30
	case opNCCS:
		g.nccs(0)
		return 17
	case opNCCT:
		g.nccs(0)
		g.nccs(1)
		g.nccs(2)
		return 39
	case opNCDS:
		g.ncds(0)
		return 19
	case opNCDT:
		g.ncds(0)
		g.ncds(1)
		g.ncds(2)
		return 44
	case opCC:
		g.cc()
		return 11
	case opCDP:
		g.cdp()
		return 13
	case opDCPL:
		g.dcpl()
		return 8
	case opDPCS:
		g.dpc(g.rgbcVec(), cmd.SF)
		return 8
	case opDPCT:
		rgb := g.rgbcVec()
		g.dpc(rgb, cmd.SF)
		g.dpc(rgb, cmd.SF)
		g.dpc(rgb, cmd.SF)
		return 17
	case opINTPL:
		g.intpl(cmd.SF)
		return 8
	case opGPF:
		g.gpf(cmd.SF)
		return 5
	case opGPL:
		g.gpl(cmd.SF)
		return 5
	}
	return 1
}

func macFromVec(v Vec32) Vec32 { return v }

// selectMatrix picks RT/LLM/LCM for the mx selector. Selector 3 is the
// documented hardware "bugged" case: MVMVA never decodes a fourth matrix,
// so the control-register file is read out of band -- row 0 is
// [-0x60, 0x60, IR0], rows 1 and 2 each splat one half of control
// registers 41 and 42 (the second word of the LLM matrix) across all
// three lanes.
func (g *GTE) selectMatrix(sel uint8) Matrix {
	switch sel {
	case 0:
		return g.RT()
	case 1:
		return g.LLM()
	case 2:
		return g.LCM()
	}
	row1 := int16(g.R[41])
	row2 := int16(g.R[42])
	return Matrix{
		{-0x60, 0x60, g.IR0()},
		{row1, row1, row1},
		{row2, row2, row2},
	}
}

func (g *GTE) selectVector(sel uint8, idx uint8) Vec16 {
	switch sel {
	case 0:
		return g.Vector(0)
	case 1:
		return g.Vector(1)
	case 2:
		return g.Vector(2)
	}
	return g.IRVector()
}

func (v Vec32) component(i int) int32 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

func (g *GTE) selectTranslation(sel uint8) (Vec32, bool) {
	switch sel {
	case 0:
		return g.TR(), true
	case 1:
		return g.BK(), true
	case 2:
		return g.FC(), true
	}
	return Vec32{}, false
}

// mvmvaRaw computes MAC1/2/3 = cv*4096 + M*V, saturated per sf, and stores
// them (without yet clamping into IR); used both by the MVMVA command
// itself and by the RTP/NC*/DPC family which are all specializations of it.
func (g *GTE) mvmvaRaw(mxSel, vSel, cvSel uint8, sf bool) Vec32 {
	return g.mvmvaRawVec(mxSel, g.selectVector(vSel, 0), cvSel, sf)
}

func (g *GTE) mvmvaRawVec(mxSel uint8, vec Vec16, cvSel uint8, sf bool) Vec32 {
	m := g.selectMatrix(mxSel)
	tr, useTr := g.selectTranslation(cvSel)
	var acc [3]int64
	for i := 0; i < 3; i++ {
		a := int64(0)
		if useTr {
			a = int64(tr.component(i)) * 4096
		}
		a += int64(m[i][0])*int64(vec.X) + int64(m[i][1])*int64(vec.Y) + int64(m[i][2])*int64(vec.Z)
		acc[i] = a
	}
	return g.writeMACVector(acc, sf)
}

func (g *GTE) rgbcVec() Vec32 {
	r, gr, b, _ := g.RGBC()
	return Vec32{int32(r) << 4, int32(gr) << 4, int32(b) << 4}
}

// rtp performs one perspective-transform-and-project of vertex vIdx (0..2),
// pushing the screen-space XY/Z fifos and, on the final vertex, the
// depth-cue IR0, per spec.md §4.3's RTPS/RTPT description.
func (g *GTE) rtp(vIdx uint8, sf, isLast bool) {
	mac := g.mvmvaRawVec(0, g.Vector(vIdx), 0, sf)
	ir := g.WriteIRVector(mac, false)

	szRaw := mac.Z
	if !sf {
		szRaw >>= 12
	}
	sz := clampFlag(szRaw, 0, 0xFFFF)
	if sz != szRaw {
		g.setFlag(flagSZ3Otz)
	}
	g.pushSZ(uint16(sz))

	h := uint32(g.H())
	quotient, overflow := g.divide(h, uint16(sz))
	if overflow {
		g.setFlag(flagDivOverflow)
	}

	sx := (int64(quotient)*int64(ir.X) + int64(g.OFX())) >> 16
	sy := (int64(quotient)*int64(ir.Y) + int64(g.OFY())) >> 16
	sxC := clampFlag(int32(sx), -0x400, 0x3FF)
	if int32(sx) != sxC {
		g.setFlag(flagSX2)
	}
	syC := clampFlag(int32(sy), -0x400, 0x3FF)
	if int32(sy) != syC {
		g.setFlag(flagSY2)
	}
	g.pushSXY(int16(sxC), int16(syC))

	if isLast {
		mac0 := int64(quotient)*int64(g.DQB()) + int64(g.DQA())<<12
		g.writeMAC0(mac0 >> 12)
		g.WriteIR0(int32(mac0>>12), false)
	}
}

// nclip computes the Z component of the cross product of SXY0,1,2 into
// MAC0, per spec.md §8's S5 scenario.
func (g *GTE) nclip() {
	x0, y0 := g.ScreenXY(0)
	x1, y1 := g.ScreenXY(1)
	x2, y2 := g.ScreenXY(2)
	v := int64(x0)*int64(y1) - int64(x0)*int64(y2) +
		int64(x1)*int64(y2) - int64(x1)*int64(y0) +
		int64(x2)*int64(y0) - int64(x2)*int64(y1)
	g.writeMAC0(v)
}

func (g *GTE) avsz3() {
	z1, z2, z3 := g.ScreenZ(1), g.ScreenZ(2), g.ScreenZ(3)
	v := int64(g.ZSF3()) * (int64(z1) + int64(z2) + int64(z3))
	mac0 := g.writeMAC0(v)
	g.writeOTZ(uint16(clampFlag(mac0>>12, 0, 0xFFFF)))
}

func (g *GTE) avsz4() {
	z0, z1, z2, z3 := g.ScreenZ(0), g.ScreenZ(1), g.ScreenZ(2), g.ScreenZ(3)
	v := int64(g.ZSF4()) * (int64(z0) + int64(z1) + int64(z2) + int64(z3))
	mac0 := g.writeMAC0(v)
	g.writeOTZ(uint16(clampFlag(mac0>>12, 0, 0xFFFF)))
}

// op computes the cross product of RT's diagonal (RT11, RT22, RT33) with
// the IR vector (GTE's "outer product" command).
func (g *GTE) op(sf bool) {
	rt := g.RT()
	ir := g.IRVector()
	shift := uint(0)
	if sf {
		shift = 12
	}
	acc := [3]int64{
		(int64(rt[1][1])*int64(ir.Z) - int64(rt[2][2])*int64(ir.Y)) >> shift,
		(int64(rt[2][2])*int64(ir.X) - int64(rt[0][0])*int64(ir.Z)) >> shift,
		(int64(rt[0][0])*int64(ir.Y) - int64(rt[1][1])*int64(ir.X)) >> shift,
	}
	mac := g.writeMACVector(acc, false)
	g.WriteIRVector(mac, false)
}

func (g *GTE) sqr(sf bool) {
	ir := g.IRVector()
	acc := [3]int64{
		int64(ir.X) * int64(ir.X),
		int64(ir.Y) * int64(ir.Y),
		int64(ir.Z) * int64(ir.Z),
	}
	mac := g.writeMACVector(acc, sf)
	g.WriteIRVector(mac, false)
}

// ncs/nct: normal-color pipeline. Transforms normal vIdx by the light
// matrix, then by the light-color matrix with the background color as
// translation, pushing the RGB fifo.
func (g *GTE) ncs(vIdx uint8) {
	n := g.Vector(vIdx)
	lit := g.mvmvaRawVec(1, n, 3, true)
	ir := g.WriteIRVector(lit, false)
	color := g.mvmvaRawVec(2, Vec16{ir.X, ir.Y, ir.Z}, 1, true)
	g.finishColor(color)
}

func (g *GTE) nccs(vIdx uint8) {
	n := g.Vector(vIdx)
	lit := g.mvmvaRawVec(1, n, 3, true)
	ir := g.WriteIRVector(lit, false)
	color := g.mvmvaRawVec(2, Vec16{ir.X, ir.Y, ir.Z}, 1, true)
	colorIR := g.WriteIRVector(color, false)
	g.finishColor(g.modulateWithRGBC(colorIR))
}

func (g *GTE) ncds(vIdx uint8) {
	n := g.Vector(vIdx)
	lit := g.mvmvaRawVec(1, n, 3, true)
	ir := g.WriteIRVector(lit, false)
	color := g.mvmvaRawVec(2, Vec16{ir.X, ir.Y, ir.Z}, 1, true)
	colorIR := g.WriteIRVector(color, false)
	modulated := g.modulateWithRGBC(colorIR)
	g.depthCue(modulated)
}

// cc (Color Color): lights IR by the light-color matrix plus background
// translation, then modulates the result by RGBC, pushing the RGB fifo.
func (g *GTE) cc() {
	color := g.mvmvaRawVec(2, g.IRVector(), 1, true)
	ir := g.WriteIRVector(color, false)
	g.finishColor(g.modulateWithRGBC(ir))
}

func (g *GTE) cdp() {
	color := g.mvmvaRawVec(2, g.IRVector(), 1, true)
	colorIR := g.WriteIRVector(color, false)
	modulated := g.modulateWithRGBC(colorIR)
	g.depthCue(modulated)
}

func (g *GTE) dcpl() {
	modulated := g.modulateWithRGBC(g.IRVector())
	g.depthCue(modulated)
}

func (g *GTE) dpc(rgb Vec32, sf bool) {
	g.depthCue(rgb)
}

func (g *GTE) intpl(sf bool) {
	ir := g.IRVector()
	fc := g.FC()
	acc := [3]int64{
		(int64(fc.X)<<12 - int64(ir.X)<<12),
		(int64(fc.Y)<<12 - int64(ir.Y)<<12),
		(int64(fc.Z)<<12 - int64(ir.Z)<<12),
	}
	mac := g.writeMACVector(acc, sf)
	irOut := g.WriteIRVector(mac, false)
	g.finishColor(Vec32{int32(ir.X)<<12 + int32(irOut.X)*int32(g.IR0()), int32(ir.Y)<<12 + int32(irOut.Y)*int32(g.IR0()), int32(ir.Z)<<12 + int32(irOut.Z)*int32(g.IR0())})
}

func (g *GTE) gpf(sf bool) {
	ir0 := g.IR0()
	ir := g.IRVector()
	acc := [3]int64{int64(ir0) * int64(ir.X), int64(ir0) * int64(ir.Y), int64(ir0) * int64(ir.Z)}
	mac := g.writeMACVector(acc, sf)
	irOut := g.WriteIRVector(mac, false)
	g.finishColor(Vec32{int32(irOut.X) << 4, int32(irOut.Y) << 4, int32(irOut.Z) << 4})
}

func (g *GTE) gpl(sf bool) {
	ir0 := g.IR0()
	ir := g.IRVector()
	mac := g.MACVector()
	shift := uint(0)
	if sf {
		shift = 12
	}
	acc := [3]int64{
		int64(mac.X)<<shift + int64(ir0)*int64(ir.X),
		int64(mac.Y)<<shift + int64(ir0)*int64(ir.Y),
		int64(mac.Z)<<shift + int64(ir0)*int64(ir.Z),
	}
	macOut := g.writeMACVector(acc, sf)
	irOut := g.WriteIRVector(macOut, false)
	g.finishColor(Vec32{int32(irOut.X) << 4, int32(irOut.Y) << 4, int32(irOut.Z) << 4})
}

// modulateWithRGBC multiplies the color vector by RGBC and scales by 1/128,
// per spec.md §4.11's "modulated" texture-blend description, which the GTE
// color pipeline shares.
func (g *GTE) modulateWithRGBC(color Vec16) Vec32 {
	r, gr, b, _ := g.RGBC()
	return Vec32{
		(int32(r) * int32(color.X)) >> 4,
		(int32(gr) * int32(color.Y)) >> 4,
		(int32(b) * int32(color.Z)) >> 4,
	}
}

// depthCue blends a modulated color toward the far color by IR0, writes the
// MAC/IR registers, and pushes the RGB fifo -- the shared tail of
// NCDS/NCDT/CDP/DPCS/DPCT/DCPL.
func (g *GTE) depthCue(color Vec32) {
	fc := g.FC()
	ir0 := int64(g.IR0())
	acc := [3]int64{
		int64(fc.X)<<12 - int64(color.X),
		int64(fc.Y)<<12 - int64(color.Y),
		int64(fc.Z)<<12 - int64(color.Z),
	}
	mac := g.writeMACVector(acc, true)
	ir := g.WriteIRVector(mac, false)
	final := Vec32{
		color.X + int32(ir0*int64(ir.X)),
		color.Y + int32(ir0*int64(ir.Y)),
		color.Z + int32(ir0*int64(ir.Z)),
	}
	g.finishColor(final)
}

// finishColor saturates a 12-bit-fixed color vector to [0,0xFF] and pushes
// the RGB fifo, per spec.md §4.3's "color channels clamp to [0,0xFF]".
func (g *GTE) finishColor(color Vec32) {
	mac := g.writeMACVector([3]int64{int64(color.X), int64(color.Y), int64(color.Z)}, true)
	r := clampFlag(mac.X, 0, 0xFF)
	if r != mac.X {
		g.setFlag(flagColorR)
	}
	gr := clampFlag(mac.Y, 0, 0xFF)
	if gr != mac.Y {
		g.setFlag(flagColorG)
	}
	b := clampFlag(mac.Z, 0, 0xFF)
	if b != mac.Z {
		g.setFlag(flagColorB)
	}
	g.pushRGB(uint8(r), uint8(gr), uint8(b))
}
