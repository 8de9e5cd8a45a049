package gpu

// vertex is one rasterizer input: screen position, color, and (for
// textured primitives) UV coordinates plus the CLUT address the first
// vertex's UV word carried.
type vertex struct {
	x, y       int32
	r, g, b    uint8
	u, v       uint8
	clutX, clutY int32
}

// dispatch executes the command buffered in g.pending once all of its
// parameter words have arrived.
func (g *GPU) dispatch() {
	op := g.pending.opcode
	switch {
	case op == 0x02:
		g.fillRect()
	case op >= 0x20 && op <= 0x3F:
		g.drawPolygon()
	case op >= 0x40 && op <= 0x5F:
		g.drawLine()
	case op >= 0x60 && op <= 0x7F:
		g.drawRect()
	case op >= 0x80 && op <= 0x9F:
		g.copyVRAMToVRAM()
	case op >= 0xA0 && op <= 0xBF:
		g.beginBlitIn()
	case op >= 0xC0 && op <= 0xDF:
		g.beginBlitOut()
	}
}

// headerlessWord returns the i-th word following the command header (the
// header itself is words[0]).
func (p *pendingCommand) headerlessWord(i int) uint32 {
	if i >= len(p.words) {
		return 0
	}
	return p.words[i]
}

func colorFromWord(w uint32) (r, g, b uint8) {
	return uint8(w), uint8(w >> 8), uint8(w >> 16)
}

func vertexFromWord(w uint32) (x, y int32) {
	return int32(int16(uint16(w))), int32(int16(uint16(w >> 16)))
}

// clutAddr decodes the packed CLUT field carried in the upper 16 bits of a
// textured primitive's first UV word into the VRAM halfword coordinates of
// the palette, per spec.md §4.11 ("each index looks up a color in the CLUT
// at (clut_x<<4, clut_y)").
func clutAddr(uvWord uint32) (x, y int32) {
	clut := uvWord >> 16
	return int32((clut & 0x3F) << 4), int32((clut >> 6) & 0x1FF)
}

// fillRect implements GP0(0x02): a flat-filled rectangle with no drawing-area
// clamp beyond VRAM wraparound, per real hardware's "fill" quirk.
func (g *GPU) fillRect() {
	r, gr, b := colorFromWord(g.pending.words[0])
	c := compressColorDepth(r, gr, b)

	x0 := int32(g.pending.headerlessWord(1) & 0xFFFF)
	y0 := int32(g.pending.headerlessWord(1) >> 16)
	w := int32(g.pending.headerlessWord(2) & 0xFFFF)
	h := int32(g.pending.headerlessWord(2) >> 16)
	for y := int32(0); y < h; y++ {
		for x := int32(0); x < w; x++ {
			g.vram.Set(x0+x, y0+y, c)
		}
	}
}

// drawPolygon rasterizes GP0 triangle/quad commands (flat, Gouraud,
// textured, modulated), per spec.md §4.11.
func (g *GPU) drawPolygon() {
	op := g.pending.opcode
	gouraud := op&0x10 != 0
	quad := op&0x08 != 0
	textured := op&0x04 != 0
	semiTransparent := op&0x02 != 0

	words := g.pending.words
	idx := 0
	header := words[idx]
	idx++
	r0, g0, b0 := colorFromWord(header)

	nVerts := 3
	if quad {
		nVerts = 4
	}

	verts := make([]vertex, nVerts)
	var clutX, clutY int32
	curR, curG, curB := r0, g0, b0
	for i := 0; i < nVerts; i++ {
		if i > 0 && gouraud {
			curR, curG, curB = colorFromWord(words[idx])
			idx++
		}
		x, y := vertexFromWord(words[idx])
		idx++
		var u, v uint8
		if textured {
			uv := words[idx]
			idx++
			u, v = uint8(uv), uint8(uv>>8)
			if i == 0 {
				clutX, clutY = clutAddr(uv)
			}
		}
		verts[i] = vertex{x: x, y: y, r: curR, g: curG, b: curB, u: u, v: v, clutX: clutX, clutY: clutY}
	}

	g.rasterTriangle(verts[0], verts[1], verts[2], textured, semiTransparent, gouraud)
	if quad {
		g.rasterTriangle(verts[1], verts[2], verts[3], textured, semiTransparent, gouraud)
	}
}

func cross(ax, ay, bx, by, cx, cy int32) int64 {
	return int64(bx-ax)*int64(cy-ay) - int64(by-ay)*int64(cx-ax)
}

// topLeft reports whether the directed edge (a->b) is a top or left edge,
// for the exact-zero tie-break in the edge test. Edges arrive in the
// positive-area winding rasterTriangle normalizes to, in which a top edge
// runs toward +x and a left edge toward -y.
func topLeft(ax, ay, bx, by int32) bool {
	dy := by - ay
	dx := bx - ax
	return (dy == 0 && dx > 0) || dy < 0
}

func minI32(vs ...int32) int32 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxI32(vs ...int32) int32 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func clampI32(v, lo, hi int32) int32 {
	if hi < lo {
		return v
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (g *GPU) rasterTriangle(v0, v1, v2 vertex, textured, semiTransparent, gouraud bool) {
	area := cross(v0.x, v0.y, v1.x, v1.y, v2.x, v2.y)
	if area < 0 {
		v0, v1 = v1, v0
		area = -area
	}
	if area == 0 {
		return
	}

	minX, maxX := minI32(v0.x, v1.x, v2.x), maxI32(v0.x, v1.x, v2.x)
	minY, maxY := minI32(v0.y, v1.y, v2.y), maxI32(v0.y, v1.y, v2.y)
	minX = clampI32(minX, g.drawAreaX1, g.drawAreaX2)
	maxX = clampI32(maxX, g.drawAreaX1, g.drawAreaX2)
	minY = clampI32(minY, g.drawAreaY1, g.drawAreaY2)
	maxY = clampI32(maxY, g.drawAreaY1, g.drawAreaY2)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w0 := cross(v1.x, v1.y, v2.x, v2.y, x, y)
			w1 := cross(v2.x, v2.y, v0.x, v0.y, x, y)
			w2 := cross(v0.x, v0.y, v1.x, v1.y, x, y)

			in0 := w0 > 0 || (w0 == 0 && topLeft(v1.x, v1.y, v2.x, v2.y))
			in1 := w1 > 0 || (w1 == 0 && topLeft(v2.x, v2.y, v0.x, v0.y))
			in2 := w2 > 0 || (w2 == 0 && topLeft(v0.x, v0.y, v1.x, v1.y))
			if !(in0 && in1 && in2) {
				continue
			}

			l0, l1, l2 := float64(w0)/float64(area), float64(w1)/float64(area), float64(w2)/float64(area)

			r := uint8(clampF(l0*float64(v0.r)+l1*float64(v1.r)+l2*float64(v2.r), 0, 255))
			gr := uint8(clampF(l0*float64(v0.g)+l1*float64(v1.g)+l2*float64(v2.g), 0, 255))
			b := uint8(clampF(l0*float64(v0.b)+l1*float64(v1.b)+l2*float64(v2.b), 0, 255))

			var final uint16
			var blendable bool
			if textured {
				u := uint8(clampF(l0*float64(v0.u)+l1*float64(v1.u)+l2*float64(v2.u), 0, 255))
				v := uint8(clampF(l0*float64(v0.v)+l1*float64(v1.v)+l2*float64(v2.v), 0, 255))
				texel, ok := g.sampleTexture(u, v, v0.clutX, v0.clutY)
				if !ok {
					continue
				}
				final = modulate(texel, r, gr, b)
				blendable = final&0x8000 != 0
			} else {
				if gouraud && g.ditherEnabled {
					r = ditherChannel(int32(r), x, y)
					gr = ditherChannel(int32(gr), x, y)
					b = ditherChannel(int32(b), x, y)
				}
				final = compressColorDepth(r, gr, b)
				blendable = true
			}
			g.plot(x+g.drawOffsetX, y+g.drawOffsetY, final, semiTransparent && blendable)
		}
	}
}

func modulate(texel uint16, r, g, b uint8) uint16 {
	tr, tg, tb := decodeColor(texel)
	mix := func(t, c uint8) uint8 {
		v := (int32(t) * int32(c)) >> 7
		if v > 255 {
			v = 255
		}
		return uint8(v)
	}
	return compressColorDepth(mix(tr, r), mix(tg, g), mix(tb, b)) | (texel & 0x8000)
}

// plot writes one VRAM pixel, applying the mask-bit check/force logic and,
// when semiTransparent is set, blending against the existing VRAM pixel
// with the drawing environment's currently programmed semi-transparency
// mode (spec.md §4.10).
func (g *GPU) plot(x, y int32, c uint16, semiTransparent bool) {
	if g.checkMaskBit && g.vram.Get(x, y)&0x8000 != 0 {
		return
	}
	if semiTransparent {
		c = blend(SemiTransMode(g.texPageSemiTransparent), g.vram.Get(x, y), c)
	}
	if g.forceMaskBit {
		c |= 0x8000
	}
	g.vram.Set(x, y, c)
}

// sampleTexture fetches one texel through the current texpage and the
// primitive's CLUT address; texel value 0 is transparent in indexed modes.
// clutX/clutY are the VRAM halfword coordinates of the palette's first
// entry, decoded from the first vertex's UV word by clutAddr.
func (g *GPU) sampleTexture(u, v uint8, clutX, clutY int32) (uint16, bool) {
	baseX := int32(g.texPageX * 64)
	baseY := int32(g.texPageY * 256)

	switch g.texPageColors {
	case 0: // 4-bit CLUT
		texX := baseX + int32(u)/4
		raw := g.vram.Get(texX, baseY+int32(v))
		shift := (u % 4) * 4
		idx := (raw >> shift) & 0xF
		if idx == 0 {
			return 0, false
		}
		return g.vram.Get(clutX+int32(idx), clutY), true
	case 1: // 8-bit CLUT
		texX := baseX + int32(u)/2
		raw := g.vram.Get(texX, baseY+int32(v))
		shift := (u % 2) * 8
		idx := (raw >> shift) & 0xFF
		if idx == 0 {
			return 0, false
		}
		return g.vram.Get(clutX+int32(idx), clutY), true
	default: // 15-bit direct
		texel := g.vram.Get(baseX+int32(u), baseY+int32(v))
		if texel == 0 {
			return 0, false
		}
		return texel, true
	}
}

type linePoint struct {
	x, y    int32
	r, g, b uint8
}

// drawLine implements GP0(0x40-0x5F): Bresenham walker, flat or Gouraud,
// over a (possibly polyline-terminated) sequence of vertices.
func (g *GPU) drawLine() {
	op := g.pending.opcode
	gouraud := op&0x10 != 0
	semiTransparent := op&0x02 != 0
	words := g.pending.words

	var pts []linePoint
	idx := 0
	r, gr, b := colorFromWord(words[idx])
	idx++
	for idx < len(words) {
		x, y := vertexFromWord(words[idx])
		idx++
		pts = append(pts, linePoint{x, y, r, gr, b})
		if gouraud && idx < len(words) {
			r, gr, b = colorFromWord(words[idx])
			idx++
		}
	}

	for i := 0; i+1 < len(pts); i++ {
		g.bresenham(pts[i], pts[i+1], semiTransparent)
	}
}

func (g *GPU) bresenham(a, b linePoint, semiTransparent bool) {
	dx := abs32(b.x - a.x)
	dy := -abs32(b.y - a.y)
	sx, sy := int32(1), int32(1)
	if a.x > b.x {
		sx = -1
	}
	if a.y > b.y {
		sy = -1
	}
	err := dx + dy

	steps := maxI32(abs32(b.x-a.x), abs32(b.y-a.y))
	if steps == 0 {
		steps = 1
	}

	x, y := a.x, a.y
	for i := int32(0); ; i++ {
		t := float64(i) / float64(steps)
		r := uint8(clampF(float64(a.r)+t*(float64(b.r)-float64(a.r)), 0, 255))
		gr := uint8(clampF(float64(a.g)+t*(float64(b.g)-float64(a.g)), 0, 255))
		bl := uint8(clampF(float64(a.b)+t*(float64(b.b)-float64(a.b)), 0, 255))
		g.plot(x+g.drawOffsetX, y+g.drawOffsetY, compressColorDepth(r, gr, bl), semiTransparent)

		if x == b.x && y == b.y {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// rectSize returns the pixel width/height of a GP0 rectangle command,
// resolving the fixed 1x1/8x8/16x16 sizes the opcode's bits 3..4 select.
func (g *GPU) rectSize() (w, h int32) {
	op := g.pending.opcode
	switch (op >> 3) & 3 {
	case 1:
		return 1, 1
	case 2:
		return 8, 8
	case 3:
		return 16, 16
	default:
		ww := int32(g.pending.headerlessWord(2) & 0xFFFF)
		hh := int32(g.pending.headerlessWord(2) >> 16)
		if ww == 0 {
			ww = 1024
		}
		if hh == 0 {
			hh = 512
		}
		return ww, hh
	}
}

// drawRect implements GP0(0x60-0x7F): flat or textured sprites of fixed or
// variable size.
func (g *GPU) drawRect() {
	op := g.pending.opcode
	textured := op&0x04 != 0
	semiTransparent := op&0x02 != 0

	r, gr, b := colorFromWord(g.pending.words[0])
	x0, y0 := vertexFromWord(g.pending.headerlessWord(1))

	var u0, v0 uint8
	var clutX, clutY int32
	if textured {
		uvWordIdx := 2
		if (op>>3)&3 == 0 {
			uvWordIdx = 3 // variable size: vertex, size, uv
		}
		uv := g.pending.headerlessWord(uvWordIdx)
		u0, v0 = uint8(uv), uint8(uv>>8)
		clutX, clutY = clutAddr(uv)
	}

	w, h := g.rectSize()
	color := compressColorDepth(r, gr, b)

	for row := int32(0); row < h; row++ {
		for col := int32(0); col < w; col++ {
			var final uint16
			blendable := true
			if textured {
				texel, ok := g.sampleTexture(u0+uint8(col), v0+uint8(row), clutX, clutY)
				if !ok {
					continue
				}
				final = modulate(texel, r, gr, b)
				blendable = final&0x8000 != 0
			} else {
				final = color
			}
			g.plot(x0+col+g.drawOffsetX, y0+row+g.drawOffsetY, final, semiTransparent && blendable)
		}
	}
}

// copyVRAMToVRAM implements GP0(0x80-0x9F): a one-shot row-major memcpy with
// wraparound, per spec.md §4.11.
func (g *GPU) copyVRAMToVRAM() {
	sx, sy := vertexFromWord(g.pending.headerlessWord(1))
	dx, dy := vertexFromWord(g.pending.headerlessWord(2))
	w := int32(g.pending.headerlessWord(3) & 0xFFFF)
	h := int32(g.pending.headerlessWord(3) >> 16)
	if w == 0 {
		w = 1024
	}
	if h == 0 {
		h = 512
	}
	for row := int32(0); row < h; row++ {
		for col := int32(0); col < w; col++ {
			g.vram.Set(dx+col, dy+row, g.vram.Get(sx+col, sy+row))
		}
	}
}

func (g *GPU) beginBlitIn() {
	x, y := vertexFromWord(g.pending.headerlessWord(1))
	w := g.pending.headerlessWord(2) & 0xFFFF
	h := g.pending.headerlessWord(2) >> 16
	if w == 0 {
		w = 1024
	}
	if h == 0 {
		h = 512
	}
	g.blitX, g.blitY, g.blitW, g.blitH = uint32(x), uint32(y), w, h
	g.blitCol, g.blitRow = 0, 0
	g.st = stateReceivingData
}

func (g *GPU) beginBlitOut() {
	x, y := vertexFromWord(g.pending.headerlessWord(1))
	w := g.pending.headerlessWord(2) & 0xFFFF
	h := g.pending.headerlessWord(2) >> 16
	if w == 0 {
		w = 1024
	}
	if h == 0 {
		h = 512
	}
	g.blitX, g.blitY, g.blitW, g.blitH = uint32(x), uint32(y), w, h
	g.blitCol, g.blitRow = 0, 0
	g.readyToSendVRAM = true
	g.st = stateSendingData
}

func (g *GPU) writeBlitWord(word uint32) {
	g.writeBlitHalfword(uint16(word))
	g.writeBlitHalfword(uint16(word >> 16))
}

func (g *GPU) writeBlitHalfword(h uint16) {
	if g.st != stateReceivingData {
		return
	}
	px := int32(g.blitX + g.blitCol)
	py := int32(g.blitY + g.blitRow)
	g.vram.Set(px, py, h)
	g.advanceBlitCursor()
}

func (g *GPU) readBlitHalfword() uint16 {
	if g.st != stateSendingData {
		return 0
	}
	px := int32(g.blitX + g.blitCol)
	py := int32(g.blitY + g.blitRow)
	v := g.vram.Get(px, py)
	g.advanceBlitCursor()
	return v
}

func (g *GPU) advanceBlitCursor() {
	g.blitCol++
	if g.blitCol >= g.blitW {
		g.blitCol = 0
		g.blitRow++
		if g.blitRow >= g.blitH {
			g.blitRow = 0
			g.readyToSendVRAM = false
			g.st = stateCommandStart
		}
	}
}
