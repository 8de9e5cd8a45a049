package gpu

// VRAM is the GPU's private 1024x512 halfword-addressed framebuffer memory,
// linearly addressed as 2*(y*1024+x) bytes, per spec.md §4.10.
type VRAM struct {
	data [1024 * 512]uint16
}

const (
	vramWidth  = 1024
	vramHeight = 512
)

func wrapX(x int32) uint32 { return uint32(x) & (vramWidth - 1) }
func wrapY(y int32) uint32 { return uint32(y) & (vramHeight - 1) }

// Get reads one halfword pixel, wrapping both coordinates.
func (v *VRAM) Get(x, y int32) uint16 {
	return v.data[wrapY(y)*vramWidth+wrapX(x)]
}

// Set writes one halfword pixel, wrapping both coordinates.
func (v *VRAM) Set(x, y int32, c uint16) {
	v.data[wrapY(y)*vramWidth+wrapX(x)] = c
}

// depthLUT decodes a 5-bit channel to 8-bit, per spec.md §4.10's fixed
// 32-entry table.
var depthLUT = buildDepthLUT()

func buildDepthLUT() [32]uint8 {
	var t [32]uint8
	for i := range t {
		t[i] = uint8((i*255 + 15) / 31)
	}
	return t
}

// compressColorDepth packs a 24-bit RGB color into the GPU's native 15-bit
// BGR5 format (mask bit 15 cleared), per spec.md §4.10.
func compressColorDepth(r, g, b uint8) uint16 {
	return uint16(r>>3) | uint16(g>>3)<<5 | uint16(b>>3)<<10
}

func decodeColor(c uint16) (r, g, b uint8) {
	return depthLUT[c&0x1F], depthLUT[(c>>5)&0x1F], depthLUT[(c>>10)&0x1F]
}

// ditherMatrix is the 4x4 signed dither pattern applied per channel when
// GPUSTAT.dither_24bit_to_15bit is set.
var ditherMatrix = [4][4]int8{
	{-4, 0, -3, 1},
	{2, -2, 3, -1},
	{-3, 1, -4, 0},
	{3, -1, 2, -2},
}

func ditherChannel(v int32, x, y int32) uint8 {
	d := int32(ditherMatrix[y&3][x&3])
	v += d
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

// SemiTransMode selects one of the four blend equations GPUSTAT's
// semi-transparency field programs.
type SemiTransMode uint8

const (
	SemiTransHalf   SemiTransMode = 0 // (B+F)/2
	SemiTransAdd    SemiTransMode = 1 // B+F
	SemiTransSub    SemiTransMode = 2 // B-F
	SemiTransAddQtr SemiTransMode = 3 // B+F/4
)

func blend(mode SemiTransMode, back, fore uint16) uint16 {
	br, bg, bb := decodeColor(back)
	fr, fg, fb := decodeColor(fore)
	mix := func(b, f uint8) uint8 {
		var v int32
		switch mode {
		case SemiTransHalf:
			v = (int32(b) + int32(f)) / 2
		case SemiTransAdd:
			v = int32(b) + int32(f)
		case SemiTransSub:
			v = int32(b) - int32(f)
		case SemiTransAddQtr:
			v = int32(b) + int32(f)/4
		}
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		return uint8(v)
	}
	r, g, b := mix(br, fr), mix(bg, fg), mix(bb, fb)
	return compressColorDepth(r, g, b) | (back & 0x8000)
}

// RenderRGB24 produces an on-demand RGB24 framebuffer decode of the visible
// display area, per spec.md §6's "render_vram" external interface.
func (g *GPU) RenderRGB24(width, height int) []byte {
	out := make([]byte, width*height*3)
	startX, startY := int32(g.displayX), int32(g.displayY)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := g.vram.Get(startX+int32(x), startY+int32(y))
			r, gr, b := decodeColor(c)
			i := (y*width + x) * 3
			out[i], out[i+1], out[i+2] = r, gr, b
		}
	}
	return out
}
