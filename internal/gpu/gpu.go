// Package gpu implements the GP0/GP1 command processor, the software
// rasterizer, and the VRAM model. Grounded on jeebie/video/gpu.go's
// mode/Tick state-machine idiom (generalized from the Game Boy's fixed
// scanline timer to the PS1's command-FIFO state machine) and on
// _examples/original_source/src/gpu/*.rs for the command set and frame
// timing constant.
package gpu

import (
	"log/slog"

	"github.com/rook-emu/psxcore/internal/bit"
	"github.com/rook-emu/psxcore/internal/dma"
)

type state int

const (
	stateCommandStart state = iota
	stateReceivingParameters
	stateReceivingPolyline
	stateReceivingData
	stateSendingData
)

// pendingCommand describes a polygon/line/rect/blit command being
// assembled out of successive GP0 words.
type pendingCommand struct {
	opcode   uint32
	words    []uint32
	expected int
	gouraud  bool
	textured bool
}

// GPU is the command processor plus its attached VRAM and display state.
type GPU struct {
	vram VRAM

	st      state
	pending pendingCommand

	// Drawing environment, programmed by 0xE1..0xE6.
	texPageX, texPageY     uint32
	texPageColors          uint32
	texPageSemiTransparent uint32
	texWindowMaskX         uint32
	texWindowMaskY         uint32
	texWindowOffX          uint32
	texWindowOffY          uint32
	drawAreaX1, drawAreaY1 int32
	drawAreaX2, drawAreaY2 int32
	drawOffsetX, drawOffsetY int32
	forceMaskBit           bool
	checkMaskBit           bool
	ditherEnabled          bool

	// Display state, programmed by GP1.
	displayEnabled bool
	dmaDirection   uint32
	displayX, displayY int32
	hRangeStart, hRangeEnd uint32
	vRangeStart, vRangeEnd uint32
	videoMode      uint32 // 0=NTSC 1=PAL
	colorDepth24   bool
	interlace      bool
	horizRes       uint32 // GPUSTAT horizontal_resolution_1 (bits 17..18)
	horizRes2      uint32 // GPUSTAT horizontal_resolution_2 (bit 16, the 368px mode flag)
	vertRes        uint32

	irqRequested bool
	evenOddFrame bool
	frameCycles  uint32

	// CPU<->VRAM blit in-flight state.
	blitX, blitY, blitW, blitH     uint32
	blitCol, blitRow               uint32
	readyToSendVRAM                bool
	lastInternalRead               uint32

	// IRQHandler requests the GPU interrupt line (GP1 command 0x1F / E-series
	// IRQ trigger).
	IRQHandler func()
}

// New returns a GPU with VRAM zeroed and the display off, as at cold boot.
func New() *GPU {
	return &GPU{frameCycles: 0}
}

const framesCyclesPerFrame = 566203

// Tick advances the frame timing counter; at wraparound it toggles the
// even/odd field and requests VBLANK, per spec.md §4.11's frame-timing note.
func (g *GPU) Tick(vblankHandler func()) {
	g.frameCycles++
	if g.frameCycles >= framesCyclesPerFrame {
		g.frameCycles = 0
		g.evenOddFrame = !g.evenOddFrame
		if vblankHandler != nil {
			vblankHandler()
		}
	}
}

// TransferWord implements dma.Port: DMA channel 2 writes consumed words
// into GP0, reads pull words out of the in-flight VRAM->CPU blit.
func (g *GPU) TransferWord(dir dma.Direction, word uint32) uint32 {
	if dir == dma.ToDevice {
		g.WriteGP0(word)
		return 0
	}
	return g.ReadGP0()
}

// WriteGP0 feeds one 32-bit word into the command processor.
func (g *GPU) WriteGP0(word uint32) {
	switch g.st {
	case stateCommandStart:
		g.classify(word)
	case stateReceivingParameters:
		g.pending.words = append(g.pending.words, word)
		if len(g.pending.words) >= g.pending.expected {
			g.st = stateCommandStart
			g.dispatch()
		}
	case stateReceivingPolyline:
		if word == 0x50005000 || word == 0x55555555 {
			g.drawLine()
			g.st = stateCommandStart
			return
		}
		g.pending.words = append(g.pending.words, word)
	case stateReceivingData:
		g.writeBlitWord(word)
	default:
	}
}

// ReadGP0 pulls one packed word from an in-flight VRAM->CPU blit.
func (g *GPU) ReadGP0() uint32 {
	if g.st != stateSendingData {
		return 0
	}
	lo := g.readBlitHalfword()
	hi := g.readBlitHalfword()
	return uint32(lo) | uint32(hi)<<16
}

func (g *GPU) classify(word uint32) {
	top3 := word >> 29
	topByte := word >> 24

	switch {
	case topByte == 0x00:
		return // NOP
	case topByte == 0x01:
		return // clear cache, no VRAM effect modeled
	case topByte == 0x02:
		g.startFixedParams(word, 2, false, false) // fill rectangle in VRAM
		return
	case topByte == 0x1F:
		g.irqRequested = true
		if g.IRQHandler != nil {
			g.IRQHandler()
		}
		return
	case topByte >= 0xE1 && topByte <= 0xE6:
		g.envCommand(word)
		return
	case topByte >= 0x80 && topByte <= 0x9F:
		g.startFixedParams(word, 3, false, false) // VRAM->VRAM copy: src, dst, size
		return
	case topByte >= 0xA0 && topByte <= 0xBF:
		g.startFixedParams(word, 2, false, false) // CPU->VRAM blit: dst, size
		return
	case topByte >= 0xC0 && topByte <= 0xDF:
		g.startFixedParams(word, 2, false, false) // VRAM->CPU blit: dst, size
		return
	}

	switch top3 {
	case 1:
		g.startPolygon(word)
	case 2:
		g.startLine(word)
	case 3:
		g.startRect(word)
	default:
		slog.Warn("unhandled GP0 command", "word", word)
	}
}

func (g *GPU) startFixedParams(word uint32, n int, gouraud, textured bool) {
	g.pending = pendingCommand{opcode: (word >> 24) & 0xFF, expected: n + 1, gouraud: gouraud, textured: textured}
	g.pending.words = append(g.pending.words, word)
	g.st = stateReceivingParameters
	if n == 0 {
		g.dispatch()
		g.st = stateCommandStart
	}
}

func (g *GPU) startPolygon(word uint32) {
	gouraud := word&(1<<28) != 0
	quad := word&(1<<27) != 0
	textured := word&(1<<26) != 0

	verts := 3
	if quad {
		verts = 4
	}
	n := verts // one coordinate word per vertex, none bundled into the header
	if gouraud {
		n += verts - 1 // extra color word per vertex after the first (its color is the header)
	}
	if textured {
		n += verts // UV word per vertex
	}
	g.pending = pendingCommand{opcode: (word >> 24) & 0xFF, expected: n + 1, gouraud: gouraud, textured: textured}
	g.pending.words = append(g.pending.words, word)
	g.st = stateReceivingParameters
}

func (g *GPU) startLine(word uint32) {
	gouraud := word&(1<<28) != 0
	polyline := word&(1<<27) != 0
	g.pending = pendingCommand{opcode: (word >> 24) & 0xFF, gouraud: gouraud}
	g.pending.words = append(g.pending.words, word)
	if polyline {
		g.st = stateReceivingPolyline
		return
	}
	n := 2
	if gouraud {
		n = 3
	}
	g.pending.expected = n + 1
	g.st = stateReceivingParameters
}

func (g *GPU) startRect(word uint32) {
	textured := word&(1<<26) != 0
	sizeMode := (word >> 27) & 3
	n := 1 // vertex
	if sizeMode == 0 {
		n++ // explicit w/h word
	}
	if textured {
		n++ // UV (+ CLUT) word
	}
	g.pending = pendingCommand{opcode: (word >> 24) & 0xFF, expected: n + 1, textured: textured}
	g.pending.words = append(g.pending.words, word)
	g.st = stateReceivingParameters
}

func (g *GPU) envCommand(word uint32) {
	switch word >> 24 {
	case 0xE1:
		g.texPageX = word & 0xF
		g.texPageY = (word >> 4) & 1
		g.texPageSemiTransparent = (word >> 5) & 3
		g.texPageColors = (word >> 7) & 3
		g.ditherEnabled = word&(1<<9) != 0
	case 0xE2:
		g.texWindowMaskX = word & 0x1F
		g.texWindowMaskY = (word >> 5) & 0x1F
		g.texWindowOffX = (word >> 10) & 0x1F
		g.texWindowOffY = (word >> 15) & 0x1F
	case 0xE3:
		g.drawAreaX1 = int32(word & 0x3FF)
		g.drawAreaY1 = int32((word >> 10) & 0x1FF)
	case 0xE4:
		g.drawAreaX2 = int32(word & 0x3FF)
		g.drawAreaY2 = int32((word >> 10) & 0x1FF)
	case 0xE5:
		g.drawOffsetX = signExtend11(word & 0x7FF)
		g.drawOffsetY = signExtend11((word >> 11) & 0x7FF)
	case 0xE6:
		g.checkMaskBit = word&1 != 0
		g.forceMaskBit = word&2 != 0
	}
}

func signExtend11(v uint32) int32 {
	return bit.SignExtend(v, 11)
}

// WriteGP1 handles the display-control port (separate from the GP0 FIFO).
func (g *GPU) WriteGP1(word uint32) {
	switch word >> 24 {
	case 0x00:
		*g = GPU{IRQHandler: g.IRQHandler}
	case 0x01:
		g.st = stateCommandStart
	case 0x02:
		g.irqRequested = false
	case 0x03:
		g.displayEnabled = word&1 == 0
	case 0x04:
		g.dmaDirection = word & 3
	case 0x05:
		g.displayX = int32(word & 0x3FF)
		g.displayY = int32((word >> 10) & 0x1FF)
	case 0x06:
		g.hRangeStart = word & 0xFFF
		g.hRangeEnd = (word >> 12) & 0xFFF
	case 0x07:
		g.vRangeStart = word & 0x3FF
		g.vRangeEnd = (word >> 10) & 0x3FF
	case 0x08:
		g.horizRes = word & 0x3
		g.videoMode = (word >> 3) & 1
		g.colorDepth24 = word&(1<<4) != 0
		g.interlace = word&(1<<5) != 0
		g.vertRes = (word >> 2) & 1
	default:
		if word>>24 >= 0x10 && word>>24 <= 0x1F {
			g.lastInternalRead = g.readInternalRegister(uint8((word >> 24) & 0xF))
		}
	}
}

// readInternalRegister implements GP1(0x10..0x1F): read-back of the
// currently programmed environment registers, per spec.md §4.9.
func (g *GPU) readInternalRegister(sub uint8) uint32 {
	switch sub {
	case 0, 1:
		v := g.texPageX | g.texPageY<<4 | g.texPageSemiTransparent<<5 | g.texPageColors<<7
		if g.ditherEnabled {
			v |= 1 << 9
		}
		return v
	case 2:
		return g.texWindowMaskX | g.texWindowMaskY<<5 | g.texWindowOffX<<10 | g.texWindowOffY<<15
	case 3:
		return uint32(g.drawAreaX1) | uint32(g.drawAreaY1)<<10
	case 4:
		return uint32(g.drawAreaX2) | uint32(g.drawAreaY2)<<10
	case 5:
		return (uint32(g.drawOffsetX) & 0x7FF) | ((uint32(g.drawOffsetY) & 0x7FF) << 11)
	default:
		return g.lastInternalRead
	}
}

// LastInternalRead returns the GP1(0x10..0x1F) readback value most recently
// latched. ReadGP0 does not return this value; it only serves VRAM->CPU
// blits.
func (g *GPU) LastInternalRead() uint32 { return g.lastInternalRead }

// ReadGPUSTAT builds the status word read at 0x1F801814.
func (g *GPU) ReadGPUSTAT() uint32 {
	var s uint32
	s |= g.texPageX
	s |= g.texPageY << 4
	s |= g.texPageSemiTransparent << 5
	s |= g.texPageColors << 7
	if g.ditherEnabled {
		s |= 1 << 9
	}
	if g.interlace {
		s |= 1 << 13
	}
	if g.colorDepth24 {
		s |= 1 << 21 // display_area_color_depth
	}
	s |= g.videoMode << 20
	s |= g.vertRes << 19
	s |= g.horizRes << 17  // horizontal_resolution_1
	s |= g.horizRes2 << 16 // horizontal_resolution_2
	if !g.displayEnabled {
		s |= 1 << 23
	}
	if g.irqRequested {
		s |= 1 << 24
	}
	s |= g.dmaDirection << 29
	s |= 1 << 26 // ready to receive GP0 command
	s |= 1 << 27 // ready to send VRAM to CPU (simplified: always ready)
	s |= 1 << 28 // ready to receive DMA block
	if g.readyToSendVRAM {
		s |= 1 << 27
	}
	if g.evenOddFrame {
		s |= 1 << 31
	}
	return s
}
