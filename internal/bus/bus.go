// Package bus implements the address decoder: it routes the CPU's byte/
// half/word accesses to RAM, the BIOS image, the scratchpad, and each
// device's register file, and exposes the shared "DMA running" stall
// signal. Grounded on jeebie/memory/mem.go's byte-keyed region-map idiom
// (generalized here to 32-bit physical addresses) and on
// _examples/original_source/src/bus/interface.rs for the exact address
// ranges and the KUSEG/KSEG0/KSEG1/KSEG2 region mask table.
package bus

import (
	"fmt"

	"github.com/rook-emu/psxcore/internal/cdrom"
	"github.com/rook-emu/psxcore/internal/dma"
	"github.com/rook-emu/psxcore/internal/gpu"
	"github.com/rook-emu/psxcore/internal/irq"
	"github.com/rook-emu/psxcore/internal/memory"
	"github.com/rook-emu/psxcore/internal/peripheral"
	"github.com/rook-emu/psxcore/internal/timer"
)

// Physical address ranges, per spec.md §4.4.
const (
	dramStart  = 0x00000000
	dramEnd    = 0x00800000 // 2 MiB mirrored to fill 8 MiB
	exp1Start  = 0x1F000000
	exp1End    = 0x1F080000
	scratchpadStart = 0x1F800000
	scratchpadEnd   = 0x1F800400
	memCtrlStart    = 0x1F801000
	memCtrlEnd      = 0x1F801024
	peripheralStart = 0x1F801040
	peripheralEnd   = 0x1F801060
	memCtrl2Start   = 0x1F801060
	memCtrl2End     = 0x1F801064
	irqStart  = 0x1F801070
	irqEnd    = 0x1F801078
	dmaStart  = 0x1F801080
	dmaEnd    = 0x1F801100
	timerStart = 0x1F801100
	timerEnd   = 0x1F801130
	cdromStart = 0x1F801800
	cdromEnd   = 0x1F801804
	gpuStart   = 0x1F801810
	gpuEnd     = 0x1F801818
	spuStart   = 0x1F801C00
	spuEnd     = 0x1F801E80
	exp2Start  = 0x1F802000
	exp2End    = 0x1F802042
	biosStart  = 0x1FC00000
	biosEnd    = 0x1FC80000
	cacheCtrlStart = 0xFFFE0130
)

// regionMask implements KUSEG/KSEG0/KSEG1/KSEG2 address-region masking: the
// top 3 bits of a 32-bit address select a region, each with its own mask
// applied to the rest.
var regionMask = [8]uint32{
	0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, // KUSEG: 2048 MiB
	0x7FFFFFFF, // KSEG0: 512 MiB
	0x1FFFFFFF, // KSEG1: 512 MiB
	0xFFFFFFFF, 0xFFFFFFFF, // KSEG2: 1024 MiB
}

func maskRegion(addr uint32) uint32 {
	return addr & regionMask[addr>>29]
}

// Bus owns every memory and device the CPU and DMA engine can reach.
type Bus struct {
	ram        *memory.Buffer
	bios       *memory.Buffer
	scratchpad *memory.Buffer

	irq        *irq.Controller
	dma        *dma.Controller
	timer      *timer.Bank
	cdrom      *cdrom.Controller
	gpu        *gpu.GPU
	peripheral *peripheral.SIO0
}

// New wires a bus out of the given BIOS image, a RAM buffer shared with the
// DMA engine (so both see the same bytes), and the device controllers;
// callers construct ram/timer/dma/cdrom/gpu/irq/peripheral first so their
// IRQHandler callbacks can be set before or after New runs.
func New(biosImage []byte, ram *memory.Buffer, irqCtrl *irq.Controller, dmaCtrl *dma.Controller, timerBank *timer.Bank, cdromCtrl *cdrom.Controller, gpuUnit *gpu.GPU, sio0 *peripheral.SIO0) *Bus {
	return &Bus{
		ram:        ram,
		bios:       memory.NewBufferFromBytes("BIOS", biosImage),
		scratchpad: memory.NewBuffer("scratchpad", 0x400),
		irq:        irqCtrl,
		dma:        dmaCtrl,
		timer:      timerBank,
		cdrom:      cdromCtrl,
		gpu:        gpuUnit,
		peripheral: sio0,
	}
}

// RAM exposes main memory for disk/side-load bulk copies and DMA wiring.
func (b *Bus) RAM() *memory.Buffer { return b.ram }

// DMAActive implements cpu.Bus: the CPU stalls while a DMA channel is
// actively transferring.
func (b *Bus) DMAActive() bool { return b.dma.Running() }

// Read32 implements cpu.Bus.
func (b *Bus) Read32(addr uint32) uint32 {
	a := maskRegion(addr)
	switch {
	case a < dramEnd:
		return b.ram.Read32(a & (memory.RAMSize - 1))
	case a >= scratchpadStart && a < scratchpadEnd:
		return b.scratchpad.Read32(a - scratchpadStart)
	case a >= biosStart && a < biosEnd:
		return b.bios.Read32(a - biosStart)
	case a >= memCtrlStart && a < memCtrlEnd, a >= peripheralStart && a < peripheralEnd, a >= memCtrl2Start && a < memCtrl2End:
		return 0
	case a >= irqStart && a < irqEnd:
		return b.readIRQ(a - irqStart)
	case a >= dmaStart && a < dmaEnd:
		return b.readDMA(a - dmaStart)
	case a >= timerStart && a < timerEnd:
		return uint32(b.readTimer(a - timerStart))
	case a >= cdromStart && a < cdromEnd:
		return uint32(b.cdromByte(a - cdromStart))
	case a >= gpuStart && a < gpuEnd:
		return b.readGPU(a - gpuStart)
	case a >= spuStart && a < spuEnd, a >= exp2Start && a < exp2End:
		return 0
	case a >= cacheCtrlStart:
		return 0
	default:
		panic(fmt.Sprintf("bus: Read32 at unmapped address 0x%08X", addr))
	}
}

// Write32 implements cpu.Bus.
func (b *Bus) Write32(addr uint32, value uint32) {
	a := maskRegion(addr)
	switch {
	case a < dramEnd:
		b.ram.Write32(a&(memory.RAMSize-1), value)
	case a >= scratchpadStart && a < scratchpadEnd:
		b.scratchpad.Write32(a-scratchpadStart, value)
	case a >= memCtrlStart && a < memCtrlEnd, a >= peripheralStart && a < peripheralEnd, a >= memCtrl2Start && a < memCtrl2End:
	case a >= irqStart && a < irqEnd:
		b.writeIRQ(a-irqStart, value)
	case a >= dmaStart && a < dmaEnd:
		b.writeDMA(a-dmaStart, value)
	case a >= timerStart && a < timerEnd:
		b.writeTimer(a-timerStart, uint16(value))
	case a >= cdromStart && a < cdromEnd:
		b.cdrom.WriteRegister(a-cdromStart, uint8(value))
	case a >= gpuStart && a < gpuEnd:
		b.writeGPU(a-gpuStart, value)
	case a >= spuStart && a < spuEnd, a >= exp2Start && a < exp2End:
	case a >= cacheCtrlStart:
	default:
		panic(fmt.Sprintf("bus: Write32 at unmapped address 0x%08X value 0x%08X", addr, value))
	}
}

// Read16 implements cpu.Bus.
func (b *Bus) Read16(addr uint32) uint16 {
	a := maskRegion(addr)
	switch {
	case a < dramEnd:
		return b.ram.Read16(a & (memory.RAMSize - 1))
	case a >= scratchpadStart && a < scratchpadEnd:
		return b.scratchpad.Read16(a - scratchpadStart)
	case a >= biosStart && a < biosEnd:
		return b.bios.Read16(a - biosStart)
	case a >= memCtrlStart && a < memCtrlEnd, a >= peripheralStart && a < peripheralEnd:
		return 0
	case a >= timerStart && a < timerEnd:
		return b.readTimer(a - timerStart)
	case a >= irqStart && a < irqEnd:
		return uint16(b.readIRQ(a - irqStart))
	case a >= cdromStart && a < cdromEnd:
		return uint16(b.cdromByte(a - cdromStart))
	case a >= gpuStart && a < gpuEnd:
		return uint16(b.readGPU(a - gpuStart))
	case a >= spuStart && a < spuEnd:
		return 0
	default:
		panic(fmt.Sprintf("bus: Read16 at unmapped address 0x%08X", addr))
	}
}

// Write16 implements cpu.Bus.
func (b *Bus) Write16(addr uint32, value uint16) {
	a := maskRegion(addr)
	switch {
	case a < dramEnd:
		b.ram.Write16(a&(memory.RAMSize-1), value)
	case a >= scratchpadStart && a < scratchpadEnd:
		b.scratchpad.Write16(a-scratchpadStart, value)
	case a >= memCtrlStart && a < memCtrlEnd, a >= peripheralStart && a < peripheralEnd:
	case a >= timerStart && a < timerEnd:
		b.writeTimer(a-timerStart, value)
	case a >= irqStart && a < irqEnd:
		b.writeIRQ(a-irqStart, uint32(value))
	case a >= cdromStart && a < cdromEnd:
		b.cdrom.WriteRegister(a-cdromStart, uint8(value))
	case a >= spuStart && a < spuEnd:
	default:
		panic(fmt.Sprintf("bus: Write16 at unmapped address 0x%08X value 0x%04X", addr, value))
	}
}

// Read8 implements cpu.Bus.
func (b *Bus) Read8(addr uint32) uint8 {
	a := maskRegion(addr)
	switch {
	case a < dramEnd:
		return b.ram.Read8(a & (memory.RAMSize - 1))
	case a >= scratchpadStart && a < scratchpadEnd:
		return b.scratchpad.Read8(a - scratchpadStart)
	case a >= exp1Start && a < exp1End:
		return 0xFF
	case a >= biosStart && a < biosEnd:
		return b.bios.Read8(a - biosStart)
	case a >= memCtrlStart && a < memCtrlEnd, a >= peripheralStart && a < peripheralEnd:
		return b.readPeripheral(a)
	case a >= cdromStart && a < cdromEnd:
		return b.cdromByte(a - cdromStart)
	case a >= spuStart && a < spuEnd:
		return 0
	default:
		panic(fmt.Sprintf("bus: Read8 at unmapped address 0x%08X", addr))
	}
}

// Write8 implements cpu.Bus.
func (b *Bus) Write8(addr uint32, value uint8) {
	a := maskRegion(addr)
	switch {
	case a < dramEnd:
		b.ram.Write8(a&(memory.RAMSize-1), value)
	case a >= scratchpadStart && a < scratchpadEnd:
		b.scratchpad.Write8(a-scratchpadStart, value)
	case a >= memCtrlStart && a < memCtrlEnd, a >= peripheralStart && a < peripheralEnd:
		b.writePeripheral(a, value)
	case a >= cdromStart && a < cdromEnd:
		b.cdrom.WriteRegister(a-cdromStart, value)
	case a >= spuStart && a < spuEnd, a >= exp2Start && a < exp2End:
	default:
		panic(fmt.Sprintf("bus: Write8 at unmapped address 0x%08X value 0x%02X", addr, value))
	}
}

func (b *Bus) readPeripheral(a uint32) uint8 {
	if b.peripheral == nil || a < peripheralStart || a >= peripheralEnd {
		return 0
	}
	return b.peripheral.Read8(a - peripheralStart)
}

func (b *Bus) writePeripheral(a uint32, value uint8) {
	if b.peripheral == nil || a < peripheralStart || a >= peripheralEnd {
		return
	}
	b.peripheral.Write8(a-peripheralStart, value)
}

func (b *Bus) cdromByte(offset uint32) uint8 {
	return b.cdrom.ReadRegister(offset)
}

func (b *Bus) readIRQ(offset uint32) uint32 {
	switch offset {
	case 0:
		return b.irq.Status()
	case 4:
		return b.irq.Mask()
	default:
		return 0
	}
}

func (b *Bus) writeIRQ(offset uint32, value uint32) {
	switch offset {
	case 0:
		b.irq.Acknowledge(value)
	case 4:
		b.irq.SetMask(value)
	}
}

func (b *Bus) readDMA(offset uint32) uint32 {
	if offset == 0x70 {
		return b.dma.Priority()
	}
	if offset == 0x74 {
		return b.dma.IRQRegister()
	}
	idx, reg := int(offset/0x10), int((offset%0x10)/4)
	if idx >= 7 {
		return 0
	}
	return b.dma.ReadChannel(idx, reg)
}

func (b *Bus) writeDMA(offset uint32, value uint32) {
	if offset == 0x70 {
		b.dma.SetPriority(value)
		return
	}
	if offset == 0x74 {
		b.dma.SetIRQRegister(value)
		return
	}
	idx, reg := int(offset/0x10), int((offset%0x10)/4)
	if idx >= 7 {
		return
	}
	b.dma.WriteChannel(idx, reg, value)
}

func (b *Bus) readTimer(offset uint32) uint16 {
	idx := timer.Index(offset / 0x10)
	if int(idx) >= len(b.timer.Units) {
		return 0
	}
	u := b.timer.Units[idx]
	switch (offset % 0x10) / 4 {
	case 0:
		return u.ReadCounter()
	case 1:
		return u.ReadMode()
	case 2:
		return u.ReadTarget()
	default:
		return 0
	}
}

func (b *Bus) writeTimer(offset uint32, value uint16) {
	idx := timer.Index(offset / 0x10)
	if int(idx) >= len(b.timer.Units) {
		return
	}
	u := b.timer.Units[idx]
	switch (offset % 0x10) / 4 {
	case 0:
		u.WriteCounter(value)
	case 1:
		u.WriteMode(value)
	case 2:
		u.WriteTarget(value)
	}
}

func (b *Bus) readGPU(offset uint32) uint32 {
	switch offset {
	case 0:
		return b.gpu.ReadGP0()
	case 4:
		return b.gpu.ReadGPUSTAT()
	default:
		return 0
	}
}

func (b *Bus) writeGPU(offset uint32, value uint32) {
	switch offset {
	case 0:
		b.gpu.WriteGP0(value)
	case 4:
		b.gpu.WriteGP1(value)
	}
}
