package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-emu/psxcore/internal/cdrom"
	"github.com/rook-emu/psxcore/internal/dma"
	"github.com/rook-emu/psxcore/internal/gpu"
	"github.com/rook-emu/psxcore/internal/irq"
	"github.com/rook-emu/psxcore/internal/memory"
	"github.com/rook-emu/psxcore/internal/pad"
	"github.com/rook-emu/psxcore/internal/peripheral"
	"github.com/rook-emu/psxcore/internal/timer"
)

type noopCop0 struct{}

func (noopCop0) RequestInterrupt() {}
func (noopCop0) ClearInterrupt()   {}

func newTestBus() *Bus {
	ram := memory.NewBuffer("RAM", memory.RAMSize)
	irqCtrl := irq.New(noopCop0{})
	gpuUnit := gpu.New()
	dmaCtrl := dma.New(ram, gpuUnit)
	timerBank := timer.New()
	cdromCtrl := cdrom.New()
	sio0 := peripheral.New(pad.New())
	bios := make([]byte, biosEnd-biosStart)
	return New(bios, ram, irqCtrl, dmaCtrl, timerBank, cdromCtrl, gpuUnit, sio0)
}

func TestRAMMirrorsAcrossItsEightMiBWindow(t *testing.T) {
	b := newTestBus()
	b.Write32(0x00000010, 0xCAFEBABE)
	assert.Equal(t, uint32(0xCAFEBABE), b.Read32(0x00200010), "the 2 MiB RAM must mirror four times across the 8 MiB window")
}

func TestKSEG0AndKSEG1MapToTheSameRAM(t *testing.T) {
	b := newTestBus()
	b.Write32(0x80000100, 0x11223344) // KSEG0
	assert.Equal(t, uint32(0x11223344), b.Read32(0xA0000100), "KSEG0 and KSEG1 must alias the same physical RAM")
}

func TestBIOSIsReadableAtItsKSEG1Address(t *testing.T) {
	bios := make([]byte, biosEnd-biosStart)
	bios[0] = 0x78
	bios[1] = 0x56
	bios[2] = 0x34
	bios[3] = 0x12
	ram := memory.NewBuffer("RAM", memory.RAMSize)
	irqCtrl := irq.New(noopCop0{})
	gpuUnit := gpu.New()
	dmaCtrl := dma.New(ram, gpuUnit)
	b := New(bios, ram, irqCtrl, dmaCtrl, timer.New(), cdrom.New(), gpuUnit, peripheral.New(pad.New()))

	require.Equal(t, uint32(0x12345678), b.Read32(0xBFC00000))
}

func TestIRQRegistersRoundTripThroughTheBus(t *testing.T) {
	b := newTestBus()
	b.Write32(irqStart+4, 0x001) // I_MASK: unmask VBlank
	b.irq.Request(irq.VBlank)

	assert.NotEqual(t, uint32(0), b.Read32(irqStart)&1, "I_STAT bit 0 must be set after a VBlank request")

	b.Write32(irqStart, 0) // acknowledge clears every bit
	assert.Equal(t, uint32(0), b.Read32(irqStart))
}

func TestGPURegistersRoundTripThroughTheBus(t *testing.T) {
	b := newTestBus()
	b.Write32(gpuStart, 0x02100000) // fill rect color header
	b.Write32(gpuStart, 0)          // x0,y0
	b.Write32(gpuStart, 1<<16|1)    // w=1,h=1

	stat := b.Read32(gpuStart + 4)
	assert.NotEqual(t, uint32(0), stat, "GPUSTAT must reflect the reset-default ready bits")
}

func TestUnmappedAddressPanics(t *testing.T) {
	b := newTestBus()
	assert.Panics(t, func() { b.Read32(0x1F100000) }, "an address outside every decoded region is a hard host error")
}
