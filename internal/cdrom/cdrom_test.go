package cdrom

import (
	"testing"

	"github.com/rook-emu/psxcore/internal/disk"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSectorSize = 2352

func setBank(c *Controller, bank uint8) {
	c.WriteRegister(0, bank)
}

func TestGetstatFiresINT3AfterDelay(t *testing.T) {
	c := New()
	irqs := 0
	c.IRQHandler = func() { irqs++ }

	setBank(c, 1)
	c.WriteRegister(2, 0xFF) // HINTMSK: unmask all
	setBank(c, 0)
	c.WriteRegister(1, 0x01) // COMMAND = Getstat

	for i := 0; i < averageIRQDelay-1; i++ {
		c.Tick()
	}
	assert.Equal(t, 0, irqs, "IRQ must not fire before the delay elapses")
	c.Tick()
	assert.Equal(t, 1, irqs)

	setBank(c, 1)
	assert.Equal(t, uint8(3), c.ReadRegister(3)&7, "HINTSTS should report INT3")
}

func TestGetIDWithoutDiskReportsNoDisk(t *testing.T) {
	c := New()
	irqs := 0
	c.IRQHandler = func() { irqs++ }
	setBank(c, 1)
	c.WriteRegister(2, 0xFF)
	setBank(c, 0)
	c.WriteRegister(1, 0x1A) // COMMAND = GetID

	for i := 0; i < averageIRQDelay; i++ {
		c.Tick()
	}
	assert.Equal(t, 1, irqs, "first response (INT3) should have fired")

	for i := 0; i < idSecondDelay; i++ {
		c.Tick()
	}
	assert.Equal(t, 2, irqs, "second response (INT5, no disk) should have fired")

	setBank(c, 1)
	assert.Equal(t, uint8(5), c.ReadRegister(3)&7)
	got := make([]byte, 8)
	for i := range got {
		setBank(c, 0)
		got[i] = c.ReadRegister(1)
	}
	assert.Equal(t, noDiskID[:], got)
}

// TestTestCommandReportsFirmwareVersion covers spec.md §8's S3 scenario:
// command 0x19 sub-function 0x20 must fire INT3 after the average IRQ
// delay and leave the firmware version bytes in the result FIFO.
func TestTestCommandReportsFirmwareVersion(t *testing.T) {
	c := New()
	irqs := 0
	c.IRQHandler = func() { irqs++ }

	setBank(c, 1)
	c.WriteRegister(2, 0xFF) // HINTMSK: unmask all
	setBank(c, 0)
	c.WriteRegister(2, 0x20) // PARAMETER: sub-function 0x20
	c.WriteRegister(1, 0x19) // COMMAND = Test

	for i := 0; i < averageIRQDelay-1; i++ {
		c.Tick()
	}
	assert.Equal(t, 0, irqs, "IRQ must not fire before the delay elapses")
	c.Tick()
	assert.Equal(t, 1, irqs)

	setBank(c, 1)
	assert.Equal(t, uint8(3), c.ReadRegister(3)&7, "HINTSTS should report INT3")

	got := make([]byte, 4)
	for i := range got {
		setBank(c, 0)
		got[i] = c.ReadRegister(1)
	}
	assert.Equal(t, firmwareVersion[:], got)
}

func TestReadNStreamsSectorBytes(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := make([]byte, testSectorSize*2)
	for s := 0; s < 2; s++ {
		for i := 12; i < testSectorSize; i++ {
			data[s*testSectorSize+i] = 0xAB
		}
	}
	require.NoError(t, afero.WriteFile(fs, "game.bin", data, 0644))
	img, err := disk.Load(fs, "game.bin")
	require.NoError(t, err)

	c := New()
	c.InsertDisk(img)
	irqs := 0
	c.IRQHandler = func() { irqs++ }

	setBank(c, 1)
	c.WriteRegister(2, 0xFF)
	setBank(c, 0)

	// Setloc 00:02:00 (the first sector on the image).
	c.WriteRegister(2, 0x00)
	c.WriteRegister(2, 0x02)
	c.WriteRegister(2, 0x00)
	c.WriteRegister(1, 0x02) // Setloc
	for i := 0; i < averageIRQDelay; i++ {
		c.Tick()
	}

	c.WriteRegister(1, 0x06) // ReadN
	for i := 0; i < averageIRQDelay+c.SectorRate.Single; i++ {
		c.Tick()
	}
	assert.GreaterOrEqual(t, irqs, 2, "expect INT3 then at least one INT1")

	setBank(c, 0)
	assert.Equal(t, uint8(0xAB), c.ReadRegister(2), "RDDATA should stream the loaded sector's data region")
}
