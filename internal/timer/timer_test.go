package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTargetHitRequestsIRQAndResets(t *testing.T) {
	b := New()
	u := b.Units[0]
	fired := -1
	u.IRQHandler = func(i Index) { fired = int(i) }

	u.WriteTarget(5)
	u.WriteMode(modeIRQOnTarget | modeResetOnTarget)

	for i := 0; i < 5; i++ {
		b.Tick()
	}

	assert.Equal(t, 0, fired)
	assert.Equal(t, uint16(0), u.ReadCounter(), "reset-on-target clears the counter on the hit")
}

func TestOverflowWrapsAndRequestsIRQ(t *testing.T) {
	b := New()
	u := b.Units[1]
	fired := false
	u.IRQHandler = func(Index) { fired = true }
	u.WriteMode(modeIRQOnOverflow)

	for i := 0; i < 0xFFFF; i++ {
		b.Tick()
	}

	assert.True(t, fired)
	assert.Equal(t, uint16(0), u.ReadCounter())
}

func TestOneShotIRQDoesNotRepeatWithoutRearm(t *testing.T) {
	b := New()
	u := b.Units[0]
	count := 0
	u.IRQHandler = func(Index) { count++ }
	u.WriteTarget(2)
	u.WriteMode(modeIRQOnTarget) // no repeat bit, no reset-on-target

	for i := 0; i < 10; i++ {
		u.tick()
	}
	assert.Equal(t, 1, count, "one-shot mode must not re-fire until the counter register is rewritten")
}

func TestTimer2DividesClockByEightWhenConfigured(t *testing.T) {
	b := New()
	u := b.Units[2]
	u.WriteMode(modeTimer2DivBy8)

	for i := 0; i < 7; i++ {
		b.Tick()
	}
	assert.Equal(t, uint16(0), u.ReadCounter(), "seven sub-ticks must not yet advance the divided counter")

	b.Tick()
	assert.Equal(t, uint16(1), u.ReadCounter())
}

func TestModeReadClearsStatusBitsButWriteResetsCounter(t *testing.T) {
	b := New()
	u := b.Units[0]
	u.WriteTarget(3)
	u.WriteMode(modeIRQOnTarget | modeResetOnTarget)
	for i := 0; i < 3; i++ {
		u.tick()
	}
	m := u.ReadMode()
	assert.NotEqual(t, uint16(0), m&modeReachedTarget)
	assert.Equal(t, uint16(0), u.ReadMode()&modeReachedTarget, "reached-target clears on read")

	u.WriteCounter(42)
	u.WriteMode(0)
	assert.Equal(t, uint16(0), u.ReadCounter(), "a mode write resets the counter")
}
