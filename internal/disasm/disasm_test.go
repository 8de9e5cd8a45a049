package disasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeNop(t *testing.T) {
	line := Decode(0xBFC00000, 0x00000000)
	assert.Equal(t, "nop", line.Instruction)
}

func TestDecodeAddiu(t *testing.T) {
	// addiu $a0, $zero, 0x10
	word := uint32(0x09<<26) | uint32(4)<<16 | 0x0010
	line := Decode(0, word)
	assert.Equal(t, "addiu a0, zero, 16", line.Instruction)
}

func TestDecodeJumpTargetUsesCurrentSegment(t *testing.T) {
	word := uint32(0x02 << 26) // j 0
	line := Decode(0x80010000, word)
	assert.Equal(t, "j 0x80000000", line.Instruction)
}
