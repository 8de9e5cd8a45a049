// Package disasm renders a raw MIPS R3000A instruction word as a mnemonic
// string for debugging/tracing. Grounded on jeebie/disasm/disasm.go's
// "one line per instruction, mnemonic table indexed by opcode" idiom,
// adapted from the Game Boy's 1-byte opcode space to the R3000A's
// op/funct field pair.
package disasm

import "fmt"

// Line is one disassembled instruction.
type Line struct {
	Address     uint32
	Instruction string
}

var regNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

func reg(n uint32) string { return regNames[n&0x1F] }

var specialMnemonics = map[uint32]string{
	0x00: "sll", 0x02: "srl", 0x03: "sra",
	0x04: "sllv", 0x06: "srlv", 0x07: "srav",
	0x08: "jr", 0x09: "jalr",
	0x0C: "syscall", 0x0D: "break",
	0x10: "mfhi", 0x11: "mthi", 0x12: "mflo", 0x13: "mtlo",
	0x18: "mult", 0x19: "multu", 0x1A: "div", 0x1B: "divu",
	0x20: "add", 0x21: "addu", 0x22: "sub", 0x23: "subu",
	0x24: "and", 0x25: "or", 0x26: "xor", 0x27: "nor",
	0x2A: "slt", 0x2B: "sltu",
}

var opMnemonics = map[uint32]string{
	0x01: "bcond", 0x02: "j", 0x03: "jal",
	0x04: "beq", 0x05: "bne", 0x06: "blez", 0x07: "bgtz",
	0x08: "addi", 0x09: "addiu", 0x0A: "slti", 0x0B: "sltiu",
	0x0C: "andi", 0x0D: "ori", 0x0E: "xori", 0x0F: "lui",
	0x10: "cop0", 0x12: "cop2",
	0x20: "lb", 0x21: "lh", 0x22: "lwl", 0x23: "lw",
	0x24: "lbu", 0x25: "lhu", 0x26: "lwr",
	0x28: "sb", 0x29: "sh", 0x2A: "swl", 0x2B: "sw", 0x2E: "swr",
	0x30: "lwc0", 0x32: "lwc2", 0x38: "swc0", 0x3A: "swc2",
}

// Decode renders one instruction word.
func Decode(pc, word uint32) Line {
	op := (word >> 26) & 0x3F
	rs, rt, rd := (word>>21)&0x1F, (word>>16)&0x1F, (word>>11)&0x1F
	shamt := (word >> 6) & 0x1F
	funct := word & 0x3F
	imm := int16(word)
	target := word & 0x03FFFFFF

	var text string
	switch {
	case op == 0:
		if word == 0 {
			text = "nop"
			break
		}
		name, ok := specialMnemonics[funct]
		if !ok {
			text = fmt.Sprintf("unknown special funct=0x%02X", funct)
			break
		}
		switch funct {
		case 0x00, 0x02, 0x03:
			text = fmt.Sprintf("%s %s, %s, %d", name, reg(rd), reg(rt), shamt)
		case 0x08, 0x09:
			text = fmt.Sprintf("%s %s", name, reg(rs))
		case 0x0C, 0x0D:
			text = name
		case 0x10, 0x12:
			text = fmt.Sprintf("%s %s", name, reg(rd))
		case 0x11, 0x13:
			text = fmt.Sprintf("%s %s", name, reg(rs))
		case 0x18, 0x19, 0x1A, 0x1B:
			text = fmt.Sprintf("%s %s, %s", name, reg(rs), reg(rt))
		default:
			text = fmt.Sprintf("%s %s, %s, %s", name, reg(rd), reg(rs), reg(rt))
		}
	case op == 0x02 || op == 0x03:
		text = fmt.Sprintf("%s 0x%08X", opMnemonics[op], (pc&0xF0000000)|(target<<2))
	case op == 0x04 || op == 0x05:
		text = fmt.Sprintf("%s %s, %s, 0x%08X", opMnemonics[op], reg(rs), reg(rt), pc+4+uint32(int32(imm)<<2))
	case op == 0x06 || op == 0x07:
		text = fmt.Sprintf("%s %s, 0x%08X", opMnemonics[op], reg(rs), pc+4+uint32(int32(imm)<<2))
	case op == 0x0F:
		text = fmt.Sprintf("lui %s, 0x%04X", reg(rt), uint16(word))
	case op >= 0x20 && op <= 0x2E:
		text = fmt.Sprintf("%s %s, %d(%s)", opMnemonics[op], reg(rt), imm, reg(rs))
	default:
		name, ok := opMnemonics[op]
		if !ok {
			text = fmt.Sprintf("unknown op=0x%02X", op)
			break
		}
		text = fmt.Sprintf("%s %s, %s, %d", name, reg(rt), reg(rs), imm)
	}

	return Line{Address: pc, Instruction: text}
}
