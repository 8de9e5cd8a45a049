package cpu

import (
	"math"

	"github.com/rook-emu/psxcore/internal/cpu/cop0"
)

type execFunc func(*CPU, Instruction)

var opcodeTable [64]execFunc
var specialTable [64]execFunc
var regimmTable [32]execFunc

func init() {
	opcodeTable[0b000000] = execSpecial
	opcodeTable[0b000001] = execRegimm
	opcodeTable[0b000010] = (*CPU).j
	opcodeTable[0b000011] = (*CPU).jal
	opcodeTable[0b000100] = (*CPU).beq
	opcodeTable[0b000101] = (*CPU).bne
	opcodeTable[0b000110] = (*CPU).blez
	opcodeTable[0b000111] = (*CPU).bgtz
	opcodeTable[0b001000] = (*CPU).addi
	opcodeTable[0b001001] = (*CPU).addiu
	opcodeTable[0b001010] = (*CPU).slti
	opcodeTable[0b001011] = (*CPU).sltiu
	opcodeTable[0b001100] = (*CPU).andi
	opcodeTable[0b001101] = (*CPU).ori
	opcodeTable[0b001110] = (*CPU).xori
	opcodeTable[0b001111] = (*CPU).lui
	opcodeTable[0b010000] = (*CPU).cop0Instr
	opcodeTable[0b010001] = func(c *CPU, i Instruction) { c.raiseException(cop0.CauseCpU) }
	opcodeTable[0b010010] = (*CPU).cop2Instr
	opcodeTable[0b010011] = func(c *CPU, i Instruction) { c.raiseException(cop0.CauseCpU) }
	opcodeTable[0b100000] = (*CPU).lb
	opcodeTable[0b100001] = (*CPU).lh
	opcodeTable[0b100010] = (*CPU).lwl
	opcodeTable[0b100011] = (*CPU).lw
	opcodeTable[0b100100] = (*CPU).lbu
	opcodeTable[0b100101] = (*CPU).lhu
	opcodeTable[0b100110] = (*CPU).lwr
	opcodeTable[0b101000] = (*CPU).sb
	opcodeTable[0b101001] = (*CPU).sh
	opcodeTable[0b101010] = (*CPU).swl
	opcodeTable[0b101011] = (*CPU).sw
	opcodeTable[0b101110] = (*CPU).swr
	for _, op := range []uint32{0b110000, 0b110001, 0b110011, 0b111000, 0b111001, 0b111011} {
		opcodeTable[op] = func(c *CPU, i Instruction) { c.raiseException(cop0.CauseCpU) }
	}
	opcodeTable[0b110010] = (*CPU).lwc2
	opcodeTable[0b111010] = (*CPU).swc2

	specialTable[0b000000] = (*CPU).sll
	specialTable[0b000010] = (*CPU).srl
	specialTable[0b000011] = (*CPU).sra
	specialTable[0b000100] = (*CPU).sllv
	specialTable[0b000110] = (*CPU).srlv
	specialTable[0b000111] = (*CPU).srav
	specialTable[0b001000] = (*CPU).jr
	specialTable[0b001001] = (*CPU).jalr
	specialTable[0b001100] = func(c *CPU, i Instruction) { c.raiseException(cop0.CauseSys) }
	specialTable[0b001101] = func(c *CPU, i Instruction) { c.raiseException(cop0.CauseBp) }
	specialTable[0b010000] = (*CPU).mfhi
	specialTable[0b010001] = (*CPU).mthi
	specialTable[0b010010] = (*CPU).mflo
	specialTable[0b010011] = (*CPU).mtlo
	specialTable[0b011000] = (*CPU).mult
	specialTable[0b011001] = (*CPU).multu
	specialTable[0b011010] = (*CPU).div
	specialTable[0b011011] = (*CPU).divu
	specialTable[0b100000] = (*CPU).add
	specialTable[0b100001] = (*CPU).addu
	specialTable[0b100010] = (*CPU).sub
	specialTable[0b100011] = (*CPU).subu
	specialTable[0b100100] = (*CPU).and
	specialTable[0b100101] = (*CPU).or
	specialTable[0b100110] = (*CPU).xor
	specialTable[0b100111] = (*CPU).nor
	specialTable[0b101010] = (*CPU).slt
	specialTable[0b101011] = (*CPU).sltu

	regimmTable[0b00000] = (*CPU).bltz
	regimmTable[0b00001] = (*CPU).bgez
	regimmTable[0b10000] = (*CPU).bltzal
	regimmTable[0b10001] = (*CPU).bgezal
}

func execSpecial(c *CPU, i Instruction) {
	if fn := specialTable[i.funct()]; fn != nil {
		fn(c, i)
		return
	}
	c.illegalInstruction(i)
}

func execRegimm(c *CPU, i Instruction) {
	if fn := regimmTable[i.rt()]; fn != nil {
		fn(c, i)
		return
	}
	c.illegalInstruction(i)
}

// --- shifts ---

func (c *CPU) sll(i Instruction) { c.writeRegister(i.rd(), c.regs.Get(i.rt())<<i.shamt()) }
func (c *CPU) srl(i Instruction) { c.writeRegister(i.rd(), c.regs.Get(i.rt())>>i.shamt()) }
func (c *CPU) sra(i Instruction) {
	c.writeRegister(i.rd(), uint32(int32(c.regs.Get(i.rt()))>>i.shamt()))
}
func (c *CPU) sllv(i Instruction) {
	c.writeRegister(i.rd(), c.regs.Get(i.rt())<<(c.regs.Get(i.rs())&0x1F))
}
func (c *CPU) srlv(i Instruction) {
	c.writeRegister(i.rd(), c.regs.Get(i.rt())>>(c.regs.Get(i.rs())&0x1F))
}
func (c *CPU) srav(i Instruction) {
	c.writeRegister(i.rd(), uint32(int32(c.regs.Get(i.rt()))>>(c.regs.Get(i.rs())&0x1F)))
}

// --- ALU reg-reg ---

func (c *CPU) add(i Instruction) {
	a, b := int32(c.regs.Get(i.rs())), int32(c.regs.Get(i.rt()))
	sum := a + b
	if overflowsAdd(a, b, sum) {
		c.raiseException(cop0.CauseOvf)
		return
	}
	c.writeRegister(i.rd(), uint32(sum))
}
func (c *CPU) addu(i Instruction) {
	c.writeRegister(i.rd(), c.regs.Get(i.rs())+c.regs.Get(i.rt()))
}
func (c *CPU) sub(i Instruction) {
	a, b := int32(c.regs.Get(i.rs())), int32(c.regs.Get(i.rt()))
	diff := a - b
	if overflowsSub(a, b, diff) {
		c.raiseException(cop0.CauseOvf)
		return
	}
	c.writeRegister(i.rd(), uint32(diff))
}
func (c *CPU) subu(i Instruction) {
	c.writeRegister(i.rd(), c.regs.Get(i.rs())-c.regs.Get(i.rt()))
}
func (c *CPU) and(i Instruction) { c.writeRegister(i.rd(), c.regs.Get(i.rs())&c.regs.Get(i.rt())) }
func (c *CPU) or(i Instruction)  { c.writeRegister(i.rd(), c.regs.Get(i.rs())|c.regs.Get(i.rt())) }
func (c *CPU) xor(i Instruction) { c.writeRegister(i.rd(), c.regs.Get(i.rs())^c.regs.Get(i.rt())) }
func (c *CPU) nor(i Instruction) {
	c.writeRegister(i.rd(), ^(c.regs.Get(i.rs()) | c.regs.Get(i.rt())))
}
func (c *CPU) slt(i Instruction) {
	v := uint32(0)
	if int32(c.regs.Get(i.rs())) < int32(c.regs.Get(i.rt())) {
		v = 1
	}
	c.writeRegister(i.rd(), v)
}
func (c *CPU) sltu(i Instruction) {
	v := uint32(0)
	if c.regs.Get(i.rs()) < c.regs.Get(i.rt()) {
		v = 1
	}
	c.writeRegister(i.rd(), v)
}

func overflowsAdd(a, b, sum int32) bool {
	return (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum > 0)
}
func overflowsSub(a, b, diff int32) bool {
	return (a >= 0 && b < 0 && diff < 0) || (a < 0 && b >= 0 && diff >= 0)
}

// --- ALU reg-imm ---

func (c *CPU) addi(i Instruction) {
	a := int32(c.regs.Get(i.rs()))
	b := i.simm()
	sum := a + b
	if overflowsAdd(a, b, sum) {
		c.raiseException(cop0.CauseOvf)
		return
	}
	c.writeRegister(i.rt(), uint32(sum))
}
func (c *CPU) addiu(i Instruction) {
	c.writeRegister(i.rt(), c.regs.Get(i.rs())+uint32(i.simm()))
}
func (c *CPU) slti(i Instruction) {
	v := uint32(0)
	if int32(c.regs.Get(i.rs())) < i.simm() {
		v = 1
	}
	c.writeRegister(i.rt(), v)
}
func (c *CPU) sltiu(i Instruction) {
	v := uint32(0)
	if c.regs.Get(i.rs()) < uint32(i.simm()) {
		v = 1
	}
	c.writeRegister(i.rt(), v)
}
func (c *CPU) andi(i Instruction) { c.writeRegister(i.rt(), c.regs.Get(i.rs())&i.imm()) }
func (c *CPU) ori(i Instruction)  { c.writeRegister(i.rt(), c.regs.Get(i.rs())|i.imm()) }
func (c *CPU) xori(i Instruction) { c.writeRegister(i.rt(), c.regs.Get(i.rs())^i.imm()) }
func (c *CPU) lui(i Instruction)  { c.writeRegister(i.rt(), i.imm()<<16) }

// --- branches / jumps ---

func (c *CPU) branchIf(cond bool, offset int32) {
	if cond {
		c.branch = true
		c.nextPC = uint32(int32(c.pc) + offset*4)
	}
}

func (c *CPU) beq(i Instruction) {
	c.branchIf(c.regs.Get(i.rs()) == c.regs.Get(i.rt()), i.simm())
}
func (c *CPU) bne(i Instruction) {
	c.branchIf(c.regs.Get(i.rs()) != c.regs.Get(i.rt()), i.simm())
}
func (c *CPU) blez(i Instruction) { c.branchIf(int32(c.regs.Get(i.rs())) <= 0, i.simm()) }
func (c *CPU) bgtz(i Instruction) { c.branchIf(int32(c.regs.Get(i.rs())) > 0, i.simm()) }
func (c *CPU) bltz(i Instruction) { c.branchIf(int32(c.regs.Get(i.rs())) < 0, i.simm()) }
func (c *CPU) bgez(i Instruction) { c.branchIf(int32(c.regs.Get(i.rs())) >= 0, i.simm()) }
func (c *CPU) bltzal(i Instruction) {
	c.writeRegister(31, c.nextPC)
	c.bltz(i)
}
func (c *CPU) bgezal(i Instruction) {
	c.writeRegister(31, c.nextPC)
	c.bgez(i)
}

func (c *CPU) j(i Instruction) {
	c.branch = true
	c.nextPC = (c.pc & 0xF0000000) | (i.target() << 2)
}
func (c *CPU) jal(i Instruction) {
	c.writeRegister(31, c.nextPC)
	c.j(i)
}
func (c *CPU) jr(i Instruction) {
	c.branch = true
	c.nextPC = c.regs.Get(i.rs())
}
func (c *CPU) jalr(i Instruction) {
	target := c.regs.Get(i.rs())
	c.writeRegister(i.rd(), c.nextPC)
	c.branch = true
	c.nextPC = target
}

// --- multiply / divide ---

func (c *CPU) mfhi(i Instruction) { c.writeRegister(i.rd(), c.hi) }
func (c *CPU) mthi(i Instruction) { c.hi = c.regs.Get(i.rs()) }
func (c *CPU) mflo(i Instruction) { c.writeRegister(i.rd(), c.lo) }
func (c *CPU) mtlo(i Instruction) { c.lo = c.regs.Get(i.rs()) }

func (c *CPU) mult(i Instruction) {
	result := int64(int32(c.regs.Get(i.rs()))) * int64(int32(c.regs.Get(i.rt())))
	c.hi, c.lo = uint32(uint64(result)>>32), uint32(result)
}
func (c *CPU) multu(i Instruction) {
	result := uint64(c.regs.Get(i.rs())) * uint64(c.regs.Get(i.rt()))
	c.hi, c.lo = uint32(result>>32), uint32(result)
}

// div implements the documented MIPS corner cases: divide-by-zero and
// INT_MIN/-1, per spec.md §4.1's resolution of the open question in §9.
func (c *CPU) div(i Instruction) {
	n := int32(c.regs.Get(i.rs()))
	d := int32(c.regs.Get(i.rt()))
	switch {
	case d == 0:
		c.hi = uint32(n)
		if n < 0 {
			c.lo = 1
		} else {
			c.lo = 0xFFFFFFFF
		}
	case n == math.MinInt32 && d == -1:
		c.hi = 0
		c.lo = uint32(n)
	default:
		c.hi = uint32(n % d)
		c.lo = uint32(n / d)
	}
}
func (c *CPU) divu(i Instruction) {
	n := c.regs.Get(i.rs())
	d := c.regs.Get(i.rt())
	if d == 0 {
		c.hi = n
		c.lo = 0xFFFFFFFF
		return
	}
	c.hi = n % d
	c.lo = n / d
}

// --- loads ---

func (c *CPU) effAddr(i Instruction) uint32 {
	return c.regs.Get(i.rs()) + uint32(i.simm())
}

func (c *CPU) loadFault(addr uint32) {
	c.cop0.SetBadVAddr(addr)
	c.raiseException(cop0.CauseAdEL)
}
func (c *CPU) storeFault(addr uint32) {
	c.cop0.SetBadVAddr(addr)
	c.raiseException(cop0.CauseAdES)
}

func (c *CPU) lb(i Instruction) {
	addr := c.effAddr(i)
	c.scheduleWrite(i.rt(), uint32(int32(int8(c.read8(addr)))))
}
func (c *CPU) lbu(i Instruction) {
	addr := c.effAddr(i)
	c.scheduleWrite(i.rt(), uint32(c.read8(addr)))
}
func (c *CPU) lh(i Instruction) {
	addr := c.effAddr(i)
	if addr&1 != 0 {
		c.loadFault(addr)
		return
	}
	c.scheduleWrite(i.rt(), uint32(int32(int16(c.read16(addr)))))
}
func (c *CPU) lhu(i Instruction) {
	addr := c.effAddr(i)
	if addr&1 != 0 {
		c.loadFault(addr)
		return
	}
	c.scheduleWrite(i.rt(), uint32(c.read16(addr)))
}
func (c *CPU) lw(i Instruction) {
	addr := c.effAddr(i)
	if addr&3 != 0 {
		c.loadFault(addr)
		return
	}
	c.scheduleWrite(i.rt(), c.read32(addr))
}

func (c *CPU) lwl(i Instruction) {
	addr := c.effAddr(i)
	aligned := addr &^ 3
	word := c.read32(aligned)
	cur := c.pendingValue(i.rt())
	var result uint32
	switch addr & 3 {
	case 0:
		result = (cur & 0x00FFFFFF) | (word << 24)
	case 1:
		result = (cur & 0x0000FFFF) | (word << 16)
	case 2:
		result = (cur & 0x000000FF) | (word << 8)
	default:
		result = word
	}
	c.scheduleWrite(i.rt(), result)
}
func (c *CPU) lwr(i Instruction) {
	addr := c.effAddr(i)
	aligned := addr &^ 3
	word := c.read32(aligned)
	cur := c.pendingValue(i.rt())
	var result uint32
	switch addr & 3 {
	case 0:
		result = word
	case 1:
		result = (cur & 0xFF000000) | (word >> 8)
	case 2:
		result = (cur & 0xFFFF0000) | (word >> 16)
	default:
		result = (cur & 0xFFFFFF00) | (word >> 24)
	}
	c.scheduleWrite(i.rt(), result)
}

// --- stores ---

func (c *CPU) sb(i Instruction) { c.write8(c.effAddr(i), uint8(c.regs.Get(i.rt()))) }
func (c *CPU) sh(i Instruction) {
	addr := c.effAddr(i)
	if addr&1 != 0 {
		c.storeFault(addr)
		return
	}
	c.write16(addr, uint16(c.regs.Get(i.rt())))
}
func (c *CPU) sw(i Instruction) {
	addr := c.effAddr(i)
	if addr&3 != 0 {
		c.storeFault(addr)
		return
	}
	c.write32(addr, c.regs.Get(i.rt()))
}

func (c *CPU) swl(i Instruction) {
	addr := c.effAddr(i)
	aligned := addr &^ 3
	mem := c.read32(aligned)
	cur := c.regs.Get(i.rt())
	var result uint32
	switch addr & 3 {
	case 0:
		result = (mem & 0xFFFFFF00) | (cur >> 24)
	case 1:
		result = (mem & 0xFFFF0000) | (cur >> 16)
	case 2:
		result = (mem & 0xFF000000) | (cur >> 8)
	default:
		result = cur
	}
	c.write32(aligned, result)
}
func (c *CPU) swr(i Instruction) {
	addr := c.effAddr(i)
	aligned := addr &^ 3
	mem := c.read32(aligned)
	cur := c.regs.Get(i.rt())
	var result uint32
	switch addr & 3 {
	case 0:
		result = cur
	case 1:
		result = (mem & 0x000000FF) | (cur << 8)
	case 2:
		result = (mem & 0x0000FFFF) | (cur << 16)
	default:
		result = (mem & 0x00FFFFFF) | (cur << 24)
	}
	c.write32(aligned, result)
}
