// Package cpu implements the R3000A interpreter: decode/execute, the
// branch-delay and load-delay slot machinery, and the coupling to cop0
// (system control) and cop2 (the GTE).
//
// Grounded on jeebie/cpu/{cpu,mapping,instructions}.go for the dispatch-
// table idiom and on _examples/original_source/src/cpu/mod.rs for the
// exact pending-write/load-delay mechanics and bus-stall semantics, which
// spec.md §3/§4.1 describe in prose but this source shows as working code.
package cpu

import (
	"log/slog"

	"github.com/rook-emu/psxcore/internal/cpu/cop0"
	"github.com/rook-emu/psxcore/internal/cpu/gte"
)

// ResetPC is the R3000A's cold-boot program counter, in the BIOS ROM
// window (KSEG1).
const ResetPC uint32 = 0xBFC00000

// Bus is everything the CPU needs from the rest of the machine: byte/half/
// word access to the address space, and the shared "DMA running" signal it
// stalls on.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, value uint8)
	Write16(addr uint32, value uint16)
	Write32(addr uint32, value uint32)
	DMAActive() bool
}

type pendingWrite struct {
	reg   uint32
	value uint32
	valid bool
}

// CPU is the R3000A interpreter's full architectural state.
type CPU struct {
	regs Registers
	pc   uint32
	hi   uint32
	lo   uint32

	currentPC uint32
	nextPC    uint32

	pending [2]pendingWrite
	branch    bool
	delaySlot bool

	cop0 *cop0.SystemControl
	gte  *gte.GTE
	bus  Bus

	stalled bool

	// Trace enables BIOS TTY putchar sniffing (see SPEC_FULL.md's
	// supplemented-features section); off by default. It does not log
	// individual instructions.
	Trace bool
}

// New creates a CPU wired to bus, with its own cop0 and GTE, reset at
// ResetPC.
func New(bus Bus) *CPU {
	c := &CPU{
		pc:   ResetPC,
		cop0: cop0.New(),
		gte:  gte.New(),
		bus:  bus,
	}
	c.nextPC = c.pc + 4
	return c
}

// Cop0 exposes the system-control coprocessor (the interrupt controller
// signals it directly).
func (c *CPU) Cop0() *cop0.SystemControl { return c.cop0 }

// GTE exposes the geometry engine for debug inspection.
func (c *CPU) GTE() *gte.GTE { return c.gte }

// PC returns the current program counter.
func (c *CPU) PC() uint32 { return c.pc }

// GPR reads general-purpose register r (0..31).
func (c *CPU) GPR(r uint32) uint32 { return c.regs.Get(r) }

// SetGPR writes general-purpose register r, for side-loading and tests.
func (c *CPU) SetGPR(r uint32, v uint32) { c.regs.Set(r, v) }

// SetPC forces the program counter (and its delay-slot successor), used by
// PSX-EXE side-loading.
func (c *CPU) SetPC(pc uint32) {
	c.pc = pc
	c.nextPC = pc + 4
}

// Tick fetches, decodes, and executes one instruction, per spec.md §4.1 and
// §5's single-threaded scheduling model.
func (c *CPU) Tick() {
	c.stalled = c.stalled && c.bus.DMAActive()
	if c.stalled {
		return
	}

	word := c.read32(c.pc)
	if c.stalled {
		return
	}

	c.delaySlot = c.branch
	c.branch = false
	c.currentPC = c.pc

	if c.currentPC&0b11 != 0 {
		c.cop0.SetBadVAddr(c.currentPC)
		c.raiseException(cop0.CauseAdEL)
		return
	}

	c.pc = c.nextPC
	c.nextPC += 4

	if c.Trace {
		c.checkTTYOutput()
	}

	c.execute(Instruction(word))
	c.commitWrites()
}

func (c *CPU) checkTTYOutput() {
	pc := c.currentPC & 0x1FFFFFFF
	if (pc == 0xA0 && c.regs.Get(9) == 0x3C) || (pc == 0xB0 && c.regs.Get(9) == 0x3D) {
		slog.Info("bios putchar", "ch", string(rune(c.regs.Get(4)&0xFF)))
	}
}

func (c *CPU) execute(i Instruction) {
	op := i.op()
	if fn := opcodeTable[op]; fn != nil {
		fn(c, i)
		return
	}
	c.illegalInstruction(i)
}

func (c *CPU) illegalInstruction(i Instruction) {
	slog.Warn("reserved instruction", "word", uint32(i), "pc", c.currentPC)
	c.raiseException(cop0.CauseRI)
}

// raiseException performs exception entry: ask cop0 for the vector, jump
// there, and discard any pending load-delay writes, per spec.md §4.1.
func (c *CPU) raiseException(cause cop0.Cause) {
	bev := c.cop0.RaiseException(cause, c.currentPC, c.delaySlot)
	c.pc = cop0.BEVVector(bev)
	c.nextPC = c.pc + 4
	c.pending[0] = pendingWrite{}
	c.pending[1] = pendingWrite{}
}

// HandleExternalInterrupt checks SR.IEc/IM against the controller-driven
// CAUSE.IP bits and takes the exception at the current instruction
// boundary if warranted. The scheduler calls this once per CPU tick.
func (c *CPU) HandleExternalInterrupt() {
	if c.cop0.PendingExternalInterrupt() {
		c.currentPC = c.pc
		c.delaySlot = c.branch
		c.raiseException(cop0.CauseInt)
	}
}

// writeRegister performs an immediate (non-load) register write: it flushes
// whatever was already pending in slot 0 from the previous instruction,
// then takes slot 0 itself. Mirrors the two-slot load-delay queue every
// MIPS interpreter of this shape implements.
func (c *CPU) writeRegister(reg, value uint32) {
	if c.pending[0].valid {
		c.regs.Set(c.pending[0].reg, c.pending[0].value)
	}
	c.pending[0] = pendingWrite{reg: reg, value: value, valid: true}
}

// scheduleWrite is used by loads: the value lands in slot 1 and will not
// reach the register file until the instruction *after* the next one
// commits, producing the one-instruction load-delay the MIPS pipeline
// exposes architecturally.
func (c *CPU) scheduleWrite(reg, value uint32) {
	c.pending[1] = pendingWrite{reg: reg, value: value, valid: true}
}

// pendingValue returns the value a load-delay slot would observe for reg if
// one is outstanding, else the committed register value -- used by
// LWL/LWR to merge into the correct "previous" value (spec.md §4.1).
func (c *CPU) pendingValue(reg uint32) uint32 {
	if c.pending[0].valid && c.pending[0].reg == reg {
		return c.pending[0].value
	}
	return c.regs.Get(reg)
}

func (c *CPU) commitWrites() {
	if c.pending[0].valid {
		c.regs.Set(c.pending[0].reg, c.pending[0].value)
	}
	c.pending[0] = c.pending[1]
	c.pending[1] = pendingWrite{}
}

func (c *CPU) read8(addr uint32) uint8 {
	c.stalled = c.bus.DMAActive()
	return c.bus.Read8(addr)
}

func (c *CPU) read16(addr uint32) uint16 {
	c.stalled = c.bus.DMAActive()
	return c.bus.Read16(addr)
}

func (c *CPU) read32(addr uint32) uint32 {
	c.stalled = c.bus.DMAActive()
	return c.bus.Read32(addr)
}

func (c *CPU) write8(addr uint32, value uint8) {
	if c.cop0.IsolateCache() {
		return
	}
	c.stalled = c.bus.DMAActive()
	c.bus.Write8(addr, value)
}

func (c *CPU) write16(addr uint32, value uint16) {
	if c.cop0.IsolateCache() {
		return
	}
	c.stalled = c.bus.DMAActive()
	c.bus.Write16(addr, value)
}

func (c *CPU) write32(addr uint32, value uint32) {
	if c.cop0.IsolateCache() {
		return
	}
	c.stalled = c.bus.DMAActive()
	c.bus.Write32(addr, value)
}
