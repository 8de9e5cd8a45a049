package cpu

// cop0Instr dispatches MFC0/MTC0/RFE, the only cop0 instructions the
// R3000A's reduced MMU-less pipeline defines.
func (c *CPU) cop0Instr(i Instruction) {
	switch i.rs() {
	case 0b00000: // MFC0
		c.scheduleWrite(i.rt(), c.cop0.ReadRegister(i.rd()))
	case 0b00100: // MTC0
		c.cop0.WriteRegister(i.rd(), c.regs.Get(i.rt()))
	case 0b10000: // RFE (cop0 function 16)
		if i.funct() == 0b010000 {
			c.cop0.RFE()
		}
	default:
		c.illegalInstruction(i)
	}
}

// cop2Instr dispatches MFC2/CFC2/MTC2/CTC2 (register moves, decoded on the
// rs field like any coprocessor) and GTE command words (bit 25 set).
func (c *CPU) cop2Instr(i Instruction) {
	if i.isCop2Command() {
		c.gte.Execute(i.copFunction())
		return
	}
	switch i.rs() {
	case 0b00000: // MFC2
		c.scheduleWrite(i.rt(), c.gte.ReadData(i.rd()))
	case 0b00010: // CFC2
		c.scheduleWrite(i.rt(), c.gte.ReadControl(i.rd()+32))
	case 0b00100: // MTC2
		c.gte.WriteData(i.rd(), c.regs.Get(i.rt()))
	case 0b00110: // CTC2
		c.gte.WriteControl(i.rd()+32, c.regs.Get(i.rt()))
	default:
		c.illegalInstruction(i)
	}
}

func (c *CPU) lwc2(i Instruction) {
	addr := c.effAddr(i)
	if addr&3 != 0 {
		c.loadFault(addr)
		return
	}
	c.gte.WriteData(i.rt(), c.read32(addr))
}

func (c *CPU) swc2(i Instruction) {
	addr := c.effAddr(i)
	if addr&3 != 0 {
		c.storeFault(addr)
		return
	}
	c.write32(addr, c.gte.ReadData(i.rt()))
}
