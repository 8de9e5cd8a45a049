package cpu

// Instruction is a raw 32-bit MIPS word with field-extraction helpers.
// Grounded on original_source/src/cpu/decoder.rs's accessor set.
type Instruction uint32

func (i Instruction) op() uint32     { return uint32(i>>26) & 0x3F }
func (i Instruction) rs() uint32     { return uint32(i>>21) & 0x1F }
func (i Instruction) rt() uint32     { return uint32(i>>16) & 0x1F }
func (i Instruction) rd() uint32     { return uint32(i>>11) & 0x1F }
func (i Instruction) shamt() uint32  { return uint32(i>>6) & 0x1F }
func (i Instruction) funct() uint32  { return uint32(i) & 0x3F }
func (i Instruction) imm() uint32    { return uint32(i) & 0xFFFF }
func (i Instruction) simm() int32    { return int32(int16(uint16(i))) }
func (i Instruction) target() uint32 { return uint32(i) & 0x03FFFFFF }

// copFunction is the 25-bit function word passed verbatim to GTE for
// COP2 non-move instructions (bit 25 set).
func (i Instruction) copFunction() uint32 { return uint32(i) & 0x01FFFFFF }

func (i Instruction) isCop2Command() bool { return (i>>25)&1 != 0 }
