package cpu6502

type addrMode int

const (
	modeImplied addrMode = iota
	modeAccumulator
	modeImmediate
	modeZeroPage
	modeZeroPageX
	modeZeroPageY
	modeAbsolute
	modeAbsoluteX
	modeAbsoluteY
	modeIndirect
	modeIndirectX
	modeIndirectY
	modeRelative
)

// resolve consumes the operand bytes for mode (advancing PC) and returns
// the effective address. Immediate mode returns the address of the
// operand byte itself, so callers that read through Mem.ReadByte get the
// immediate value directly. Implied and Accumulator modes consume nothing
// and return 0; callers for those modes never dereference the address.
func (c *CPU) resolve(mode addrMode) uint16 {
	switch mode {
	case modeImplied, modeAccumulator:
		return 0
	case modeImmediate:
		addr := c.PC
		c.PC++
		return addr
	case modeZeroPage:
		addr := uint16(c.Mem.ReadByte(c.PC))
		c.PC++
		return addr
	case modeZeroPageX:
		addr := uint16(uint8(c.Mem.ReadByte(c.PC) + c.X))
		c.PC++
		return addr
	case modeZeroPageY:
		addr := uint16(uint8(c.Mem.ReadByte(c.PC) + c.Y))
		c.PC++
		return addr
	case modeAbsolute:
		addr := c.Mem.ReadWord(c.PC)
		c.PC += 2
		return addr
	case modeAbsoluteX:
		base := c.Mem.ReadWord(c.PC)
		c.PC += 2
		return base + uint16(c.X)
	case modeAbsoluteY:
		base := c.Mem.ReadWord(c.PC)
		c.PC += 2
		return base + uint16(c.Y)
	case modeIndirect:
		ptr := c.Mem.ReadWord(c.PC)
		c.PC += 2
		// Reproduces the NMOS 6502 JMP (indirect) page-boundary bug: if
		// the low byte of ptr is 0xFF, the high byte is fetched from the
		// start of the same page instead of the next page.
		lo := c.Mem.ReadByte(ptr)
		hiAddr := (ptr & 0xFF00) | ((ptr + 1) & 0x00FF)
		hi := c.Mem.ReadByte(hiAddr)
		return uint16(hi)<<8 | uint16(lo)
	case modeIndirectX:
		zp := c.Mem.ReadByte(c.PC) + c.X
		c.PC++
		lo := uint16(c.Mem.ReadByte(uint16(zp)))
		hi := uint16(c.Mem.ReadByte(uint16(zp + 1)))
		return hi<<8 | lo
	case modeIndirectY:
		zp := c.Mem.ReadByte(c.PC)
		c.PC++
		lo := uint16(c.Mem.ReadByte(uint16(zp)))
		hi := uint16(c.Mem.ReadByte(uint16(zp + 1)))
		base := hi<<8 | lo
		return base + uint16(c.Y)
	case modeRelative:
		off := int8(c.Mem.ReadByte(c.PC))
		c.PC++
		return uint16(int32(c.PC) + int32(off))
	}
	return 0
}

// operand reads the value an instruction operates on, handling
// Accumulator mode specially since it has no memory address.
func (c *CPU) operand(mode addrMode) uint8 {
	if mode == modeAccumulator {
		return c.A
	}
	return c.Mem.ReadByte(c.resolve(mode))
}
