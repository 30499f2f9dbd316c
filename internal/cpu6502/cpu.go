// Package cpu6502 implements a cycle-counting interpreter for the MOS 6502
// instruction set used by the machine: the full legal opcode set, every
// addressing mode, and binary/BCD arithmetic.
package cpu6502

import (
	"c64/internal/debug"
)

// Status flag bit positions. Layout (bit 7..0): N V 1 B D I Z C.
const (
	FlagC      uint8 = 1 << 0
	FlagZ      uint8 = 1 << 1
	FlagI      uint8 = 1 << 2
	FlagD      uint8 = 1 << 3
	FlagB      uint8 = 1 << 4
	FlagUnused uint8 = 1 << 5
	FlagV      uint8 = 1 << 6
	FlagN      uint8 = 1 << 7
)

const (
	VectorNMI   uint16 = 0xFFFA
	VectorRESET uint16 = 0xFFFC
	VectorIRQ   uint16 = 0xFFFE
)

// MemoryInterface is the bus contract the CPU interprets instructions
// against. Any type exposing this shape (internal/memory.Memory does) can
// back a CPU.
type MemoryInterface interface {
	ReadByte(addr uint16) uint8
	WriteByte(addr uint16, v uint8)
	ReadWord(addr uint16) uint16
}

// LoggerInterface narrows *debug.Logger to the one method the CPU needs,
// so test doubles don't have to construct a real Logger.
type LoggerInterface interface {
	LogCPU(level debug.LogLevel, message string, data map[string]interface{})
}

// CPU holds 6502 register state and executes one instruction per Step.
type CPU struct {
	PC      uint16
	SP      uint8
	A, X, Y uint8
	Flags   uint8
	Cycles  uint32

	Mem MemoryInterface
	Log LoggerInterface
}

// New constructs a CPU wired to mem; log may be nil.
func New(mem MemoryInterface, log LoggerInterface) *CPU {
	c := &CPU{Mem: mem, Log: log}
	c.Reset()
	return c
}

// Reset clears A/X/Y, sets SP=0xFF, clears flags except I=1, loads PC from
// the reset vector, and sets the cycle counter to 6 (the real 6502's reset
// sequence reads the vector over 6 clock cycles before the first
// instruction fetch).
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFF
	c.Flags = FlagUnused | FlagI
	c.PC = c.Mem.ReadWord(VectorRESET)
	c.Cycles = 6
}

// SetPC forces the program counter, used by the debug/test harnesses to
// start execution at a fixed address instead of the reset vector.
func (c *CPU) SetPC(pc uint16) {
	c.PC = pc
}

func (c *CPU) setZN(v uint8) {
	if v == 0 {
		c.Flags |= FlagZ
	} else {
		c.Flags &^= FlagZ
	}
	if v&0x80 != 0 {
		c.Flags |= FlagN
	} else {
		c.Flags &^= FlagN
	}
}

func setBit(flags uint8, bit uint8, set bool) uint8 {
	if set {
		return flags | bit
	}
	return flags &^ bit
}

func (c *CPU) push(v uint8) {
	c.Mem.WriteByte(0x0100+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pop() uint8 {
	c.SP++
	return c.Mem.ReadByte(0x0100 + uint16(c.SP))
}

func (c *CPU) pushWord(v uint16) {
	c.push(uint8(v >> 8))
	c.push(uint8(v & 0xFF))
}

func (c *CPU) popWord() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

// IRQ services a maskable interrupt: if the I flag is set, the request is
// ignored. Otherwise it pushes PC and flags (with B clear) and jumps
// through the IRQ/BRK vector. CIA1 and the VIC call this directly and
// synchronously — the interrupt line is level-triggered, so re-asserting
// it while I is already set is simply a no-op, matching the cooperative
// single-threaded outer loop's expectations.
func (c *CPU) IRQ() {
	if c.Flags&FlagI != 0 {
		return
	}
	c.pushWord(c.PC)
	c.push((c.Flags | FlagUnused) &^ FlagB)
	c.Flags |= FlagI
	c.PC = c.Mem.ReadWord(VectorIRQ)
	c.Cycles += 7
}

// NMI services a non-maskable interrupt unconditionally. CIA2 calls this
// directly. The I flag is left unchanged, matching the real chip.
func (c *CPU) NMI() {
	c.pushWord(c.PC)
	c.push((c.Flags | FlagUnused) &^ FlagB)
	c.PC = c.Mem.ReadWord(VectorNMI)
	c.Cycles += 7
}

// Step fetches, decodes, and executes one instruction, returning false if
// the opcode is unrecognized (the opcode table entry for every illegal
// opcode is nil) rather than silently advancing PC by a guessed length.
func (c *CPU) Step() (bool, error) {
	opcode := c.Mem.ReadByte(c.PC)
	c.PC++

	entry := &opcodeTable[opcode]
	if entry.exec == nil {
		if c.Log != nil {
			c.Log.LogCPU(debug.LogLevelError, "unknown opcode", map[string]interface{}{"opcode": opcode, "pc": c.PC - 1})
		}
		return false, nil
	}

	entry.exec(c, entry.mode)
	c.Cycles += uint32(entry.cycles)

	if c.Log != nil {
		c.Log.LogCPU(debug.LogLevelTrace, entry.name, map[string]interface{}{"pc": c.PC, "a": c.A, "x": c.X, "y": c.Y})
	}

	return true, nil
}

// GetPC returns the current program counter (used by the debug subcommand
// and by tests that assert on control flow).
func (c *CPU) GetPC() uint16 { return c.PC }

// CyclesElapsed returns the free-running cycle counter, satisfying the
// narrow CPU interfaces the CIA and VIC step against (a method is used
// rather than direct field access so those packages don't need the
// concrete *cpu6502.CPU type).
func (c *CPU) CyclesElapsed() uint32 { return c.Cycles }
