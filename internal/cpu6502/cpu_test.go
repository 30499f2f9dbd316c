package cpu6502

import "testing"

// fakeMemory is a flat 64 KiB array satisfying MemoryInterface, used so
// CPU tests don't depend on internal/memory.
type fakeMemory struct {
	ram [0x10000]uint8
}

func (m *fakeMemory) ReadByte(addr uint16) uint8     { return m.ram[addr] }
func (m *fakeMemory) WriteByte(addr uint16, v uint8) { m.ram[addr] = v }
func (m *fakeMemory) ReadWord(addr uint16) uint16 {
	lo := uint16(m.ram[addr])
	hi := uint16(m.ram[addr+1])
	return hi<<8 | lo
}

func newTestCPU() (*CPU, *fakeMemory) {
	mem := &fakeMemory{}
	mem.WriteByte(VectorRESET, 0x00)
	mem.WriteByte(VectorRESET+1, 0x80)
	return New(mem, nil), mem
}

func TestResetVector(t *testing.T) {
	cpu, _ := newTestCPU()
	if cpu.PC != 0x8000 {
		t.Fatalf("expected PC=0x8000 after reset, got %#04x", cpu.PC)
	}
	if cpu.SP != 0xFF {
		t.Fatalf("expected SP=0xFF after reset, got %#02x", cpu.SP)
	}
	if cpu.Flags&FlagI == 0 {
		t.Fatalf("expected I flag set after reset")
	}
}

// Binary ADC of two positive values overflowing into the sign bit:
// A=0x50 + 0x50 gives 0xA0 with N and V set, Z and C clear.
func TestADCBinaryOverflow(t *testing.T) {
	cpu, _ := newTestCPU()
	cpu.A = 0x50
	cpu.Flags &^= FlagC | FlagD
	cpu.adc(0x50)

	if cpu.A != 0xA0 {
		t.Fatalf("expected A=0xA0, got %#02x", cpu.A)
	}
	if cpu.Flags&FlagN == 0 {
		t.Fatalf("expected N set")
	}
	if cpu.Flags&FlagV == 0 {
		t.Fatalf("expected V set")
	}
	if cpu.Flags&FlagZ != 0 {
		t.Fatalf("expected Z clear")
	}
	if cpu.Flags&FlagC != 0 {
		t.Fatalf("expected C clear")
	}
}

// Decimal-mode ADC: BCD 25 + 27 = 52 with no carry out.
func TestADCDecimal(t *testing.T) {
	cpu, _ := newTestCPU()
	cpu.A = 0x25
	cpu.Flags &^= FlagC
	cpu.Flags |= FlagD
	cpu.adc(0x27)

	if cpu.A != 0x52 {
		t.Fatalf("expected A=0x52, got %#02x", cpu.A)
	}
	if cpu.Flags&FlagC != 0 {
		t.Fatalf("expected C clear")
	}
}

// Binary SBC borrowing across zero: 0x50 - 0xF0 with no borrow in gives
// 0x60 with C clear. Signed, that is +80 - (-16) = +96, which fits in a
// byte, so V stays clear.
func TestSBCBinaryBorrow(t *testing.T) {
	cpu, _ := newTestCPU()
	cpu.A = 0x50
	cpu.Flags |= FlagC
	cpu.Flags &^= FlagD
	cpu.sbc(0xF0)

	if cpu.A != 0x60 {
		t.Fatalf("expected A=0x60, got %#02x", cpu.A)
	}
	if cpu.Flags&FlagC != 0 {
		t.Fatalf("expected C clear (borrow occurred), got flags=%#02x", cpu.Flags)
	}
	if cpu.Flags&FlagV != 0 {
		t.Fatalf("expected V clear (no signed overflow), got flags=%#02x", cpu.Flags)
	}
}

// LDA #$42 / STA $0200: after two steps the value lands in memory, A
// holds it, and PC sits past both instructions.
func TestLDAThenSTA(t *testing.T) {
	cpu, mem := newTestCPU()
	prog := []uint8{0xA9, 0x42, 0x8D, 0x00, 0x02, 0x00}
	for i, b := range prog {
		mem.WriteByte(uint16(i), b)
	}
	cpu.SetPC(0)

	for i := 0; i < 2; i++ {
		if ok, err := cpu.Step(); err != nil || !ok {
			t.Fatalf("step %d failed: ok=%v err=%v", i, ok, err)
		}
	}

	if mem.ram[0x0200] != 0x42 {
		t.Fatalf("expected memory[0x0200]=0x42, got %#02x", mem.ram[0x0200])
	}
	if cpu.A != 0x42 {
		t.Fatalf("expected A=0x42, got %#02x", cpu.A)
	}
	if cpu.PC != 5 {
		t.Fatalf("expected PC=5, got %d", cpu.PC)
	}
}

func TestCycleMonotonicity(t *testing.T) {
	cpu, mem := newTestCPU()
	mem.WriteByte(0, 0xEA) // NOP
	mem.WriteByte(1, 0xEA)
	cpu.SetPC(0)

	prev := cpu.Cycles
	for i := 0; i < 2; i++ {
		cpu.Step()
		if cpu.Cycles < prev {
			t.Fatalf("cycle count decreased: %d -> %d", prev, cpu.Cycles)
		}
		prev = cpu.Cycles
	}
}

func TestStackRoundTrip(t *testing.T) {
	cpu, _ := newTestCPU()
	sp := cpu.SP
	cpu.push(0x42)
	if v := cpu.pop(); v != 0x42 {
		t.Fatalf("expected 0x42 back from stack, got %#02x", v)
	}
	if cpu.SP != sp {
		t.Fatalf("SP did not return to prior value: %#02x vs %#02x", cpu.SP, sp)
	}
}

func TestStatusRoundTrip(t *testing.T) {
	cpu, _ := newTestCPU()
	cpu.Flags = 0xFF &^ (FlagB | FlagUnused)
	before := cpu.Flags

	opPHP(cpu, modeImplied)
	cpu.Flags = 0 // scramble
	opPLP(cpu, modeImplied)

	observableMask := uint8(0xFF) &^ (FlagB | FlagUnused)
	if cpu.Flags&observableMask != before&observableMask {
		t.Fatalf("PHP/PLP did not restore observable flags: got %#02x want %#02x", cpu.Flags&observableMask, before&observableMask)
	}
}

func TestUnknownOpcodeHalts(t *testing.T) {
	cpu, mem := newTestCPU()
	mem.WriteByte(0, 0x02) // illegal opcode
	cpu.SetPC(0)

	ok, err := cpu.Step()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected Step to report halted on unknown opcode")
	}
}

func TestIRQIgnoredWhenIFlagSet(t *testing.T) {
	cpu, mem := newTestCPU()
	mem.WriteByte(VectorIRQ, 0x00)
	mem.WriteByte(VectorIRQ+1, 0x90)
	cpu.Flags |= FlagI
	pc := cpu.PC

	cpu.IRQ()

	if cpu.PC != pc {
		t.Fatalf("expected IRQ to be ignored while I flag is set")
	}
}

func TestIRQServicedWhenIFlagClear(t *testing.T) {
	cpu, mem := newTestCPU()
	mem.WriteByte(VectorIRQ, 0x00)
	mem.WriteByte(VectorIRQ+1, 0x90)
	cpu.Flags &^= FlagI

	cpu.IRQ()

	if cpu.PC != 0x9000 {
		t.Fatalf("expected PC=0x9000 after IRQ, got %#04x", cpu.PC)
	}
	if cpu.Flags&FlagI == 0 {
		t.Fatalf("expected I flag set after servicing IRQ")
	}
}
