package memory

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBankIdempotence(t *testing.T) {
	m := New()
	m.WriteByte(AddrMemoryLayout, 0x07)
	first := m.banks
	m.WriteByte(AddrMemoryLayout, 0x07)
	second := m.banks
	if first != second {
		t.Fatalf("bank state changed across identical writes: %v vs %v", first, second)
	}
}

func TestBankSwitch(t *testing.T) {
	m := New()
	m.rom[BaseAddrBasic] = 0xE0

	m.WriteByte(AddrMemoryLayout, 0x37)
	if got := m.ReadByte(BaseAddrBasic); got != 0xE0 {
		t.Fatalf("expected BASIC ROM byte 0xE0, got %#02x", got)
	}

	m.ram[BaseAddrBasic] = 0x42
	m.WriteByte(AddrMemoryLayout, 0x35)
	if got := m.ReadByte(BaseAddrBasic); got != 0x42 {
		t.Fatalf("expected underlying RAM value 0x42, got %#02x", got)
	}
}

// The ROM windows are inclusive of their last page: 0xBFFF is still BASIC
// ROM and the CPU vectors at 0xFFFA-0xFFFF are still KERNAL ROM.
func TestBankWindowTailBoundaries(t *testing.T) {
	m := New()
	m.rom[0xBFFF] = 0x5A
	m.rom[AddrNMIVector] = 0x11
	m.rom[AddrResetVector] = 0x22
	m.rom[AddrIRQVector] = 0x33
	m.rom[0xFFFF] = 0x44

	m.WriteByte(AddrMemoryLayout, 0x37)

	if got := m.ReadByte(0xBFFF); got != 0x5A {
		t.Fatalf("expected last BASIC ROM byte 0x5A, got %#02x", got)
	}
	if got := m.ReadByte(AddrNMIVector); got != 0x11 {
		t.Fatalf("expected NMI vector from KERNAL ROM, got %#02x", got)
	}
	if got := m.ReadByte(AddrResetVector); got != 0x22 {
		t.Fatalf("expected reset vector from KERNAL ROM, got %#02x", got)
	}
	if got := m.ReadByte(AddrIRQVector); got != 0x33 {
		t.Fatalf("expected IRQ vector from KERNAL ROM, got %#02x", got)
	}
	if got := m.ReadByte(0xFFFF); got != 0x44 {
		t.Fatalf("expected last KERNAL ROM byte 0x44, got %#02x", got)
	}

	m.ram[0xFFFC] = 0x99
	m.WriteByte(AddrMemoryLayout, 0x00)
	if got := m.ReadByte(0xFFFC); got != 0x99 {
		t.Fatalf("expected RAM under the KERNAL window once unmapped, got %#02x", got)
	}
}

func TestDefaultLayoutBasicROMVisible(t *testing.T) {
	m := New()
	if m.banks[slotBasic] != bankRom {
		t.Fatalf("default layout should show BASIC ROM, got bank state %d", m.banks[slotBasic])
	}
}

func TestReadByteNoIOBypassesBanks(t *testing.T) {
	m := New()
	m.rom[BaseAddrBasic] = 0xE0
	m.ram[BaseAddrBasic] = 0x11
	if got := m.ReadByteNoIO(BaseAddrBasic); got != 0x11 {
		t.Fatalf("ReadByteNoIO should read RAM regardless of bank state, got %#02x", got)
	}
}

func TestLoadROMRejectsMissingAndShortImages(t *testing.T) {
	m := New()

	if err := m.LoadROM(filepath.Join(t.TempDir(), "nope.bin"), 0xA000, 8192); err == nil {
		t.Fatalf("expected an error for a missing ROM image")
	}

	short := filepath.Join(t.TempDir(), "short.bin")
	if err := os.WriteFile(short, make([]byte, 100), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := m.LoadROM(short, 0xA000, 8192); err == nil {
		t.Fatalf("expected an error for a short ROM image")
	}
}

type stubDevice struct {
	reads  []uint8
	writes []uint8
	value  uint8
}

func (d *stubDevice) ReadRegister(addr uint8) uint8 {
	d.reads = append(d.reads, addr)
	return d.value
}

func (d *stubDevice) WriteRegister(addr uint8, v uint8) {
	d.writes = append(d.writes, addr)
	d.value = v
}

func TestCIADispatch(t *testing.T) {
	m := New()
	cia1 := &stubDevice{value: 0xAB}
	cia2 := &stubDevice{}
	m.AttachDevices(nil, cia1, cia2)
	m.setupBanks(LORAM | HIRAM | CHAREN)

	if got := m.ReadByte(cia1Page + 0x01); got != 0xAB {
		t.Fatalf("expected CIA1 register dispatch, got %#02x", got)
	}
	if len(cia1.reads) != 1 || cia1.reads[0] != 0x01 {
		t.Fatalf("expected CIA1 register offset 0x01, got %v", cia1.reads)
	}

	m.WriteByte(cia2Page+0x04, 0x99)
	if len(cia2.writes) != 1 || cia2.writes[0] != 0x04 || cia2.value != 0x99 {
		t.Fatalf("expected CIA2 register write, got %v value %#02x", cia2.writes, cia2.value)
	}
}

func TestVICBankWraps(t *testing.T) {
	m := New()
	m.SetVICBank(1)
	m.ram[0x4000] = 0x7F
	if got := m.VICReadByte(0x0000); got != 0x7F {
		t.Fatalf("expected VIC bank offset to reach 0x4000, got %#02x at translated address", got)
	}

	// Bank 3 (offset 0xC000) plus 0x4000 wraps around to RAM address 0.
	m.SetVICBank(3)
	m.ram[0x0000] = 0x5A
	if got := m.VICReadByte(0x4000); got != 0x5A {
		t.Fatalf("expected VIC address to wrap within 64 KiB, got %#02x", got)
	}
}

func TestLoadRAMStopsAt64K(t *testing.T) {
	m := New()
	path := filepath.Join(t.TempDir(), "tail.bin")
	if err := os.WriteFile(path, []byte{0x01, 0x02, 0x03}, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := m.LoadRAM(path, 0xFFFE); err != nil {
		t.Fatalf("LoadRAM failed: %v", err)
	}
	if m.ram[0xFFFE] != 0x01 || m.ram[0xFFFF] != 0x02 {
		t.Fatalf("expected truncated copy at top of address space")
	}
}
