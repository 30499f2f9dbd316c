package machine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"c64/internal/cia"
	"c64/internal/host"
	"c64/internal/romimage"
)

func TestRunC64StopsWhenHostQuits(t *testing.T) {
	h := host.NewHeadless()
	m := New(h, nil)

	// Unmap the (empty) ROMs so the RAM-resident reset vector and NOP
	// program are what the CPU sees.
	m.Memory.WriteByte(0x0001, 0x00)
	m.Memory.WriteByteNoIO(0xFFFC, 0x00)
	m.Memory.WriteByteNoIO(0xFFFD, 0x80)
	m.Memory.WriteByteNoIO(0x8000, 0xEA)
	m.CPU.Reset()

	h.QuitRequested = true
	startCycles := m.CPU.Cycles

	if err := m.RunC64(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.CPU.Cycles <= startCycles {
		t.Fatalf("expected at least one CPU step to have run before the host quit")
	}
}

func TestRunC64RespectsContextCancellation(t *testing.T) {
	h := host.NewHeadless()
	m := New(h, nil)
	m.Memory.WriteByte(0x0001, 0x00)
	m.Memory.WriteByteNoIO(0xFFFC, 0x00)
	m.Memory.WriteByteNoIO(0xFFFD, 0x80)
	m.Memory.WriteByteNoIO(0x8000, 0xEA)
	m.CPU.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.RunC64(ctx); err == nil {
		t.Fatalf("expected context cancellation to surface as an error")
	}
}

func TestRunC64HaltsOnUnknownOpcode(t *testing.T) {
	h := host.NewHeadless()
	m := New(h, nil)
	m.Memory.WriteByte(0x0001, 0x00)
	m.Memory.WriteByteNoIO(0xFFFC, 0x00)
	m.Memory.WriteByteNoIO(0xFFFD, 0x80)
	m.Memory.WriteByteNoIO(0x8000, 0x02) // illegal opcode
	m.CPU.Reset()

	if err := m.RunC64(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// CIA2's PRA write must reach the memory system's VIC bank selector
// through the whole wiring path: Memory register dispatch -> CIA2 ->
// OnPRAWrite -> Memory.SetVICBank.
func TestCIA2PRAWiresVICBank(t *testing.T) {
	h := host.NewHeadless()
	m := New(h, nil)

	m.Memory.WriteByte(0xDD00+cia.RegPRA, ^uint8(0x01)) // select bank 1

	m.Memory.WriteByteNoIO(0x4000, 0x7F)
	if got := m.Memory.VICReadByte(0x0000); got != 0x7F {
		t.Fatalf("expected CIA2 PRA write to select VIC bank 1, got %#02x", got)
	}
}

func TestLoadROMsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	basicPath := filepath.Join(dir, "basic.bin")
	charsPath := filepath.Join(dir, "chars.bin")
	kernalPath := filepath.Join(dir, "kernal.bin")

	basic := make([]byte, romimage.BasicSize)
	basic[0] = 0xAA
	chars := make([]byte, romimage.CharsSize)
	chars[0] = 0xBB
	kernal := make([]byte, romimage.KernalSize)
	kernal[0] = 0xCC
	kernal[0xFFFC-romimage.KernalBase] = 0x12 // reset vector -> 0xFE12
	kernal[0xFFFD-romimage.KernalBase] = 0xFE

	if err := os.WriteFile(basicPath, basic, 0o644); err != nil {
		t.Fatalf("write basic fixture: %v", err)
	}
	if err := os.WriteFile(charsPath, chars, 0o644); err != nil {
		t.Fatalf("write chars fixture: %v", err)
	}
	if err := os.WriteFile(kernalPath, kernal, 0o644); err != nil {
		t.Fatalf("write kernal fixture: %v", err)
	}

	h := host.NewHeadless()
	m := New(h, nil)
	if err := m.LoadROMs(romimage.Set{Basic: basicPath, Chars: charsPath, Kernal: kernalPath}); err != nil {
		t.Fatalf("LoadROMs failed: %v", err)
	}

	m.Memory.WriteByte(0x0001, 0x07) // LORAM|HIRAM|CHAREN: BASIC and KERNAL ROM visible
	if got := m.Memory.ReadByte(romimage.BasicBase); got != 0xAA {
		t.Fatalf("expected BASIC ROM byte 0xAA visible, got %#02x", got)
	}
	if got := m.Memory.ReadByte(romimage.KernalBase); got != 0xCC {
		t.Fatalf("expected KERNAL ROM byte 0xCC visible, got %#02x", got)
	}

	// LoadROMs resets the CPU after the images land, so the boot PC comes
	// from the KERNAL's reset vector, not the zero ROM seen at construction.
	if m.CPU.GetPC() != 0xFE12 {
		t.Fatalf("expected boot PC 0xFE12 from the loaded reset vector, got %#04x", m.CPU.GetPC())
	}
}
