// Package memory implements the C64's bank-switched 64 KiB address space:
// flat RAM, mirrored BASIC/CHARGEN/KERNAL ROM images, and dispatch of the
// VIC-II and CIA I/O windows, all multiplexed by the processor port at
// address 0x0001.
package memory

import (
	"fmt"
	"os"

	"c64/internal/debug"
)

// Bank slot states. Only three slots are meaningful: Kernal, Basic, Charen.
const (
	bankRom uint8 = iota
	bankRam
	bankIo
)

const (
	slotBasic  = 0
	slotCharen = 1
	slotKernal = 2
)

// Layout-byte bits at address 0x0001.
const (
	LORAM  = 1 << 0
	HIRAM  = 1 << 1
	CHAREN = 1 << 2
)

// Fixed addresses with dedicated behavior.
const (
	AddrMemoryLayout = 0x0001
	AddrResetVector  = 0xFFFC
	AddrIRQVector    = 0xFFFE
	AddrNMIVector    = 0xFFFA

	BaseAddrBasic  = 0xA000
	BaseAddrChars  = 0xD000
	BaseAddrKernal = 0xE000

	basicLastPage  = 0xBF00
	charLastPage   = 0xD3FF
	kernalLastPage = 0xFF00

	cia1Page = 0xDC00
	cia2Page = 0xDD00
)

// IODevice is the contract Memory dispatches register reads/writes to for
// the VIC-II and CIA windows. addr is pre-masked by the caller (0x7F for
// VIC, 0x0F for CIA).
type IODevice interface {
	ReadRegister(addr uint8) uint8
	WriteRegister(addr uint8, v uint8)
}

// Memory is the root data owner of the emulated machine: a flat RAM image,
// a flat ROM image (only the BASIC/CHARGEN/KERNAL windows populated), and
// the three re-mappable bank slots that route 0xA000-0xBFFF, 0xD000-0xDFFF
// to RAM, ROM, or a device.
type Memory struct {
	ram [0x10000]uint8
	rom [0x10000]uint8

	banks [3]uint8 // indexed by slotBasic/slotCharen/slotKernal

	vic  IODevice
	cia1 IODevice
	cia2 IODevice

	vicBankOffset uint16

	logger *debug.Logger
}

// New constructs Memory with the default post-reset layout
// (LORAM|HIRAM|CHAREN: BASIC and KERNAL ROM visible, I/O at 0xD000).
func New() *Memory {
	m := &Memory{}
	m.setupBanks(LORAM | HIRAM | CHAREN)
	return m
}

// SetLogger attaches a debug logger; nil disables logging.
func (m *Memory) SetLogger(l *debug.Logger) {
	m.logger = l
}

// AttachDevices wires the I/O devices dispatched to by the Char/IO window
// and the two CIA pages. Called once by the owning machine container after
// all components exist (resolves the CPU/VIC/CIA/Memory cyclic graph, per
// the single-owner construction strategy).
func (m *Memory) AttachDevices(vic, cia1, cia2 IODevice) {
	m.vic = vic
	m.cia1 = cia1
	m.cia2 = cia2
}

// ReadByte returns the byte visible at addr under the current bank
// configuration, dispatching to a device where the page is mapped I/O.
func (m *Memory) ReadByte(addr uint16) uint8 {
	page := addr & 0xFF00

	switch {
	case addr == AddrMemoryLayout:
		return m.ram[addr]
	case page >= BaseAddrChars && addr <= charLastPage:
		switch m.banks[slotCharen] {
		case bankIo:
			return m.readIO(addr)
		case bankRom:
			return m.rom[addr]
		default:
			return m.ram[addr]
		}
	case page == cia1Page:
		if m.banks[slotCharen] == bankIo && m.cia1 != nil {
			return m.cia1.ReadRegister(uint8(addr & 0x0F))
		}
		return m.ram[addr]
	case page == cia2Page:
		if m.banks[slotCharen] == bankIo && m.cia2 != nil {
			return m.cia2.ReadRegister(uint8(addr & 0x0F))
		}
		return m.ram[addr]
	case page >= BaseAddrBasic && page <= basicLastPage:
		if m.banks[slotBasic] == bankRom {
			return m.rom[addr]
		}
		return m.ram[addr]
	case page >= BaseAddrKernal && page <= kernalLastPage:
		if m.banks[slotKernal] == bankRom {
			return m.rom[addr]
		}
		return m.ram[addr]
	default:
		return m.ram[addr]
	}
}

// readIO dispatches the VIC or char-ROM window at 0xD000-0xD3FF. The VIC
// only answers in its first page (0xD000-0xD3FF); CHARGEN ROM/RAM do not
// extend past that in the Charen slot's IO state, matching the real
// chip-select wiring at 0xD000-0xD3FF (VIC), 0xD400-0xD7FF (SID, unused
// here), 0xD800-0xDBFF (color RAM, RAM-backed), 0xDC00 (CIA1), 0xDD00
// (CIA2).
func (m *Memory) readIO(addr uint16) uint8 {
	switch {
	case addr >= 0xD000 && addr <= 0xD3FF:
		if m.vic != nil {
			return m.vic.ReadRegister(uint8(addr & 0x7F))
		}
		return m.ram[addr]
	default:
		// 0xD400-0xDBFF: SID (not emulated) and color RAM both live here
		// in real hardware; color RAM stays addressable as plain RAM,
		// which is all the VIC-II rendering path needs.
		return m.ram[addr]
	}
}

// WriteByte stores to RAM by default, to a device register when the page
// is mapped I/O, and reconfigures the banks as a side effect of writing
// address 0x0001.
func (m *Memory) WriteByte(addr uint16, v uint8) {
	page := addr & 0xFF00

	switch {
	case addr == AddrMemoryLayout:
		m.setupBanks(v)
		return
	case page >= BaseAddrChars && addr <= charLastPage:
		if m.banks[slotCharen] == bankIo {
			m.writeIO(addr, v)
			return
		}
		m.ram[addr] = v
		return
	case page == cia1Page:
		if m.banks[slotCharen] == bankIo && m.cia1 != nil {
			m.cia1.WriteRegister(uint8(addr&0x0F), v)
			return
		}
		m.ram[addr] = v
		return
	case page == cia2Page:
		if m.banks[slotCharen] == bankIo && m.cia2 != nil {
			m.cia2.WriteRegister(uint8(addr&0x0F), v)
			return
		}
		m.ram[addr] = v
		return
	default:
		// ROM windows are never writable; writes fall through to the
		// backing RAM cell even when the slot currently reads ROM.
		m.ram[addr] = v
	}
}

func (m *Memory) writeIO(addr uint16, v uint8) {
	if addr >= 0xD000 && addr <= 0xD3FF && m.vic != nil {
		m.vic.WriteRegister(uint8(addr&0x7F), v)
		return
	}
	m.ram[addr] = v
}

// ReadWord reads a little-endian 16-bit word.
func (m *Memory) ReadWord(addr uint16) uint16 {
	lo := uint16(m.ReadByte(addr))
	hi := uint16(m.ReadByte(addr + 1))
	return hi<<8 | lo
}

// WriteWord writes a little-endian 16-bit word.
func (m *Memory) WriteWord(addr uint16, v uint16) {
	m.WriteByte(addr, uint8(v&0xFF))
	m.WriteByte(addr+1, uint8(v>>8))
}

// VICReadByte is a RAM-only read bypassing I/O and ROM dispatch, used by
// the VIC to fetch graphics data — the VIC-II address bus never sees the
// CPU's bank configuration. It adds the 16 KiB bank offset CIA2's PRA
// selects, wrapping within the 64 KiB RAM image.
func (m *Memory) VICReadByte(addr uint16) uint8 {
	return m.ram[(addr+m.vicBankOffset)&0xFFFF]
}

// SetVICBank sets the 16 KiB window (0-3) the VIC-II reads graphics data
// from, derived from CIA2's PRA low two bits (inverted, per the real
// chip's active-low bank-select lines).
func (m *Memory) SetVICBank(bank uint8) {
	m.vicBankOffset = uint16(bank&0x03) * 0x4000
}

// ReadByteNoIO reads straight from RAM, bypassing bank dispatch entirely.
// Used by the debug subcommand's load/display commands, which inspect raw
// storage rather than the CPU's current view of the bus.
func (m *Memory) ReadByteNoIO(addr uint16) uint8 {
	return m.ram[addr]
}

// WriteByteNoIO writes straight to RAM, bypassing bank dispatch.
func (m *Memory) WriteByteNoIO(addr uint16, v uint8) {
	m.ram[addr] = v
}

// setupBanks derives the three bank states from the LORAM/HIRAM/CHAREN
// bits and mirrors the configuration byte into RAM at 0x0001.
func (m *Memory) setupBanks(config uint8) {
	hiram := config&HIRAM != 0
	loram := config&LORAM != 0
	charen := config&CHAREN != 0

	if hiram {
		m.banks[slotKernal] = bankRom
	} else {
		m.banks[slotKernal] = bankRam
	}

	if loram && hiram {
		m.banks[slotBasic] = bankRom
	} else {
		m.banks[slotBasic] = bankRam
	}

	switch {
	case charen && (loram || hiram):
		m.banks[slotCharen] = bankIo
	case charen:
		m.banks[slotCharen] = bankRam
	default:
		m.banks[slotCharen] = bankRom
	}

	m.ram[AddrMemoryLayout] = config

	if m.logger != nil {
		m.logger.LogMemoryf(debug.LogLevelDebug, "bank config=%02X kernal=%d basic=%d charen=%d",
			config, m.banks[slotKernal], m.banks[slotBasic], m.banks[slotCharen])
	}
}

// LoadROM loads a headerless binary ROM image of exactly size bytes at
// base into the ROM image.
func (m *Memory) LoadROM(path string, base uint16, size int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("memory: load ROM %s: %w", path, err)
	}
	if len(data) != size {
		return fmt.Errorf("memory: ROM %s is %d bytes, want %d", path, len(data), size)
	}
	copy(m.rom[base:], data)
	return nil
}

// LoadRAM loads a raw binary image directly into RAM at base, for test
// fixtures such as Klaus Dormann's 6502 functional test image.
func (m *Memory) LoadRAM(path string, base uint16) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("memory: load RAM image %s: %w", path, err)
	}
	for i, b := range data {
		addr := int(base) + i
		if addr > 0xFFFF {
			break
		}
		m.ram[addr] = b
	}
	return nil
}
