// Package vic implements the VIC-II video chip: the raster loop, the
// register file at 0x00-0x3F, the character and bitmap renderers (plain
// and multicolor; ExitBgMode and IllegalMode draw nothing), and the
// 8-sprite engine. It drives a host-owned frame buffer through the
// narrow Display interface rather than holding any pixels itself.
package vic

import "c64/internal/debug"

// GraphicsMode is the tagged selector derived from CR1/CR2, matched in
// the raster renderer rather than expressed as polymorphic drawers.
type GraphicsMode int

const (
	CharMode GraphicsMode = iota
	MCCharMode
	BitmapMode
	MCBitmapMode
	ExitBgMode
	IllegalMode
)

// Timing and geometry constants.
const (
	ScreenLines      = 312
	LineCycles       = 63
	BadLineCycles    = 23
	FirstVisibleLine = 14
	LastVisibleLine  = 298
	spritePtrsOffset = 0x3F8
	spriteSize       = 64

	gResX      = 320
	gResY      = 200
	gCols      = 40
	gFirstLine = 56
	gLastLine  = 256
	gFirstCol  = 42

	spriteHeight     = 21
	spritesFirstLine = 6
	spritesFirstCol  = 18
)

// Default memory pointer bases, mirroring the reset-time layout of the
// real chip's memory-pointers register.
const (
	baseAddrScreen = 0x0400
	baseAddrChars  = 0xD000
	baseAddrBitmap = 0x0000
	addrColorRAM   = 0xD800
)

// CPU is the narrow contract the VIC needs from the processor: its
// free-running cycle counter and the ability to raise its interrupt line.
type CPU interface {
	CyclesElapsed() uint32
	IRQ()
}

// Memory is the narrow contract the VIC needs from the bus: graphics
// fetches bypass bank switching entirely (VICReadByte), while color RAM
// is read through the raw RAM view since it is never bank-switched.
type Memory interface {
	VICReadByte(addr uint16) uint8
	ReadByteNoIO(addr uint16) uint8
}

// Display is the subset of the host adapter contract the VIC drives. It
// intentionally matches host.Adapter's drawing methods structurally so
// any Adapter implementation can be passed here without an import.
type Display interface {
	ScreenUpdatePixel(x, y int, colorIndex uint8)
	ScreenDrawRect(x, y, width int, colorIndex uint8)
	ScreenDrawBorder(y int, colorIndex uint8)
	ScreenRefresh()
}

// VIC holds the chip's register file and raster state.
type VIC struct {
	mem     Memory
	cpu     CPU
	display Display

	mx, my             [8]uint8
	msbx               uint8
	spriteEnabled      uint8
	spritePriority     uint8
	spriteMulticolor   uint8
	spriteDoubleWidth  uint8
	spriteDoubleHeight uint8
	spriteSharedColors [2]uint8
	spriteColors       [8]uint8

	borderColor uint8
	bgColor     [4]uint8

	cr1, cr2 uint8

	nextRasterAt uint32
	frameCounter uint32
	rasterC      uint8
	rasterIRQ    int32

	irqStatus  uint8
	irqEnabled uint8

	screenMem, charMem, bitmapMem uint16
	memPointers                   uint8

	graphicMode GraphicsMode

	logger *debug.Logger
}

// New constructs a VIC wired to mem, cpu, and the host display sink.
func New(mem Memory, cpu CPU, display Display) *VIC {
	v := &VIC{
		mem:          mem,
		cpu:          cpu,
		display:      display,
		nextRasterAt: LineCycles,
		screenMem:    baseAddrScreen,
		charMem:      baseAddrChars,
		bitmapMem:    baseAddrBitmap,
		memPointers:  1 << 0,
		graphicMode:  CharMode,
	}
	return v
}

// SetLogger attaches a debug logger; nil disables logging.
func (v *VIC) SetLogger(l *debug.Logger) { v.logger = l }

// Step advances the raster state machine by one call. It re-raises the
// CPU's interrupt line while a raster IRQ is unacknowledged, then, once
// enough CPU cycles have elapsed to reach the next raster line, checks
// the raster compare, renders the line if visible, and advances the
// raster counter — refreshing the host display and bumping the frame
// counter on wraparound.
func (v *VIC) Step() bool {
	if v.ReadRegister(0x19)&0x80 != 0 {
		v.cpu.IRQ()
	}

	if v.cpu.CyclesElapsed() < v.nextRasterAt {
		return true
	}

	rstr := v.rasterCounter()

	if v.rasterIRQEnabled() && rstr == v.rasterIRQ {
		v.irqStatus |= 1 << 0
		v.cpu.IRQ()
		if v.logger != nil {
			v.logger.LogVIC(debug.LogLevelDebug, "raster IRQ", map[string]interface{}{"line": rstr})
		}
	}

	if rstr >= FirstVisibleLine && rstr < LastVisibleLine {
		screenY := rstr - FirstVisibleLine
		v.display.ScreenDrawBorder(int(screenY), v.borderColor)

		switch v.graphicMode {
		case CharMode, MCCharMode:
			v.drawRasterCharMode(rstr, screenY)
		case BitmapMode, MCBitmapMode:
			v.drawRasterBitmapMode(rstr, screenY)
		default:
			// ExitBgMode and IllegalMode draw nothing for this line.
		}

		v.drawRasterSprites(rstr, screenY)
	}

	if v.isBadLine() {
		if v.logger != nil {
			v.logger.LogVIC(debug.LogLevelTrace, "bad line", map[string]interface{}{"line": rstr})
		}
		v.nextRasterAt += BadLineCycles
	} else {
		v.nextRasterAt += LineCycles
	}

	next := rstr + 1
	if next >= ScreenLines {
		v.display.ScreenRefresh()
		v.frameCounter++
		next = 0
	}
	v.setRasterCounter(next)
	return true
}

// GetRaster and GetFrameCounter implement debug.VICStateReader.
func (v *VIC) GetRaster() uint16       { return uint16(v.rasterCounter()) }
func (v *VIC) GetFrameCounter() uint32 { return v.frameCounter }

// ReadRegister implements memory.IODevice. addr is already masked to 0x7F
// by the memory dispatcher; only 0x00-0x3F are chip-select connected.
func (v *VIC) ReadRegister(addr uint8) uint8 {
	switch {
	case addr <= 0x0F:
		if addr%2 == 0 {
			return v.mx[addr>>1]
		}
		return v.my[addr>>1]
	case addr == 0x10:
		return v.msbx
	case addr == 0x11:
		return v.cr1
	case addr == 0x12:
		return v.rasterC
	case addr == 0x15:
		return v.spriteEnabled
	case addr == 0x16:
		return v.cr2
	case addr == 0x17:
		return v.spriteDoubleHeight
	case addr == 0x18:
		return v.memPointers
	case addr == 0x19:
		retval := v.irqStatus & 0xF
		if retval != 0 {
			retval |= 0x80
		}
		retval |= 0x70
		return retval
	case addr == 0x1A:
		return 0xF0 | v.irqEnabled
	case addr == 0x1B:
		return v.spritePriority
	case addr == 0x1C:
		return v.spriteMulticolor
	case addr == 0x1D:
		return v.spriteDoubleWidth
	case addr == 0x20:
		return v.borderColor
	case addr >= 0x21 && addr <= 0x24:
		return v.bgColor[addr-0x21]
	case addr >= 0x25 && addr <= 0x26:
		return v.spriteSharedColors[addr-0x25]
	case addr >= 0x27 && addr <= 0x2E:
		return v.spriteColors[addr-0x27]
	default:
		return 0xFF
	}
}

// WriteRegister implements memory.IODevice.
func (v *VIC) WriteRegister(addr uint8, val uint8) {
	switch {
	case addr <= 0x0F:
		if addr%2 == 0 {
			v.mx[addr>>1] = val
		} else {
			v.my[addr>>1] = val
		}
	case addr == 0x10:
		v.msbx = val
	case addr == 0x11:
		v.cr1 = val & 0x7F
		v.rasterIRQ = (v.rasterIRQ & 0xFF) | (int32(val&0x80) << 1)
		v.setGraphicMode()
	case addr == 0x12:
		v.rasterIRQ = int32(val) | (v.rasterIRQ & (1 << 8))
	case addr == 0x15:
		v.spriteEnabled = val
	case addr == 0x16:
		v.cr2 = val
		v.setGraphicMode()
	case addr == 0x17:
		v.spriteDoubleHeight = val
	case addr == 0x18:
		v.charMem = uint16(val&0x0E) << 10
		v.screenMem = uint16(val&0xF0) << 6
		v.bitmapMem = uint16(val&0x08) << 10
		v.memPointers = val | (1 << 0)
	case addr == 0x19:
		v.irqStatus &^= val & 0xF
	case addr == 0x1A:
		v.irqEnabled = val
	case addr == 0x1B:
		v.spritePriority = val
	case addr == 0x1C:
		v.spriteMulticolor = val
	case addr == 0x1D:
		v.spriteDoubleWidth = val
	case addr == 0x20:
		v.borderColor = val
	case addr >= 0x21 && addr <= 0x24:
		v.bgColor[addr-0x21] = val
	case addr >= 0x25 && addr <= 0x26:
		v.spriteSharedColors[addr-0x25] = val
	case addr >= 0x27 && addr <= 0x2E:
		v.spriteColors[addr-0x27] = val
	}
}

func (v *VIC) rasterIRQEnabled() bool { return v.irqEnabled&0x01 != 0 }

func (v *VIC) rasterCounter() int32 {
	return int32(v.rasterC) | (int32(v.cr1&0x80) << 1)
}

func (v *VIC) setRasterCounter(val int32) {
	v.rasterC = uint8(val & 0xFF)
	v.cr1 = (v.cr1 &^ 0x80) | uint8((val>>1)&0x80)
}

func (v *VIC) isScreenOff() bool { return v.cr1&(1<<4) == 0 }

func (v *VIC) isBadLine() bool {
	rstr := v.rasterCounter()
	return rstr >= 0x30 && rstr <= 0xF7 && (rstr&0x7) == int32(v.verticalScroll()&0x7)
}

func (v *VIC) verticalScroll() uint8   { return v.cr1 & 0x7 }
func (v *VIC) horizontalScroll() uint8 { return v.cr2 & 0x7 }

func (v *VIC) isSpriteEnabled(n int) bool      { return v.spriteEnabled&(1<<uint(n)) != 0 }
func (v *VIC) isDoubleWidthSprite(n int) bool  { return v.spriteDoubleWidth&(1<<uint(n)) != 0 }
func (v *VIC) isDoubleHeightSprite(n int) bool { return v.spriteDoubleHeight&(1<<uint(n)) != 0 }
func (v *VIC) isMulticolorSprite(n int) bool   { return v.spriteMulticolor&(1<<uint(n)) != 0 }

func (v *VIC) spriteX(n int) int32 {
	x := int32(v.mx[n])
	if v.msbx&(1<<uint(n)) != 0 {
		x |= 1 << 8
	}
	return x
}

func (v *VIC) setGraphicMode() {
	ecm := v.cr1&(1<<6) != 0
	bmm := v.cr1&(1<<5) != 0
	mcm := v.cr2&(1<<4) != 0

	switch {
	case !ecm && !bmm && !mcm:
		v.graphicMode = CharMode
	case !ecm && !bmm && mcm:
		v.graphicMode = MCCharMode
	case !ecm && bmm && !mcm:
		v.graphicMode = BitmapMode
	case !ecm && bmm && mcm:
		v.graphicMode = MCBitmapMode
	case ecm && !bmm && !mcm:
		v.graphicMode = ExitBgMode
	default:
		v.graphicMode = IllegalMode
	}
}
