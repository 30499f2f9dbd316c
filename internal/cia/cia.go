// Package cia implements the CIA1/CIA2 Complex Interface Adapter: two
// independent 16-bit interval timers, an interrupt status/control
// register, and the data ports used for keyboard scanning (CIA1) and VIC
// bank selection (CIA2). Both chips share this one implementation; only
// the callbacks passed to New distinguish their roles.
package cia

import "c64/internal/debug"

type runMode int

const (
	runModeRestart runMode = iota
	runModeOneTime
)

// CIA register offsets within the chip's 16-byte window.
const (
	RegPRA           = 0x0
	RegPRB           = 0x1
	RegDDRA          = 0x2
	RegDDRB          = 0x3
	RegTimerALo      = 0x4
	RegTimerAHi      = 0x5
	RegTimerBLo      = 0x6
	RegTimerBHi      = 0x7
	RegInterruptCtrl = 0xD
	RegTimerACtrl    = 0xE
	RegTimerBCtrl    = 0xF
)

// Timer control register bits (0xE/0xF).
const (
	ctrlEnable    = 1 << 0
	ctrlRunMode   = 1 << 3
	ctrlLoadLatch = 1 << 4
	ctrlInputMode = 1 << 5
)

// CIA is one Complex Interface Adapter instance. Interrupt raises the
// chip's interrupt line (cpu.IRQ for CIA1, cpu.NMI for CIA2). KeyboardRow
// is non-nil only for the instance wired as CIA1; it resolves a selected
// keyboard column to the 8-bit row readback.
type CIA struct {
	pra, prb uint8

	timerALatch, timerBLatch     uint16
	timerACounter, timerBCounter int32

	timerAEnabled, timerBEnabled       bool
	timerAIRQEnabled, timerBIRQEnabled bool
	timerATriggered, timerBTriggered   bool
	timerARunMode, timerBRunMode       runMode

	prevCycles uint32

	Interrupt   func()
	KeyboardRow func(col uint8) uint8

	// OnPRAWrite is an optional hook invoked whenever PRA is written; the
	// CIA2 instance wires this to the memory system's VIC bank selector,
	// since CIA2's PRA low two bits (inverted) choose the 16 KiB VIC
	// window within RAM.
	OnPRAWrite func(v uint8)

	logComponent debug.Component
	logger       *debug.Logger
}

// New constructs a CIA. interrupt must not be nil; keyboardRow is nil for
// CIA2 (no matrix attached to its ports).
func New(component debug.Component, interrupt func(), keyboardRow func(col uint8) uint8) *CIA {
	return &CIA{
		pra:          0xFF,
		prb:          0xFF,
		Interrupt:    interrupt,
		KeyboardRow:  keyboardRow,
		logComponent: component,
	}
}

// SetLogger attaches a debug logger; nil disables logging.
func (c *CIA) SetLogger(l *debug.Logger) {
	c.logger = l
}

// PRA returns the last value written to data port A. (The machine derives
// CIA2's VIC bank selection through OnPRAWrite, not through this getter.)
func (c *CIA) PRA() uint8 { return c.pra }

// WriteRegister implements memory.IODevice.
func (c *CIA) WriteRegister(r uint8, v uint8) {
	switch r {
	case RegPRA:
		c.pra = v
		if c.OnPRAWrite != nil {
			c.OnPRAWrite(v)
		}
	case RegPRB:
		c.prb = v
	case RegDDRA, RegDDRB:
		// Direction registers are not modeled; every port bit behaves as
		// an output for the purposes of this emulation.
	case RegTimerALo:
		c.timerALatch = (c.timerALatch & 0xFF00) | uint16(v)
	case RegTimerAHi:
		c.timerALatch = (c.timerALatch & 0x00FF) | uint16(v)<<8
	case RegTimerBLo:
		c.timerBLatch = (c.timerBLatch & 0xFF00) | uint16(v)
	case RegTimerBHi:
		c.timerBLatch = (c.timerBLatch & 0x00FF) | uint16(v)<<8
	case RegInterruptCtrl:
		enable := v&0x80 != 0
		if v&0x01 != 0 {
			c.timerAIRQEnabled = enable
		}
		if v&0x02 != 0 {
			c.timerBIRQEnabled = enable
		}
	case RegTimerACtrl:
		c.timerAEnabled = v&ctrlEnable != 0
		if v&ctrlRunMode != 0 {
			c.timerARunMode = runModeOneTime
		} else {
			c.timerARunMode = runModeRestart
		}
		if v&ctrlLoadLatch != 0 {
			c.timerACounter = int32(c.timerALatch)
		}
	case RegTimerBCtrl:
		c.timerBEnabled = v&ctrlEnable != 0
		if v&ctrlRunMode != 0 {
			c.timerBRunMode = runModeOneTime
		} else {
			c.timerBRunMode = runModeRestart
		}
		if v&ctrlLoadLatch != 0 {
			c.timerBCounter = int32(c.timerBLatch)
		}
	}
}

// ReadRegister implements memory.IODevice.
func (c *CIA) ReadRegister(r uint8) uint8 {
	switch r {
	case RegPRA:
		return c.pra
	case RegPRB:
		if c.KeyboardRow == nil {
			return c.prb
		}
		return c.readKeyboardPRB()
	case RegInterruptCtrl:
		var v uint8
		if c.timerATriggered || c.timerBTriggered {
			v |= 1 << 7
			if c.timerATriggered {
				v |= 1 << 0
			}
			if c.timerBTriggered {
				v |= 1 << 1
			}
		}
		c.timerATriggered = false
		c.timerBTriggered = false
		return v
	default:
		return 0
	}
}

// readKeyboardPRB resolves the row selected by the column(s) driven low
// on PRA. No column selected (PRA==0xFF) reads back as no keys pressed;
// otherwise the rows of every selected column are ANDed together (all
// eight rows when PRA==0x00).
func (c *CIA) readKeyboardPRB() uint8 {
	switch c.pra {
	case 0xFF:
		return 0xFF
	case 0x00:
		result := uint8(0xFF)
		for col := uint8(0); col < 8; col++ {
			result &= c.KeyboardRow(col)
		}
		return result
	default:
		result := uint8(0xFF)
		for col := uint8(0); col < 8; col++ {
			if c.pra&(1<<col) == 0 {
				result &= c.KeyboardRow(col)
			}
		}
		return result
	}
}

// Step advances both timers by the number of CPU cycles elapsed since the
// previous call, raising Interrupt and resetting per the configured run
// mode when a timer expires. cpuCycles is the CPU's free-running cycle
// counter, not a per-step delta.
func (c *CIA) Step(cpuCycles uint32) {
	delta := int32(cpuCycles - c.prevCycles)

	if c.timerAEnabled {
		c.timerACounter -= delta
		if c.timerACounter <= 0 {
			if c.timerAIRQEnabled {
				c.timerATriggered = true
				c.Interrupt()
			}
			c.resetTimerA()
		}
	}

	if c.timerBEnabled {
		c.timerBCounter -= delta
		if c.timerBCounter <= 0 {
			if c.timerBIRQEnabled {
				c.timerBTriggered = true
				c.Interrupt()
			}
			c.resetTimerB()
		}
	}

	c.prevCycles = cpuCycles

	if c.logger != nil {
		c.logger.Log(c.logComponent, debug.LogLevelTrace, "step", map[string]interface{}{
			"ta": c.timerACounter, "tb": c.timerBCounter,
		})
	}
}

func (c *CIA) resetTimerA() {
	if c.timerARunMode == runModeRestart {
		c.timerACounter = int32(c.timerALatch)
	} else {
		c.timerAEnabled = false
	}
}

func (c *CIA) resetTimerB() {
	if c.timerBRunMode == runModeRestart {
		c.timerBCounter = int32(c.timerBLatch)
	} else {
		c.timerBEnabled = false
	}
}
