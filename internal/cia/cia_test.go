package cia

import (
	"testing"

	"c64/internal/debug"
)

func loadTimerA(c *CIA, latch uint16, ctrl uint8) {
	c.WriteRegister(RegTimerALo, uint8(latch&0xFF))
	c.WriteRegister(RegTimerAHi, uint8(latch>>8))
	c.WriteRegister(RegTimerACtrl, ctrl|ctrlLoadLatch)
}

// A one-shot timer (run mode bit set) fires its interrupt exactly once
// and then disables itself.
func TestTimerAOneShotFiresOnce(t *testing.T) {
	fires := 0
	c := New(debug.ComponentCIA1, func() { fires++ }, nil)
	c.WriteRegister(RegInterruptCtrl, 0x81) // bit7 set, bit0 enables timer A IRQ
	loadTimerA(c, 10, ctrlEnable|ctrlRunMode)

	c.Step(5)
	if fires != 0 {
		t.Fatalf("expected no interrupt before the timer expires, got %d", fires)
	}

	c.Step(10)
	if fires != 1 {
		t.Fatalf("expected exactly one interrupt after expiry, got %d", fires)
	}

	c.Step(30)
	if fires != 1 {
		t.Fatalf("expected a one-shot timer to stay disabled, got %d fires", fires)
	}
}

// A restart-mode timer reloads from its latch and fires again on the
// next expiry.
func TestTimerARestartFiresTwice(t *testing.T) {
	fires := 0
	c := New(debug.ComponentCIA1, func() { fires++ }, nil)
	c.WriteRegister(RegInterruptCtrl, 0x81)
	loadTimerA(c, 10, ctrlEnable) // run mode bit clear -> restart

	c.Step(10)
	if fires != 1 {
		t.Fatalf("expected first interrupt at cycle 10, got %d fires", fires)
	}

	c.Step(20)
	if fires != 2 {
		t.Fatalf("expected timer to reload and fire again, got %d fires", fires)
	}
}

func TestInterruptCtrlMaskBitDisablesIRQ(t *testing.T) {
	fires := 0
	c := New(debug.ComponentCIA1, func() { fires++ }, nil)
	c.WriteRegister(RegInterruptCtrl, 0x01) // bit7 clear -> disables timer A IRQ
	loadTimerA(c, 5, ctrlEnable)

	c.Step(5)
	if fires != 0 {
		t.Fatalf("expected IRQ-disabled timer to not call Interrupt, got %d", fires)
	}
}

func TestInterruptStatusClearsOnRead(t *testing.T) {
	c := New(debug.ComponentCIA1, func() {}, nil)
	c.WriteRegister(RegInterruptCtrl, 0x81)
	loadTimerA(c, 5, ctrlEnable|ctrlRunMode)
	c.Step(5)

	status := c.ReadRegister(RegInterruptCtrl)
	if status&0x80 == 0 || status&0x01 == 0 {
		t.Fatalf("expected status byte to report timer A triggered, got %#02x", status)
	}

	status = c.ReadRegister(RegInterruptCtrl)
	if status != 0 {
		t.Fatalf("expected status to clear after read, got %#02x", status)
	}
}

func TestKeyboardRowSingleColumn(t *testing.T) {
	rows := [8]uint8{0xFF, 0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	c := New(debug.ComponentCIA1, func() {}, func(col uint8) uint8 { return rows[col] })

	c.WriteRegister(RegPRA, ^uint8(1<<1)) // select column 1
	if got := c.ReadRegister(RegPRB); got != 0xFE {
		t.Fatalf("expected row 1 readback 0xFE, got %#02x", got)
	}
}

func TestKeyboardRowNoColumnSelected(t *testing.T) {
	c := New(debug.ComponentCIA1, func() {}, func(col uint8) uint8 { return 0x00 })
	c.WriteRegister(RegPRA, 0xFF)
	if got := c.ReadRegister(RegPRB); got != 0xFF {
		t.Fatalf("expected 0xFF when no column is selected, got %#02x", got)
	}
}

func TestKeyboardRowAllColumnsSelected(t *testing.T) {
	rows := [8]uint8{0xFF, 0xFE, 0xFF, 0x7F, 0xFF, 0xFF, 0xFF, 0xFF}
	c := New(debug.ComponentCIA1, func() {}, func(col uint8) uint8 { return rows[col] })

	// PRA==0x00 drives every column low; the readback is the AND of all
	// eight rows.
	c.WriteRegister(RegPRA, 0x00)
	if got := c.ReadRegister(RegPRB); got != 0xFE&0x7F {
		t.Fatalf("expected AND of all rows 0x7E, got %#02x", got)
	}
}

func TestPRAWriteHookInvoked(t *testing.T) {
	var seen uint8
	c := New(debug.ComponentCIA1, func() {}, nil)
	c.OnPRAWrite = func(v uint8) { seen = v }

	c.WriteRegister(RegPRA, 0x02)
	if seen != 0x02 {
		t.Fatalf("expected OnPRAWrite to observe 0x02, got %#02x", seen)
	}
	if c.PRA() != 0x02 {
		t.Fatalf("expected PRA() to reflect the write, got %#02x", c.PRA())
	}
}
