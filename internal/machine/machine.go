// Package machine owns the full set of emulated components — memory,
// CPU, both CIAs, the VIC, and the host adapter — and drives them through
// the single-threaded cooperative outer loop.
package machine

import (
	"context"

	"c64/internal/cia"
	"c64/internal/cpu6502"
	"c64/internal/debug"
	"c64/internal/host"
	"c64/internal/memory"
	"c64/internal/romimage"
	"c64/internal/vic"
)

// Machine is the single owning container for the emulated C64. It
// resolves the cyclic reference graph between Memory, the CPU, the two
// CIAs, and the VIC at construction time. No locking is needed because
// exactly one component steps at a time.
type Machine struct {
	Memory *memory.Memory
	CPU    *cpu6502.CPU
	CIA1   *cia.CIA
	CIA2   *cia.CIA
	VIC    *vic.VIC
	Host   host.Adapter

	Logger *debug.Logger
}

// New constructs a Machine with all components wired together and
// attached to host. The logger may be nil (logging is fully opt-in).
func New(h host.Adapter, logger *debug.Logger) *Machine {
	mem := memory.New()
	mem.SetLogger(logger)

	cpu := cpu6502.New(mem, loggerAdapter{logger})

	cia1 := cia.New(debug.ComponentCIA1, cpu.IRQ, h.KeyboardMatrixRow)
	cia1.SetLogger(logger)

	cia2 := cia.New(debug.ComponentCIA2, cpu.NMI, nil)
	cia2.SetLogger(logger)

	v := vic.New(mem, cpu, h)
	v.SetLogger(logger)

	cia2.OnPRAWrite = func(pra uint8) {
		mem.SetVICBank(^pra & 0x03)
	}

	mem.AttachDevices(v, cia1, cia2)

	return &Machine{
		Memory: mem,
		CPU:    cpu,
		CIA1:   cia1,
		CIA2:   cia2,
		VIC:    v,
		Host:   h,
		Logger: logger,
	}
}

// loggerAdapter narrows *debug.Logger to cpu6502.LoggerInterface so a nil
// *debug.Logger (logging disabled) doesn't have to be special-cased by
// every caller — a nil receiver method call on *debug.Logger would panic,
// so this wrapper no-ops when the wrapped pointer is nil.
type loggerAdapter struct{ l *debug.Logger }

func (a loggerAdapter) LogCPU(level debug.LogLevel, message string, data map[string]interface{}) {
	if a.l == nil {
		return
	}
	a.l.LogCPU(level, message, data)
}

// LoadROMs loads the three fixed ROM images into memory and resets the
// CPU, so the program counter comes from the freshly loaded KERNAL's
// reset vector rather than the zero-filled ROM the CPU saw at
// construction time.
func (m *Machine) LoadROMs(set romimage.Set) error {
	if err := romimage.LoadAll(m.Memory, set); err != nil {
		return err
	}
	m.CPU.Reset()
	return nil
}

// RunC64 runs the strict round-robin outer loop — CIA1, CIA2, CPU, VIC,
// host — until the host adapter requests shutdown, the CPU halts on an
// unknown opcode, the VIC's Step returns false (the current VIC always
// returns true), or ctx is canceled. Only the host's ScreenRefresh may block (its vsync pacing);
// every other component step is bounded.
func (m *Machine) RunC64(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		m.CIA1.Step(m.CPU.CyclesElapsed())
		m.CIA2.Step(m.CPU.CyclesElapsed())

		ok, err := m.CPU.Step()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if !m.VIC.Step() {
			return nil
		}

		if !m.Host.Step() {
			return nil
		}
	}
}
