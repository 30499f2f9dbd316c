package debug

import (
	"fmt"
	"os"
	"sync"
)

// VICStateReader exposes raster state for cycle-by-cycle tracing (kept as
// a narrow interface to avoid an import cycle with internal/vic).
type VICStateReader interface {
	GetRaster() uint16
	GetFrameCounter() uint32
}

// CPUStateSnapshot captures 6502 register state for logging.
type CPUStateSnapshot struct {
	PC      uint16
	A, X, Y uint8
	SP      uint8
	Flags   uint8
	Cycles  uint32
}

// CycleLogger writes one line per CPU step to a trace file, for diagnosing
// timing-sensitive interrupt and raster-sync bugs.
type CycleLogger struct {
	file         *os.File
	maxCycles    uint64
	startCycle   uint64
	currentCycle uint64
	totalCycles  uint64
	enabled      bool
	mu           sync.Mutex

	vic VICStateReader
}

// NewCycleLogger creates a new cycle logger. maxCycles == 0 means unlimited;
// startCycle delays logging until that many steps have elapsed.
func NewCycleLogger(filename string, maxCycles uint64, startCycle uint64, vic VICStateReader) (*CycleLogger, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create cycle log file: %w", err)
	}

	logger := &CycleLogger{
		file:       file,
		maxCycles:  maxCycles,
		startCycle: startCycle,
		enabled:    true,
		vic:        vic,
	}

	fmt.Fprintf(file, "Cycle-by-Cycle Debug Log\n========================\n\n")
	if startCycle > 0 {
		fmt.Fprintf(file, "Start cycle offset: %d\n", startCycle)
	}
	if maxCycles > 0 {
		fmt.Fprintf(file, "Max cycles to log: %d\n", maxCycles)
	}
	fmt.Fprintf(file, "\nFormat: Step | PC | A X Y | SP | Flags (NV-BDIZC) | Cycles | Raster | Frame\n\n")

	return logger, nil
}

// LogCycle logs the CPU state for one step.
func (c *CycleLogger) LogCycle(cpuState *CPUStateSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return
	}

	c.totalCycles++
	if c.totalCycles < c.startCycle {
		return
	}
	if c.maxCycles > 0 && c.currentCycle >= c.maxCycles {
		c.enabled = false
		return
	}
	c.currentCycle++

	raster := uint16(0)
	frame := uint32(0)
	if c.vic != nil {
		raster = c.vic.GetRaster()
		frame = c.vic.GetFrameCounter()
	}

	f := cpuState.Flags
	fmt.Fprintf(c.file, "Step %6d | PC:%04X | A:%02X X:%02X Y:%02X | SP:%02X | N%dV%d-B%dD%dI%dZ%dC%d | Cyc:%d | Raster:%03d | Frame:%d\n",
		c.totalCycles, cpuState.PC, cpuState.A, cpuState.X, cpuState.Y, cpuState.SP,
		(f>>7)&1, (f>>6)&1, (f>>4)&1, (f>>3)&1, (f>>2)&1, (f>>1)&1, f&1,
		cpuState.Cycles, raster, frame)
}

// SetEnabled enables or disables logging.
func (c *CycleLogger) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// Toggle toggles logging on/off.
func (c *CycleLogger) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = !c.enabled
}

// Close closes the log file.
func (c *CycleLogger) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = false
	if c.file != nil {
		fmt.Fprintf(c.file, "\n\nLog complete. Total steps logged: %d\n", c.currentCycle)
		err := c.file.Close()
		c.file = nil
		return err
	}
	return nil
}

// IsEnabled returns whether logging is enabled.
func (c *CycleLogger) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled && (c.maxCycles == 0 || c.currentCycle < c.maxCycles)
}

// GetStatus returns the current logging status.
func (c *CycleLogger) GetStatus() (enabled bool, currentCycle uint64, totalCycles uint64, maxCycles uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled, c.currentCycle, c.totalCycles, c.maxCycles
}
