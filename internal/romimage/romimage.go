// Package romimage loads the three headerless C64 ROM images the machine
// needs at startup: BASIC, CHARGEN, and KERNAL.
package romimage

import (
	"fmt"
	"path/filepath"
)

// Sizes and load addresses of the three fixed ROM images.
const (
	BasicSize  = 8 * 1024
	CharsSize  = 4 * 1024
	KernalSize = 8 * 1024

	BasicBase  = 0xA000
	CharsBase  = 0xD000
	KernalBase = 0xE000
)

// Standard filenames of the three fixed ROM images, as distributed by
// Commodore and expected inside the directory the -rom flag names.
const (
	BasicFilename  = "basic.901226-01.bin"
	CharsFilename  = "characters.901225-01.bin"
	KernalFilename = "kernal.901227-03.bin"
)

// SetFromDir builds a Set from a single directory containing the three
// fixed-name ROM images, so the CLI only needs one -rom flag even though
// the machine loads three separate files.
func SetFromDir(dir string) Set {
	return Set{
		Basic:  filepath.Join(dir, BasicFilename),
		Chars:  filepath.Join(dir, CharsFilename),
		Kernal: filepath.Join(dir, KernalFilename),
	}
}

// Loader is the narrow contract romimage needs from the memory system.
type Loader interface {
	LoadROM(path string, base uint16, size int) error
}

// Set names the three ROM image file paths.
type Set struct {
	Basic  string
	Chars  string
	Kernal string
}

// LoadAll loads all three images into mem, wrapping the first failure
// with which image failed.
func LoadAll(mem Loader, set Set) error {
	if err := mem.LoadROM(set.Basic, BasicBase, BasicSize); err != nil {
		return fmt.Errorf("romimage: basic: %w", err)
	}
	if err := mem.LoadROM(set.Chars, CharsBase, CharsSize); err != nil {
		return fmt.Errorf("romimage: chargen: %w", err)
	}
	if err := mem.LoadROM(set.Kernal, KernalBase, KernalSize); err != nil {
		return fmt.Errorf("romimage: kernal: %w", err)
	}
	return nil
}
