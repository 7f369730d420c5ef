// Package regs describes the register layout of AI engine arrays.
package regs

import "fmt"

// Generation identifies a hardware generation of the AI engine array.
// The two generations expose the same logical functionality behind
// incompatible register layouts, so every decoder selects its offsets
// through a Generation-keyed table.
type Generation uint8

// Supported hardware generations.
const (
	// Gen1 is the first-generation array.
	Gen1 Generation = iota
	// GenML is the ML-optimized second generation.
	GenML
)

// Name returns the generation name.
func (g Generation) Name() string {
	switch g {
	case Gen1:
		return "AIE1"
	case GenML:
		return "AIE2"
	default:
		panic("invalid generation")
	}
}

// ParseGeneration converts a user-facing generation name to a Generation.
func ParseGeneration(s string) (Generation, error) {
	switch s {
	case "aie1", "AIE1", "gen1":
		return Gen1, nil
	case "aie2", "AIE2", "aieml", "genml":
		return GenML, nil
	default:
		return 0, fmt.Errorf("unknown generation %q", s)
	}
}

// Kind distinguishes the two DMA engine flavors. Tile DMA and shim DMA
// pack their descriptors differently over the same address range, so
// the kind selects which layout table applies.
type Kind uint8

// DMA engine kinds.
const (
	// Tile is the DMA engine local to a compute tile.
	Tile Kind = iota
	// Shim is the DMA engine in an interface tile, with wider
	// addressing into external memory.
	Shim
)

// Name returns the kind name.
func (k Kind) Name() string {
	switch k {
	case Tile:
		return "tile"
	case Shim:
		return "shim"
	default:
		panic("invalid kind")
	}
}

// Field locates a bitfield within a 32-bit register. Reg is the byte
// offset of the register that holds the field; for buffer-descriptor
// fields it is relative to the descriptor slot, otherwise it is
// relative to the tile base address.
type Field struct {
	// Reg is the byte offset of the containing register.
	Reg uint64
	// Bit is the offset of the least significant bit of the field.
	Bit uint8
	// Width is the field width in bits.
	Width uint8
}

// Mask returns the field mask, right-aligned.
func (f Field) Mask() uint32 {
	if f.Width >= 32 {
		return 0xFFFFFFFF
	}
	return (1 << f.Width) - 1
}

// Extract returns the field value from a register word.
func (f Field) Extract(word uint32) uint32 {
	return (word >> f.Bit) & f.Mask()
}

// Insert returns word with the field set to value. Bits of value above
// the field width are discarded.
func (f Field) Insert(word, value uint32) uint32 {
	m := f.Mask()
	return (word &^ (m << f.Bit)) | ((value & m) << f.Bit)
}

// Set reports whether the (single-bit or wider) field is nonzero.
func (f Field) Set(word uint32) bool {
	return f.Extract(word) != 0
}
