// Package device provides access to the register space of an AI engine
// array, either through a live driver or a simulated register bank.
package device

import (
	"fmt"
	"io"
)

// Accessor is the raw register access surface. Implementations wrap a
// memory-mapped driver transaction or a simulated equivalent; every
// call completes before returning. A failed read must be recoverable:
// decoders treat the affected field as zero and keep going.
type Accessor interface {
	// Read32 reads the 32-bit register at an absolute address.
	Read32(addr uint64) (uint32, error)

	// Write32 writes the 32-bit register at an absolute address.
	Write32(addr uint64, value uint32) error

	// TileBaseAddress resolves tile coordinates to the base of the
	// tile's register address space.
	TileBaseAddress(col, row int) uint64
}

// Tile addresses one cell of the compute array.
type Tile struct {
	Col int
	Row int
}

// String formats the tile as "[col, row]", the form used in every
// diagnostic report.
func (t Tile) String() string {
	return fmt.Sprintf("[%d, %d]", t.Col, t.Row)
}

// Base returns the base register address of the tile.
func (t Tile) Base(acc Accessor) uint64 {
	return acc.TileBaseAddress(t.Col, t.Row)
}

// ReadDataWord reads one 32-bit word of a tile's data memory. The data
// memory occupies the bottom of the tile's address space; addr is the
// byte offset within it.
func ReadDataWord(acc Accessor, tile Tile, addr uint64) (uint32, error) {
	return acc.Read32(tile.Base(acc) + addr)
}

// WriteDataWord writes one 32-bit word of a tile's data memory.
func WriteDataWord(acc Accessor, tile Tile, addr uint64, value uint32) error {
	return acc.Write32(tile.Base(acc)+addr, value)
}

// DataMemWords is the size of a tile's data memory in 32-bit words.
const DataMemWords = 0x2000

// DumpDataMemory prints every nonzero word of a tile's data memory.
// Words that fail to read are skipped, like zero words.
func DumpDataMemory(w io.Writer, acc Accessor, tile Tile) {
	for i := 0; i < DataMemWords; i++ {
		d, err := ReadDataWord(acc, tile, uint64(i)*4)
		if err == nil && d != 0 {
			fmt.Fprintf(w, "Tile[%d][%d]: mem[%d] = %d\n", tile.Col, tile.Row, i, d)
		}
	}
}
