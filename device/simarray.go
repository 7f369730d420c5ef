package device

import "fmt"

// Column and row shifts of the flat array address map: a tile's
// register space starts at col<<23 | row<<18.
const (
	colShift = 23
	rowShift = 18
)

// SimArray is a simulated register bank backing the Accessor
// interface. It stores registers sparsely, so untouched addresses read
// as zero, the same as reserved space on the real device.
//
// Fixtures install status registers with Poke; poked registers are
// sticky and ignore writes from the code under test, the way a
// hardware status register ignores stores. Every write is still
// recorded and can be inspected with LastWrite.
type SimArray struct {
	regs   map[uint64]uint32
	sticky map[uint64]bool
	writes map[uint64]uint32
	fail   map[uint64]error
}

// NewSimArray creates an empty simulated array.
func NewSimArray() *SimArray {
	return &SimArray{
		regs:   make(map[uint64]uint32),
		sticky: make(map[uint64]bool),
		writes: make(map[uint64]uint32),
		fail:   make(map[uint64]error),
	}
}

// Read32 returns the register value, or zero for addresses never
// written. Addresses armed with FailAt return the injected error.
func (a *SimArray) Read32(addr uint64) (uint32, error) {
	if err := a.fail[addr]; err != nil {
		return 0, err
	}
	return a.regs[addr], nil
}

// Write32 stores a register value. Writes to sticky (Poked) addresses
// are recorded but do not change the visible value.
func (a *SimArray) Write32(addr uint64, value uint32) error {
	if err := a.fail[addr]; err != nil {
		return err
	}
	a.writes[addr] = value
	if !a.sticky[addr] {
		a.regs[addr] = value
	}
	return nil
}

// TileBaseAddress resolves tile coordinates with the flat array
// address map.
func (a *SimArray) TileBaseAddress(col, row int) uint64 {
	return uint64(col)<<colShift | uint64(row)<<rowShift
}

// Poke installs a sticky register value, for fixture status registers.
func (a *SimArray) Poke(addr uint64, value uint32) {
	a.regs[addr] = value
	a.sticky[addr] = true
}

// PokeTile pokes a register at an offset from a tile's base address.
func (a *SimArray) PokeTile(tile Tile, offset uint64, value uint32) {
	a.Poke(a.TileBaseAddress(tile.Col, tile.Row)+offset, value)
}

// Peek returns the current register value without an error path.
func (a *SimArray) Peek(addr uint64) uint32 {
	return a.regs[addr]
}

// LastWrite reports the most recent value written to an address and
// whether any write happened at all.
func (a *SimArray) LastWrite(addr uint64) (uint32, bool) {
	v, ok := a.writes[addr]
	return v, ok
}

// FailAt arms an address so that reads and writes return an error,
// simulating a driver-level access failure.
func (a *SimArray) FailAt(addr uint64) {
	a.fail[addr] = fmt.Errorf("simulated access failure at %#x", addr)
}
