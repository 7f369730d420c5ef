package regs

// Register offsets in this file are relative to a tile's base address
// and are part of the hardware compatibility contract. They must match
// the device documentation bit for bit; do not "clean them up".

// DMALayout describes the DMA control block of one engine kind. Tile
// and shim DMA overlap in the 0x1D000 range but pack both the
// descriptors and the per-descriptor bitfields differently, so the two
// kinds never share a table.
type DMALayout struct {
	// BDBase is the offset of buffer-descriptor slot 0; slot i lives
	// at BDBase + i*BDStride.
	BDBase   uint64
	BDStride uint64
	BDCount  int

	// Channel status registers, one per direction. Each carries the
	// running code and current-BD index for both channels of that
	// direction.
	S2MMStatus uint64
	MM2SStatus uint64

	// Channel control registers: [channel] per direction.
	S2MMControl [2]uint64
	MM2SControl [2]uint64

	// FIFOCounter is the shared FIFO counter register, or zero when
	// the engine has none.
	FIFOCounter uint64

	// Channel-status bitfields, relative to a status word.
	Running   [2]Field // running code, per channel
	CurrentBD [2]Field // current BD index, per channel

	// Descriptor words, relative to the slot.
	AddrWord    uint64
	ControlWord uint64
	// LengthWord is the explicit buffer-length word (shim only; tile
	// DMA derives the length from the control word).
	LengthWord uint64
	// PacketWord holds the packet id (tile only).
	PacketWord uint64

	// Descriptor bitfields, Reg relative to the slot.
	Valid     Field
	NextBD    Field
	UseNextBD Field
}

// TileDMA is the descriptor layout of a tile-local DMA engine.
var TileDMA = DMALayout{
	BDBase:      0x1D000,
	BDStride:    0x20,
	BDCount:     8,
	S2MMStatus:  0x1DF00,
	MM2SStatus:  0x1DF10,
	S2MMControl: [2]uint64{0x1DE00, 0x1DE08},
	MM2SControl: [2]uint64{0x1DE10, 0x1DE18},
	FIFOCounter: 0x1DF20,
	Running:     [2]Field{{Bit: 0, Width: 2}, {Bit: 2, Width: 2}},
	CurrentBD:   [2]Field{{Bit: 16, Width: 4}, {Bit: 20, Width: 4}},
	AddrWord:    0x00,
	ControlWord: 0x18,
	PacketWord:  0x10,
	Valid:       Field{Reg: 0x18, Bit: 31, Width: 1},
	NextBD:      Field{Reg: 0x18, Bit: 13, Width: 4},
	UseNextBD:   Field{Reg: 0x18, Bit: 17, Width: 1},
}

// ShimDMA is the descriptor layout of a shim-tile DMA engine.
var ShimDMA = DMALayout{
	BDBase:      0x1D000,
	BDStride:    0x14,
	BDCount:     8,
	S2MMStatus:  0x1D160,
	MM2SStatus:  0x1D164,
	S2MMControl: [2]uint64{0x1D140, 0x1D148},
	MM2SControl: [2]uint64{0x1D150, 0x1D158},
	Running:     [2]Field{{Bit: 0, Width: 2}, {Bit: 2, Width: 2}},
	CurrentBD:   [2]Field{{Bit: 16, Width: 4}, {Bit: 20, Width: 4}},
	AddrWord:    0x00,
	LengthWord:  0x04,
	ControlWord: 0x08,
	Valid:       Field{Reg: 0x08, Bit: 0, Width: 1},
	NextBD:      Field{Reg: 0x08, Bit: 11, Width: 4},
	UseNextBD:   Field{Reg: 0x08, Bit: 15, Width: 1},
}

// DMA returns the descriptor layout for the given engine kind.
func DMA(kind Kind) DMALayout {
	if kind == Shim {
		return ShimDMA
	}
	return TileDMA
}

// Tile DMA descriptor bitfields beyond the common set. The transfer
// length is encoded as value+1 words; the address word carries a lock
// reference that is independent of the descriptor's acquire/release
// spec (a quirk of the first-generation layout, kept as-is).
var (
	TileBDLength       = Field{Reg: 0x18, Bit: 0, Width: 13}
	TileBDBaseAddr     = Field{Reg: 0x00, Bit: 0, Width: 13}
	TileBDPacketEnable = Field{Reg: 0x18, Bit: 27, Width: 1}
	TileBDFIFOMode     = Field{Reg: 0x18, Bit: 28, Width: 2}
	TileBDPacketID     = Field{Reg: 0x10, Bit: 0, Width: 5}
	TileBDLockEnable   = Field{Reg: 0x00, Bit: 18, Width: 1}
	TileBDLockUseValue = Field{Reg: 0x00, Bit: 16, Width: 1}
	TileBDLockValue    = Field{Reg: 0x00, Bit: 17, Width: 1}
	TileBDLockID       = Field{Reg: 0x00, Bit: 22, Width: 4}
)

// Shim DMA descriptor bitfields beyond the common set. The buffer
// address is 48 bits: the address word plus 16 high bits in the
// control word. The lock spec carries independent acquire and release
// halves.
var (
	ShimBDAddrHigh    = Field{Reg: 0x08, Bit: 16, Width: 16}
	ShimBDLockID      = Field{Reg: 0x08, Bit: 7, Width: 4}
	ShimBDRelEnable   = Field{Reg: 0x08, Bit: 6, Width: 1}
	ShimBDRelValue    = Field{Reg: 0x08, Bit: 5, Width: 1}
	ShimBDRelUseValue = Field{Reg: 0x08, Bit: 4, Width: 1}
	ShimBDAcqEnable   = Field{Reg: 0x08, Bit: 3, Width: 1}
	ShimBDAcqValue    = Field{Reg: 0x08, Bit: 2, Width: 1}
	ShimBDAcqUseValue = Field{Reg: 0x08, Bit: 1, Width: 1}
)

// CoreLayout gives the debug register offsets of a core tile.
type CoreLayout struct {
	Status      uint64
	Timer       uint64
	PC          uint64
	LR          uint64
	SP          uint64
	TraceStatus uint64
	R0          uint64
	R4          uint64
}

var coreLayouts = [...]CoreLayout{
	Gen1: {
		Status:      0x032004,
		Timer:       0x0340F8,
		PC:          0x030280,
		LR:          0x0302B0,
		SP:          0x0302A0,
		TraceStatus: 0x0140D8,
		R0:          0x030000,
		R4:          0x030040,
	},
	GenML: {
		Status:      0x032004,
		Timer:       0x0340F8,
		PC:          0x031100,
		LR:          0x031130,
		SP:          0x031120,
		TraceStatus: 0x0340D8,
		R0:          0x030C00,
		R4:          0x030C40,
	},
}

// Core returns the core debug register layout for a generation.
func Core(gen Generation) CoreLayout {
	return coreLayouts[gen]
}

// NumLocks is the number of hardware locks per tile.
const NumLocks = 16

// LockLayout describes how lock state is exposed. Gen1 packs two bits
// per lock into one aggregate register; GenML exposes one register per
// lock at a fixed stride and requires a priming write before the
// status reads back.
type LockLayout struct {
	// Aggregate is the packed status register (Gen1 only).
	Aggregate uint64
	// Base and Stride locate the per-lock registers (GenML only).
	Base   uint64
	Stride uint64
	// Prime is written to the first lock register before reading.
	Prime uint32
}

var lockLayouts = [...]LockLayout{
	Gen1:  {Aggregate: 0x1EF00},
	GenML: {Base: 0x1F000, Stride: 0x10, Prime: 3},
}

// Locks returns the lock layout for a generation.
func Locks(gen Generation) LockLayout {
	return lockLayouts[gen]
}

// LockPair extracts the two status bits of one lock from a Gen1
// aggregate word. Bit 0 is the acquired flag, bit 1 the value.
func LockPair(word uint32, lock int) uint32 {
	return (word >> (uint(lock) * 2)) & 0x3
}

// CoreStatusNames maps core status bits 0..20 to flag names, in bit
// order. Multiple flags may be set at once; the stall conditions are
// not mutually exclusive.
var CoreStatusNames = [21]string{
	"Enabled",
	"In Reset",
	"Memory Stall S",
	"Memory Stall W",
	"Memory Stall N",
	"Memory Stall E",
	"Lock Stall S",
	"Lock Stall W",
	"Lock Stall N",
	"Lock Stall E",
	"Stream Stall S",
	"Stream Stall W",
	"Stream Stall N",
	"Stream Stall E",
	"Cascade Stall Master",
	"Cascade Stall Slave",
	"Debug Halt",
	"ECC Error",
	"ECC Scrubbing",
	"Error Halt",
	"Core Done",
}
