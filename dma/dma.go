// Package dma reconstructs the buffer-descriptor and channel state of
// the array's DMA engines from their live control registers.
package dma

import (
	"github.com/sarchlab/aieprobe/device"
	"github.com/sarchlab/aieprobe/regs"
)

// Direction of a DMA transfer.
type Direction uint8

// Transfer directions.
const (
	// S2MM moves data from a stream into memory.
	S2MM Direction = iota
	// MM2S moves data from memory onto a stream.
	MM2S
)

// Name returns the direction name as it appears in reports.
func (d Direction) Name() string {
	if d == MM2S {
		return "mm2s"
	}
	return "s2mm"
}

// Channel is the decoded state of one direction/index pair. It is
// derived from the channel-status register and never persisted; the
// hardware may move on between two decodes.
type Channel struct {
	Dir   Direction
	Index int

	// State is the 2-bit running code from the status register.
	State uint32

	// CurrentBD is the descriptor slot the channel is servicing.
	// It is meaningful only while the channel is running.
	CurrentBD int
}

// Running reports whether the channel is active. CurrentBD must not be
// treated as a live descriptor reference unless this is true.
func (c Channel) Running() bool {
	return c.State != 0
}

// LockSpec is a shim descriptor's lock synchronization spec, with
// independent acquire and release halves.
type LockSpec struct {
	ID              int
	AcquireEnable   bool
	AcquireValue    uint32
	AcquireUseValue bool
	ReleaseEnable   bool
	ReleaseValue    uint32
	ReleaseUseValue bool
}

// TileLockRef is the lock reference embedded in a tile descriptor's
// address word. It is independent of the descriptor's acquire/release
// spec; the first-generation layout genuinely exposes both, so both
// are decoded separately.
type TileLockRef struct {
	ID       int
	HasValue bool
	Value    uint32

	// State is the lock's live two-bit status pair at decode time:
	// bit 0 acquired, bit 1 value. Zero means never acquired.
	State uint32
}

// Acquired reports the live acquired flag.
func (l TileLockRef) Acquired() bool { return l.State&0x1 != 0 }

// LiveValue reports the live value bit.
func (l TileLockRef) LiveValue() uint32 {
	if l.State&0x2 != 0 {
		return 1
	}
	return 0
}

// BD is one reconstructed buffer descriptor. Descriptors are rebuilt
// from the registers on every decode and never cached.
type BD struct {
	Index int
	Valid bool

	// Addr is the transfer base address: a 13-bit data memory word
	// address for tile DMA, a 48-bit external byte address for shim
	// DMA.
	Addr uint64

	// Words is the transfer length in 32-bit words.
	Words int

	NextBD    int
	UseNextBD bool

	PacketMode bool
	PacketID   uint32

	// FIFOMode is the 2-bit FIFO selector; zero means the descriptor
	// does not use a FIFO counter.
	FIFOMode  int
	FIFOCount uint32

	// Lock is the acquire/release spec (shim DMA only).
	Lock *LockSpec

	// TileLock is the embedded address-word lock reference (tile DMA
	// only).
	TileLock *TileLockRef

	// Buffer holds the first words of the transfer buffer, read back
	// from tile data memory for display (tile DMA only).
	Buffer []uint32

	// ActiveFor lists the channels currently servicing this
	// descriptor. A descriptor's own fields say nothing about
	// activity; it comes only from the channel-status registers.
	ActiveFor []Channel
}

// Snapshot is a best-effort picture of one DMA engine. The register
// reads behind it are not atomic: fields read microseconds apart can
// describe different hardware instants.
type Snapshot struct {
	Kind regs.Kind
	Tile device.Tile

	S2MMStatus  uint32
	MM2SStatus  uint32
	S2MMControl [2]uint32
	MM2SControl [2]uint32

	// Raw words of the first descriptor slots, shown in the report
	// header.
	BD0Addr    uint32
	BD0Control uint32
	BD1Addr    uint32
	BD1Control uint32

	// Channels in fixed order: s2mm 0, s2mm 1, mm2s 0, mm2s 1.
	Channels [4]Channel

	// BDs holds the valid descriptor slots, in slot order.
	BDs []BD

	// ReadErrors counts register reads that failed and were reported
	// as zero.
	ReadErrors int
}

// BufferPreviewWords is how many words of a tile transfer buffer the
// report reads back for display.
const BufferPreviewWords = 7

// reader reads tile registers and degrades per-field: a failed read
// counts an error and yields zero instead of aborting the snapshot.
type reader struct {
	acc  device.Accessor
	base uint64
	errs int
}

func (r *reader) read(offset uint64) uint32 {
	v, err := r.acc.Read32(r.base + offset)
	if err != nil {
		r.errs++
		return 0
	}
	return v
}

// DecodeTile decodes the tile-local DMA engine of a tile.
func DecodeTile(acc device.Accessor, tile device.Tile) *Snapshot {
	return Decode(acc, tile, regs.Tile)
}

// DecodeShim decodes the shim DMA engine of an interface tile.
func DecodeShim(acc device.Accessor, tile device.Tile) *Snapshot {
	return Decode(acc, tile, regs.Shim)
}

// Decode reads the channel-status, channel-control, and descriptor
// registers of one DMA engine and reassembles them into a snapshot.
func Decode(acc device.Accessor, tile device.Tile, kind regs.Kind) *Snapshot {
	lay := regs.DMA(kind)
	r := &reader{acc: acc, base: tile.Base(acc)}

	s := &Snapshot{Kind: kind, Tile: tile}
	s.MM2SStatus = r.read(lay.MM2SStatus)
	s.S2MMStatus = r.read(lay.S2MMStatus)
	for i := 0; i < 2; i++ {
		s.MM2SControl[i] = r.read(lay.MM2SControl[i])
		s.S2MMControl[i] = r.read(lay.S2MMControl[i])
	}
	s.BD0Addr = r.read(lay.BDBase + lay.AddrWord)
	s.BD0Control = r.read(lay.BDBase + lay.ControlWord)
	if kind == regs.Tile {
		s.BD1Addr = r.read(lay.BDBase + lay.BDStride + lay.AddrWord)
		s.BD1Control = r.read(lay.BDBase + lay.BDStride + lay.ControlWord)
	}

	for i := 0; i < 2; i++ {
		s.Channels[i] = Channel{
			Dir:       S2MM,
			Index:     i,
			State:     lay.Running[i].Extract(s.S2MMStatus),
			CurrentBD: int(lay.CurrentBD[i].Extract(s.S2MMStatus)),
		}
		s.Channels[2+i] = Channel{
			Dir:       MM2S,
			Index:     i,
			State:     lay.Running[i].Extract(s.MM2SStatus),
			CurrentBD: int(lay.CurrentBD[i].Extract(s.MM2SStatus)),
		}
	}

	for slot := 0; slot < lay.BDCount; slot++ {
		bd, ok := decodeBD(r, acc, tile, lay, kind, slot)
		if !ok {
			continue
		}
		for _, ch := range s.Channels {
			if ch.Running() && ch.CurrentBD == slot {
				bd.ActiveFor = append(bd.ActiveFor, ch)
			}
		}
		s.BDs = append(s.BDs, bd)
	}

	s.ReadErrors = r.errs
	return s
}

// decodeBD reconstructs one descriptor slot. Invalid slots report
// ok=false and are skipped.
func decodeBD(r *reader, acc device.Accessor, tile device.Tile,
	lay regs.DMALayout, kind regs.Kind, slot int) (BD, bool) {
	base := lay.BDBase + uint64(slot)*lay.BDStride
	addrWord := r.read(base + lay.AddrWord)
	control := r.read(base + lay.ControlWord)
	if !lay.Valid.Set(control) {
		return BD{}, false
	}

	bd := BD{
		Index:     slot,
		Valid:     true,
		NextBD:    int(lay.NextBD.Extract(control)),
		UseNextBD: lay.UseNextBD.Set(control),
	}

	if kind == regs.Shim {
		bd.Words = int(r.read(base + lay.LengthWord))
		bd.Addr = uint64(addrWord) |
			uint64(regs.ShimBDAddrHigh.Extract(control))<<32
		bd.Lock = &LockSpec{
			ID:              int(regs.ShimBDLockID.Extract(control)),
			AcquireEnable:   regs.ShimBDAcqEnable.Set(control),
			AcquireValue:    regs.ShimBDAcqValue.Extract(control),
			AcquireUseValue: regs.ShimBDAcqUseValue.Set(control),
			ReleaseEnable:   regs.ShimBDRelEnable.Set(control),
			ReleaseValue:    regs.ShimBDRelValue.Extract(control),
			ReleaseUseValue: regs.ShimBDRelUseValue.Set(control),
		}
		return bd, true
	}

	// Tile DMA: the length encodes words-1, so a transfer is never
	// shorter than one word.
	bd.Words = 1 + int(regs.TileBDLength.Extract(control))
	bd.Addr = uint64(regs.TileBDBaseAddr.Extract(addrWord))

	if regs.TileBDPacketEnable.Set(control) {
		bd.PacketMode = true
		bd.PacketID = regs.TileBDPacketID.Extract(r.read(base + lay.PacketWord))
	}

	bd.Buffer = make([]uint32, BufferPreviewWords)
	for w := range bd.Buffer {
		v, err := device.ReadDataWord(acc, tile, (bd.Addr+uint64(w))*4)
		if err != nil {
			r.errs++
			continue
		}
		bd.Buffer[w] = v
	}

	if regs.TileBDLockEnable.Set(addrWord) {
		ref := &TileLockRef{
			ID:       int(regs.TileBDLockID.Extract(addrWord)),
			HasValue: regs.TileBDLockUseValue.Set(addrWord),
			Value:    regs.TileBDLockValue.Extract(addrWord),
		}
		aggregate := r.read(regs.Locks(regs.Gen1).Aggregate)
		ref.State = regs.LockPair(aggregate, ref.ID)
		bd.TileLock = ref
	}

	bd.FIFOMode = int(regs.TileBDFIFOMode.Extract(control))
	if bd.FIFOMode != 0 {
		bd.FIFOCount = r.read(lay.FIFOCounter)
	}

	return bd, true
}
