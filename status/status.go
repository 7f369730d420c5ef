// Package status reconstructs core execution state and lock ownership
// from a tile's debug registers.
package status

import (
	"fmt"
	"io"

	"github.com/sarchlab/aieprobe/device"
	"github.com/sarchlab/aieprobe/regs"
)

// CoreSnapshot is a best-effort picture of a core's execution state.
// The reads behind it are not atomic.
type CoreSnapshot struct {
	Gen  regs.Generation
	Tile device.Tile

	Status      uint32
	Timer       uint32
	PC          uint32
	LR          uint32
	SP          uint32
	TraceStatus uint32
	R0          uint32
	R4          uint32

	// Flags holds the names of all set status bits, in bit order
	// 0..20. Stall conditions are not mutually exclusive, so several
	// may appear at once.
	Flags []string

	// ReadErrors counts register reads that failed and were reported
	// as zero.
	ReadErrors int
}

// Lock is the decoded state of one hardware lock.
type Lock struct {
	ID int

	// Acquired and Value are decoded on Gen1 only. A Gen1 lock whose
	// status pair is all zero carries no information and is omitted
	// from DecodeLocks output entirely.
	Acquired bool
	Value    uint32

	// Raw is the undecoded status nibble (GenML only).
	Raw uint32
}

// DecodeCore reads the status, timer, PC, LR, SP, trace-status, and
// two general registers of a core and expands the status word against
// the flag-name table. Register addresses are selected by generation.
func DecodeCore(acc device.Accessor, tile device.Tile, gen regs.Generation) *CoreSnapshot {
	lay := regs.Core(gen)
	base := tile.Base(acc)

	s := &CoreSnapshot{Gen: gen, Tile: tile}
	read := func(offset uint64) uint32 {
		v, err := acc.Read32(base + offset)
		if err != nil {
			s.ReadErrors++
			return 0
		}
		return v
	}

	s.Status = read(lay.Status)
	s.Timer = read(lay.Timer)
	s.PC = read(lay.PC)
	s.LR = read(lay.LR)
	s.SP = read(lay.SP)
	s.TraceStatus = read(lay.TraceStatus)
	s.R0 = read(lay.R0)
	s.R4 = read(lay.R4)

	for bit, name := range regs.CoreStatusNames {
		if (s.Status>>uint(bit))&0x1 != 0 {
			s.Flags = append(s.Flags, name)
		}
	}
	return s
}

// DecodeLocks reads the lock state of a tile and reports how many of
// the reads failed; a failed read contributes a zero lock word.
//
// On Gen1 one aggregate register packs two bits per lock; locks whose
// pair is zero (never acquired) are omitted. On GenML each lock has
// its own register at a fixed stride and needs a priming write before
// the status reads back; all 16 raw nibbles are returned as-is.
func DecodeLocks(acc device.Accessor, tile device.Tile, gen regs.Generation) ([]Lock, int) {
	lay := regs.Locks(gen)
	base := tile.Base(acc)

	if gen == regs.GenML {
		addr := base + lay.Base
		// Best effort: a failed priming write still leaves the reads
		// meaningful on some driver backends.
		_ = acc.Write32(addr, lay.Prime)
		locks := make([]Lock, 0, regs.NumLocks)
		readErrors := 0
		for id := 0; id < regs.NumLocks; id++ {
			v, err := acc.Read32(addr)
			if err != nil {
				readErrors++
				v = 0
			}
			locks = append(locks, Lock{ID: id, Raw: v})
			addr += lay.Stride
		}
		return locks, readErrors
	}

	word, err := acc.Read32(base + lay.Aggregate)
	if err != nil {
		return nil, 1
	}
	var locks []Lock
	for id := 0; id < regs.NumLocks; id++ {
		pair := regs.LockPair(word, id)
		if pair == 0 {
			continue
		}
		locks = append(locks, Lock{
			ID:       id,
			Acquired: pair&0x1 != 0,
			Value:    (pair >> 1) & 0x1,
		})
	}
	return locks, 0
}

// The report layout below is parsed by downstream tooling; field
// order and hex widths are a compatibility contract.

// Render writes the core report: register values, trace status, and
// the expanded flag list.
func (s *CoreSnapshot) Render(w io.Writer) {
	fmt.Fprintf(w, "Core [%d, %d] status is %08X, timer is %d, PC is %08X"+
		", LR is %08X, SP is %08X, R0 is %08X,R4 is %08X\n",
		s.Tile.Col, s.Tile.Row, s.Status, s.Timer, s.PC, s.LR, s.SP, s.R0, s.R4)
	fmt.Fprintf(w, "Core [%d, %d] trace status is %08X\n",
		s.Tile.Col, s.Tile.Row, s.TraceStatus)
}

// RenderFlags writes the expanded status flag list.
func (s *CoreSnapshot) RenderFlags(w io.Writer) {
	fmt.Fprintf(w, "Core Status: ")
	for _, name := range s.Flags {
		fmt.Fprintf(w, "%s ", name)
	}
	fmt.Fprintf(w, "\n")
}

// RenderLocks writes the per-generation lock report.
func RenderLocks(w io.Writer, tile device.Tile, gen regs.Generation, locks []Lock) {
	if gen == regs.GenML {
		fmt.Fprintf(w, "Core [%d, %d] AIE2 locks are: ", tile.Col, tile.Row)
		for _, l := range locks {
			fmt.Fprintf(w, "%X ", l.Raw)
		}
		fmt.Fprintf(w, "\n")
		return
	}

	var word uint32
	for _, l := range locks {
		pair := uint32(0)
		if l.Acquired {
			pair |= 0x1
		}
		pair |= (l.Value & 0x1) << 1
		word |= pair << (uint(l.ID) * 2)
	}
	fmt.Fprintf(w, "Core [%d, %d] AIE1 locks are %08X\n", tile.Col, tile.Row, word)
	for _, l := range locks {
		fmt.Fprintf(w, "Lock %d: ", l.ID)
		if l.Acquired {
			fmt.Fprintf(w, "Acquired ")
		}
		fmt.Fprintf(w, "%d\n", l.Value)
	}
}

// Report decodes and renders the full tile status: core registers,
// locks, and status flags.
func Report(w io.Writer, acc device.Accessor, tile device.Tile, gen regs.Generation) *CoreSnapshot {
	s := DecodeCore(acc, tile, gen)
	s.Render(w)
	locks, lockErrors := DecodeLocks(acc, tile, gen)
	s.ReadErrors += lockErrors
	RenderLocks(w, tile, gen, locks)
	s.RenderFlags(w)
	return s
}
