package dma

import (
	"fmt"
	"io"

	"github.com/sarchlab/aieprobe/device"
	"github.com/sarchlab/aieprobe/regs"
)

// The report layout below is parsed by downstream tooling; field
// order and hex widths are a compatibility contract.

// Render writes the human-readable engine report.
func (s *Snapshot) Render(w io.Writer) {
	if s.Kind == regs.Shim {
		s.renderShim(w)
		return
	}
	s.renderTile(w)
}

func (s *Snapshot) renderTile(w io.Writer) {
	fmt.Fprintf(w, "DMA [%d, %d] mm2s_status/0ctrl/1ctrl is %08X %02X %02X, "+
		"s2mm_status/0ctrl/1ctrl is %08X %02X %02X, BD0_Addr_A is %08X, "+
		"BD0_control is %08X, BD1_Addr_A is %08X, BD1_control is %08X\n",
		s.Tile.Col, s.Tile.Row, s.MM2SStatus, s.MM2SControl[0], s.MM2SControl[1],
		s.S2MMStatus, s.S2MMControl[0], s.S2MMControl[1], s.BD0Addr,
		s.BD0Control, s.BD1Addr, s.BD1Control)

	for i := range s.BDs {
		bd := &s.BDs[i]
		fmt.Fprintf(w, "BD %d valid\n", bd.Index)
		renderActive(w, bd)

		if bd.PacketMode {
			fmt.Fprintf(w, "   Packet mode: %02X\n", bd.PacketID)
		}
		fmt.Fprintf(w, "   Transfering %d 32 bit words to/from %06X\n",
			bd.Words, bd.Addr)

		fmt.Fprintf(w, "   ")
		for _, word := range bd.Buffer {
			fmt.Fprintf(w, "%08X ", word)
		}
		fmt.Fprintf(w, "\n")

		if l := bd.TileLock; l != nil {
			fmt.Fprintf(w, "   Acquires lock %d ", l.ID)
			if l.HasValue {
				fmt.Fprintf(w, "with value %d ", l.Value)
			}
			fmt.Fprintf(w, "currently ")
			if l.State != 0 {
				if l.Acquired() {
					fmt.Fprintf(w, "Acquired ")
				}
				fmt.Fprintf(w, "%d", l.LiveValue())
			} else {
				fmt.Fprintf(w, "0")
			}
			fmt.Fprintf(w, "\n")
		}

		if bd.FIFOMode != 0 {
			fmt.Fprintf(w, "   Using FIFO Cnt%d : %08X\n", bd.FIFOMode, bd.FIFOCount)
		}
		fmt.Fprintf(w, "   Next BD: %d, Use next BD: %d\n",
			bd.NextBD, b2i(bd.UseNextBD))
	}
}

func (s *Snapshot) renderShim(w io.Writer) {
	fmt.Fprintf(w, "DMA [%d, %d] mm2s_status/0ctrl/1ctrl is %08X %02X %02X, "+
		"s2mm_status/0ctrl/1ctrl is %08X %02X %02X, BD0_Addr_A is %08X, "+
		"BD0_control is %08X\n",
		s.Tile.Col, s.Tile.Row, s.MM2SStatus, s.MM2SControl[0], s.MM2SControl[1],
		s.S2MMStatus, s.S2MMControl[0], s.S2MMControl[1], s.BD0Addr,
		s.BD0Control)

	for i := range s.BDs {
		bd := &s.BDs[i]
		fmt.Fprintf(w, "BD %d valid\n", bd.Index)
		renderActive(w, bd)

		fmt.Fprintf(w, "   Transfering %d 32 bit words to/from %06X\n",
			bd.Words, uint32(bd.Addr))

		fmt.Fprintf(w, "next_bd: %d, use_next_bd: %d\n",
			bd.NextBD, b2i(bd.UseNextBD))
		l := bd.Lock
		fmt.Fprintf(w, "lock: %d, acq(en: %d, val: %d, use: %d), "+
			"rel(en: %d, val: %d, use: %d)\n",
			l.ID, b2i(l.AcquireEnable), l.AcquireValue, b2i(l.AcquireUseValue),
			b2i(l.ReleaseEnable), l.ReleaseValue, b2i(l.ReleaseUseValue))
	}
}

func renderActive(w io.Writer, bd *BD) {
	for _, ch := range bd.ActiveFor {
		fmt.Fprintf(w, " * Current BD for %s channel %d\n", ch.Dir.Name(), ch.Index)
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Report decodes one DMA engine and renders it in a single call.
func Report(w io.Writer, acc device.Accessor, tile device.Tile, kind regs.Kind) *Snapshot {
	s := Decode(acc, tile, kind)
	s.Render(w)
	return s
}
