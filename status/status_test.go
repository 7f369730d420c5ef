package status_test

import (
	"bytes"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/aieprobe/device"
	"github.com/sarchlab/aieprobe/regs"
	"github.com/sarchlab/aieprobe/status"
)

func TestStatus(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Status Suite")
}

var _ = Describe("Core Status Decoder", func() {
	var (
		arr  *device.SimArray
		tile device.Tile
	)

	BeforeEach(func() {
		arr = device.NewSimArray()
		tile = device.Tile{Col: 1, Row: 2}
	})

	pokeCore := func(gen regs.Generation, statusWord uint32) {
		lay := regs.Core(gen)
		arr.PokeTile(tile, lay.Status, statusWord)
		arr.PokeTile(tile, lay.Timer, 0x12345678)
		arr.PokeTile(tile, lay.PC, 0x0720)
		arr.PokeTile(tile, lay.LR, 0x0100)
		arr.PokeTile(tile, lay.SP, 0x3FF0)
		arr.PokeTile(tile, lay.TraceStatus, 0xA5)
		arr.PokeTile(tile, lay.R0, 0x11)
		arr.PokeTile(tile, lay.R4, 0x44)
	}

	It("should decode status 0x1 on Gen1 as exactly Enabled", func() {
		pokeCore(regs.Gen1, 0x1)

		s := status.DecodeCore(arr, tile, regs.Gen1)

		Expect(s.Flags).To(Equal([]string{"Enabled"}))
		Expect(s.Timer).To(Equal(uint32(0x12345678)))
		Expect(s.PC).To(Equal(uint32(0x0720)))
		Expect(s.LR).To(Equal(uint32(0x0100)))
		Expect(s.SP).To(Equal(uint32(0x3FF0)))
		Expect(s.TraceStatus).To(Equal(uint32(0xA5)))
		Expect(s.R0).To(Equal(uint32(0x11)))
		Expect(s.R4).To(Equal(uint32(0x44)))
	})

	It("should expand several simultaneous flags in bit order", func() {
		// Enabled, Lock Stall W, Core Done.
		pokeCore(regs.Gen1, 1|1<<7|1<<20)

		s := status.DecodeCore(arr, tile, regs.Gen1)

		Expect(s.Flags).To(Equal([]string{"Enabled", "Lock Stall W", "Core Done"}))
	})

	It("should read the GenML register set at its own offsets", func() {
		pokeCore(regs.GenML, 1<<16) // Debug Halt

		s := status.DecodeCore(arr, tile, regs.GenML)

		Expect(s.Flags).To(Equal([]string{"Debug Halt"}))
		Expect(s.PC).To(Equal(uint32(0x0720)))
	})

	It("should report failed register reads as zero", func() {
		pokeCore(regs.Gen1, 0x1)
		arr.FailAt(tile.Base(arr) + regs.Core(regs.Gen1).PC)

		s := status.DecodeCore(arr, tile, regs.Gen1)

		Expect(s.PC).To(Equal(uint32(0)))
		Expect(s.ReadErrors).To(Equal(1))
		Expect(s.Flags).To(Equal([]string{"Enabled"}))
	})

	It("should render the legacy report lines", func() {
		pokeCore(regs.Gen1, 0x1)
		s := status.DecodeCore(arr, tile, regs.Gen1)

		out := &bytes.Buffer{}
		s.Render(out)
		s.RenderFlags(out)

		Expect(out.String()).To(Equal(
			"Core [1, 2] status is 00000001, timer is 305419896, " +
				"PC is 00000720, LR is 00000100, SP is 00003FF0, " +
				"R0 is 00000011,R4 is 00000044\n" +
				"Core [1, 2] trace status is 000000A5\n" +
				"Core Status: Enabled \n"))
	})
})

var _ = Describe("Lock Decoder", func() {
	var (
		arr  *device.SimArray
		tile device.Tile
	)

	BeforeEach(func() {
		arr = device.NewSimArray()
		tile = device.Tile{Col: 0, Row: 1}
	})

	Context("Gen1 aggregate register", func() {
		It("should decode an acquired lock with value 1", func() {
			// Lock 5: acquired (bit 0) and value (bit 1).
			arr.PokeTile(tile, regs.Locks(regs.Gen1).Aggregate, 0x3<<10)

			locks, _ := status.DecodeLocks(arr, tile, regs.Gen1)

			Expect(locks).To(HaveLen(1))
			Expect(locks[0].ID).To(Equal(5))
			Expect(locks[0].Acquired).To(BeTrue())
			Expect(locks[0].Value).To(Equal(uint32(1)))
		})

		It("should omit locks whose status pair is zero", func() {
			arr.PokeTile(tile, regs.Locks(regs.Gen1).Aggregate, 0)

			locks, _ := status.DecodeLocks(arr, tile, regs.Gen1)

			Expect(locks).To(BeEmpty())
		})

		It("should decode a value-only pair as released", func() {
			// Lock 0: value bit without acquired bit.
			arr.PokeTile(tile, regs.Locks(regs.Gen1).Aggregate, 0x2)

			locks, _ := status.DecodeLocks(arr, tile, regs.Gen1)

			Expect(locks).To(HaveLen(1))
			Expect(locks[0].Acquired).To(BeFalse())
			Expect(locks[0].Value).To(Equal(uint32(1)))
		})

		It("should count a failed aggregate read", func() {
			lay := regs.Locks(regs.Gen1)
			arr.FailAt(tile.Base(arr) + lay.Aggregate)

			locks, readErrors := status.DecodeLocks(arr, tile, regs.Gen1)

			Expect(locks).To(BeEmpty())
			Expect(readErrors).To(Equal(1))
		})
	})

	Context("GenML per-lock registers", func() {
		It("should prime the first lock register before reading", func() {
			lay := regs.Locks(regs.GenML)
			base := tile.Base(arr) + lay.Base

			status.DecodeLocks(arr, tile, regs.GenML)

			v, ok := arr.LastWrite(base)
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(lay.Prime))
		})

		It("should read 16 consecutive registers at the fixed stride", func() {
			lay := regs.Locks(regs.GenML)
			for i := 0; i < regs.NumLocks; i++ {
				arr.PokeTile(tile, lay.Base+uint64(i)*lay.Stride, uint32(i%4))
			}

			locks, _ := status.DecodeLocks(arr, tile, regs.GenML)

			Expect(locks).To(HaveLen(regs.NumLocks))
			for i, l := range locks {
				Expect(l.ID).To(Equal(i))
				Expect(l.Raw).To(Equal(uint32(i % 4)))
			}
		})

		It("should count failed lock reads and report them as zero", func() {
			lay := regs.Locks(regs.GenML)
			arr.PokeTile(tile, lay.Base+3*lay.Stride, 0xF)
			arr.FailAt(tile.Base(arr) + lay.Base + 3*lay.Stride)

			locks, readErrors := status.DecodeLocks(arr, tile, regs.GenML)

			Expect(readErrors).To(Equal(1))
			Expect(locks[3].Raw).To(BeZero())
		})
	})

	It("should render Gen1 locks in the legacy format", func() {
		arr.PokeTile(tile, regs.Locks(regs.Gen1).Aggregate, 0x3<<10)
		locks, _ := status.DecodeLocks(arr, tile, regs.Gen1)

		out := &bytes.Buffer{}
		status.RenderLocks(out, tile, regs.Gen1, locks)

		Expect(out.String()).To(Equal(
			"Core [0, 1] AIE1 locks are 00000C00\n" +
				"Lock 5: Acquired 1\n"))
	})

	It("should render GenML lock nibbles as-is", func() {
		lay := regs.Locks(regs.GenML)
		arr.PokeTile(tile, lay.Base+2*lay.Stride, 0xF)
		locks, _ := status.DecodeLocks(arr, tile, regs.GenML)

		out := &bytes.Buffer{}
		status.RenderLocks(out, tile, regs.GenML, locks)

		Expect(out.String()).To(Equal(
			"Core [0, 1] AIE2 locks are: 3 0 F 0 0 0 0 0 0 0 0 0 0 0 0 0 \n"))
	})
})
