// Package main provides the entry point for aieprobe.
// Aieprobe decodes captured register dumps of an AI engine array into
// human-readable core, lock, and DMA status reports.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/aieprobe/device"
	"github.com/sarchlab/aieprobe/dma"
	"github.com/sarchlab/aieprobe/regs"
	"github.com/sarchlab/aieprobe/status"
)

var (
	col     = flag.Int("col", 0, "Tile column")
	row     = flag.Int("row", 0, "Tile row")
	genName = flag.String("gen", "aie1", "Device generation (aie1 or aie2)")
	shim    = flag.Bool("shim", false, "Decode the shim DMA engine instead of the tile DMA")
	showMem = flag.Bool("mem", false, "Dump nonzero tile data memory")
	verbose = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: aieprobe [options] <dump.json>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	gen, err := regs.ParseGeneration(*genName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dumpPath := flag.Arg(0)
	arr, err := device.LoadDump(dumpPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading register dump: %v\n", err)
		os.Exit(1)
	}

	tile := device.Tile{Col: *col, Row: *row}
	kind := regs.Tile
	if *shim {
		kind = regs.Shim
	}
	if *verbose {
		fmt.Printf("Loaded: %s\n", dumpPath)
		fmt.Printf("Tile %s, generation %s, %s DMA\n",
			tile, gen.Name(), kind.Name())
	}

	core := status.Report(os.Stdout, arr, tile, gen)
	snap := dma.Report(os.Stdout, arr, tile, kind)

	if *showMem {
		device.DumpDataMemory(os.Stdout, arr, tile)
	}

	if *verbose && core.ReadErrors+snap.ReadErrors > 0 {
		fmt.Printf("Degraded decode: %d register reads failed\n",
			core.ReadErrors+snap.ReadErrors)
	}
}
