// Package main provides the entry point for aieprobe.
// Aieprobe inspects the runtime state of AI engine arrays.
//
// For the full CLI, use: go run ./cmd/aieprobe
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("aieprobe - AI engine array status probe")
	fmt.Println("")
	fmt.Println("Usage: aieprobe [options] <dump.json>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -col/-row  Tile coordinates")
	fmt.Println("  -gen       Device generation (aie1 or aie2)")
	fmt.Println("  -shim      Decode the shim DMA engine")
	fmt.Println("  -mem       Dump nonzero tile data memory")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/aieprobe' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/aieprobe' instead.")
	}
}
