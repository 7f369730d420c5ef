package device

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Dump is a captured register image: absolute addresses and their
// values, both hex-encoded in the file so dumps stay readable next to
// the device documentation.
//
//	{
//	  "registers": {
//	    "0x1D000": "0x80000000",
//	    "0x1DF00": "0x1"
//	  }
//	}
type Dump struct {
	Registers map[string]string `json:"registers"`
}

// LoadDump reads a register dump file into a simulated array, ready
// for offline decoding.
func LoadDump(path string) (*SimArray, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read register dump: %w", err)
	}

	var dump Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("failed to parse register dump: %w", err)
	}

	arr := NewSimArray()
	for addrStr, valStr := range dump.Registers {
		addr, err := parseHex(addrStr)
		if err != nil {
			return nil, fmt.Errorf("bad register address %q: %w", addrStr, err)
		}
		val, err := parseHex(valStr)
		if err != nil {
			return nil, fmt.Errorf("bad register value %q: %w", valStr, err)
		}
		arr.Poke(addr, uint32(val))
	}
	return arr, nil
}

// SaveDump writes the array's populated registers to a dump file.
func (a *SimArray) SaveDump(path string) error {
	dump := Dump{Registers: make(map[string]string, len(a.regs))}
	for addr, val := range a.regs {
		dump.Registers[fmt.Sprintf("%#x", addr)] = fmt.Sprintf("%#x", val)
	}

	data, err := json.MarshalIndent(&dump, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize register dump: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write register dump: %w", err)
	}
	return nil
}

func parseHex(s string) (uint64, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	return strconv.ParseUint(s, 16, 64)
}
