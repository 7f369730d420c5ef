package devmem

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// GlobalMemory models the simulated platform's external memory as a
// sparse page map, so untouched addresses read back zero.
type GlobalMemory struct {
	pages map[uint64][]byte
}

const gmPageSize = 4096

// NewGlobalMemory creates an empty global memory.
func NewGlobalMemory() *GlobalMemory {
	return &GlobalMemory{pages: make(map[uint64][]byte)}
}

func (m *GlobalMemory) page(addr uint64, create bool) []byte {
	base := addr &^ uint64(gmPageSize-1)
	p, ok := m.pages[base]
	if !ok && create {
		p = make([]byte, gmPageSize)
		m.pages[base] = p
	}
	return p
}

// Read copies size bytes starting at addr into a fresh slice.
func (m *GlobalMemory) Read(addr uint64, size int) []byte {
	data := make([]byte, size)
	for i := range data {
		a := addr + uint64(i)
		if p := m.page(a, false); p != nil {
			data[i] = p[a%gmPageSize]
		}
	}
	return data
}

// Write stores data starting at addr.
func (m *GlobalMemory) Write(addr uint64, data []byte) {
	for i, b := range data {
		a := addr + uint64(i)
		m.page(a, true)[a%gmPageSize] = b
	}
}

// hostCacheConfig sizes the host cache model.
type hostCacheConfig struct {
	// Size in bytes.
	Size int
	// Associativity (number of ways).
	Associativity int
	// BlockSize in bytes.
	BlockSize int
}

// defaultHostCacheConfig models a small host data cache; the exact
// geometry only affects how much traffic the sync operations generate,
// not their results.
func defaultHostCacheConfig() hostCacheConfig {
	return hostCacheConfig{
		Size:          32 * 1024,
		Associativity: 8,
		BlockSize:     64,
	}
}

// CacheStats counts host cache model traffic.
type CacheStats struct {
	Hits       uint64
	Misses     uint64
	Writebacks uint64
}

// hostCache is a write-back cache model between the host and the
// simulated global memory. It exists because the sync operations only
// mean something on a non-cache-coherent host: SyncToDevice is a
// flush, SyncToHost is an invalidate plus refill. The tag and LRU
// bookkeeping uses the Akita cache directory.
type hostCache struct {
	config    hostCacheConfig
	directory *akitacache.DirectoryImpl
	dataStore [][]byte
	backing   *GlobalMemory
	stats     CacheStats
}

func newHostCache(config hostCacheConfig, backing *GlobalMemory) *hostCache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &hostCache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

func (c *hostCache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *hostCache) blockAlign(addr uint64) uint64 {
	return (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
}

// fetch returns the cache block covering addr, filling it from the
// backing memory on a miss. The victim writeback keeps dirty data
// safe.
func (c *hostCache) fetch(addr uint64) (*akitacache.Block, []byte) {
	blockAddr := c.blockAlign(addr)

	if block := c.directory.Lookup(0, blockAddr); block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return block, c.dataStore[c.blockIndex(block)]
	}

	c.stats.Misses++
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		// Should not happen with a sane geometry.
		return nil, nil
	}
	data := c.dataStore[c.blockIndex(victim)]
	if victim.IsValid && victim.IsDirty {
		c.stats.Writebacks++
		c.backing.Write(victim.Tag, data)
	}
	copy(data, c.backing.Read(blockAddr, c.config.BlockSize))

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)
	return victim, data
}

// ReadRange reads len(dst) bytes starting at addr through the cache.
func (c *hostCache) ReadRange(addr uint64, dst []byte) {
	for n := 0; n < len(dst); {
		a := addr + uint64(n)
		offset := a % uint64(c.config.BlockSize)
		_, data := c.fetch(a)
		if data == nil {
			span := c.config.BlockSize - int(offset)
			if span > len(dst)-n {
				span = len(dst) - n
			}
			copy(dst[n:n+span], c.backing.Read(a, span))
			n += span
			continue
		}
		n += copy(dst[n:], data[offset:])
	}
}

// WriteRange writes src starting at addr through the cache, marking
// the touched lines dirty.
func (c *hostCache) WriteRange(addr uint64, src []byte) {
	for n := 0; n < len(src); {
		a := addr + uint64(n)
		offset := a % uint64(c.config.BlockSize)
		block, data := c.fetch(a)
		if block == nil {
			span := c.config.BlockSize - int(offset)
			if span > len(src)-n {
				span = len(src) - n
			}
			c.backing.Write(a, src[n:n+span])
			n += span
			continue
		}
		n += copy(data[offset:], src[n:])
		block.IsDirty = true
	}
}

// FlushRange writes back every dirty line overlapping [addr,
// addr+size), leaving the lines clean.
func (c *hostCache) FlushRange(addr uint64, size int) {
	for a := c.blockAlign(addr); a < addr+uint64(size); a += uint64(c.config.BlockSize) {
		block := c.directory.Lookup(0, a)
		if block != nil && block.IsValid && block.IsDirty {
			c.stats.Writebacks++
			c.backing.Write(block.Tag, c.dataStore[c.blockIndex(block)])
			block.IsDirty = false
		}
	}
}

// InvalidateRange drops every line overlapping [addr, addr+size)
// without writeback, so the next read refills from global memory.
func (c *hostCache) InvalidateRange(addr uint64, size int) {
	for a := c.blockAlign(addr); a < addr+uint64(size); a += uint64(c.config.BlockSize) {
		block := c.directory.Lookup(0, a)
		if block != nil && block.IsValid {
			block.IsValid = false
			block.IsDirty = false
		}
	}
}
