package devmem

// simMemoryBase is where the simulated backend starts handing out
// device addresses. Nonzero so a valid device address never looks
// like a null pointer.
const simMemoryBase = 0x1000

// deviceAlignment is the device address alignment in bytes (128 bits).
const deviceAlignment = 16

// SimBackend is the simulated allocation backend. Device addresses
// come from a bump pointer that only moves forward; nothing is ever
// freed or reused within a process lifetime. Data crosses between the
// host buffer and the simulated global memory through a host cache
// model, so the sync operations exercise real flush and invalidate
// traffic.
type SimBackend struct {
	next  uint64
	gm    *GlobalMemory
	cache *hostCache
}

// NewSimBackend creates a simulated backend with its own global
// memory.
func NewSimBackend() *SimBackend {
	gm := NewGlobalMemory()
	return &SimBackend{
		next:  simMemoryBase,
		gm:    gm,
		cache: newHostCache(defaultHostCacheConfig(), gm),
	}
}

// Alloc reserves host memory for the buffer and assigns it the next
// device address. The bump pointer then rounds up so the following
// allocation stays 16-byte aligned.
func (b *SimBackend) Alloc(size int) (*Buffer, error) {
	buf := &Buffer{
		Size:    size,
		Host:    make([]byte, size),
		DevAddr: b.next,
	}
	b.next += uint64(size)
	if gap := b.next % deviceAlignment; gap > 0 {
		b.next += deviceAlignment - gap
	}
	return buf, nil
}

// SyncToDevice copies the host buffer into simulated global memory,
// flushing the cached lines on the way.
func (b *SimBackend) SyncToDevice(buf *Buffer) error {
	b.cache.WriteRange(buf.DevAddr, buf.Host)
	b.cache.FlushRange(buf.DevAddr, buf.Size)
	return nil
}

// SyncToHost refills the host buffer from simulated global memory,
// invalidating any stale cached lines first.
func (b *SimBackend) SyncToHost(buf *Buffer) error {
	b.cache.InvalidateRange(buf.DevAddr, buf.Size)
	b.cache.ReadRange(buf.DevAddr, buf.Host)
	return nil
}

// Memory exposes the simulated global memory, so tests and the
// simulated device can mutate buffers behind the host's back.
func (b *SimBackend) Memory() *GlobalMemory {
	return b.gm
}

// CacheStats reports the host cache model's traffic counters.
func (b *SimBackend) CacheStats() CacheStats {
	return b.cache.stats
}
