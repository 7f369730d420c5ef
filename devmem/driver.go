package devmem

import (
	"errors"
	"fmt"
)

// Mem is a driver-owned cacheable memory region.
type Mem interface {
	// Bytes is the host-virtual view of the region.
	Bytes() []byte
	// DevAddr is the device/physical address of the region.
	DevAddr() uint64
	// SyncForCPU invalidates the host cache for the region.
	SyncForCPU() error
	// SyncForDevice flushes the host cache for the region.
	SyncForDevice() error
}

// Driver is the device driver's allocation surface.
type Driver interface {
	// AllocCacheable reserves a cacheable device-visible region of
	// the given byte size.
	AllocCacheable(size int) (Mem, error)
}

// DriverBackend allocates through a live device driver and uses its
// cache-coherency primitives for synchronization.
type DriverBackend struct {
	drv Driver
}

// NewDriverBackend wraps a driver as an allocation backend.
func NewDriverBackend(drv Driver) *DriverBackend {
	return &DriverBackend{drv: drv}
}

// Alloc reserves a cacheable region and syncs it device-to-host once,
// so the caller observes a coherent view immediately.
func (b *DriverBackend) Alloc(size int) (*Buffer, error) {
	m, err := b.drv.AllocCacheable(size)
	if err != nil {
		return nil, fmt.Errorf("driver allocation failed: %w", err)
	}
	if err := m.SyncForCPU(); err != nil {
		return nil, fmt.Errorf("initial sync failed: %w", err)
	}
	return &Buffer{
		Size:    size,
		Host:    m.Bytes(),
		DevAddr: m.DevAddr(),
		mem:     m,
	}, nil
}

// SyncToHost invalidates the host cache for the buffer.
func (b *DriverBackend) SyncToHost(buf *Buffer) error {
	if buf.mem == nil {
		return errors.New("buffer has no driver handle")
	}
	return buf.mem.SyncForCPU()
}

// SyncToDevice flushes the host cache for the buffer.
func (b *DriverBackend) SyncToDevice(buf *Buffer) error {
	if buf.mem == nil {
		return errors.New("buffer has no driver handle")
	}
	return buf.mem.SyncForDevice()
}
