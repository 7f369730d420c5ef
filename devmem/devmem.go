// Package devmem manages device-visible memory buffers and their
// host/device synchronization.
package devmem

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Allocation errors.
var (
	// ErrCapacity reports a buffer index outside the directory
	// declared at initialization.
	ErrCapacity = errors.New("buffer index out of declared capacity")

	// ErrAlreadyAllocated reports a second Allocate on a slot; slots
	// move from unallocated to allocated exactly once.
	ErrAlreadyAllocated = errors.New("buffer slot already allocated")

	// ErrBadSize reports an allocation request for zero or negative
	// words.
	ErrBadSize = errors.New("non-positive allocation size")
)

// Buffer is one device-visible memory region. The allocator owns the
// mapping; callers borrow Host for the life of the process. There is
// no free path in the current hardware support scope.
type Buffer struct {
	Index int
	// Size in bytes.
	Size int
	// Host is the host-visible view of the buffer.
	Host []byte
	// DevAddr is the device/physical address the hardware uses.
	DevAddr uint64

	// mem is the driver handle (driver backend only).
	mem Mem
}

// Backend allocates buffers and moves data across the host/device
// coherency boundary.
type Backend interface {
	// Alloc reserves a device-visible buffer of the given byte size.
	Alloc(size int) (*Buffer, error)

	// SyncToHost makes device-side writes visible to the host.
	SyncToHost(buf *Buffer) error

	// SyncToDevice makes host-side writes visible to the device.
	SyncToDevice(buf *Buffer) error
}

// Allocator maintains a fixed-size directory of buffer slots over a
// backend. It assumes a single allocating thread.
type Allocator struct {
	backend Backend
	slots   []*Buffer
	diag    io.Writer
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithDiagnostics redirects the allocator's diagnostic output, which
// otherwise goes to stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(a *Allocator) {
		a.diag = w
	}
}

// NewAllocator reserves a directory of capacity buffer slots, all
// initially empty.
func NewAllocator(backend Backend, capacity int, opts ...Option) *Allocator {
	a := &Allocator{
		backend: backend,
		slots:   make([]*Buffer, capacity),
		diag:    os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Capacity returns the number of slots in the directory.
func (a *Allocator) Capacity() int {
	return len(a.slots)
}

// Allocate reserves slot index with room for words 32-bit words and
// returns the host-visible view. An index outside the directory fails
// with ErrCapacity and leaves the directory untouched; a slot is
// allocated at most once; a request for zero or negative words fails
// with ErrBadSize.
func (a *Allocator) Allocate(index, words int) ([]byte, error) {
	if index < 0 || index >= len(a.slots) {
		fmt.Fprintf(a.diag, "devmem: buffer index %d outside capacity %d\n",
			index, len(a.slots))
		return nil, ErrCapacity
	}
	if a.slots[index] != nil {
		fmt.Fprintf(a.diag, "devmem: buffer %d allocated twice\n", index)
		return nil, ErrAlreadyAllocated
	}
	if words <= 0 {
		fmt.Fprintf(a.diag, "devmem: failed to allocate %d words for buffer %d\n",
			words, index)
		return nil, ErrBadSize
	}

	buf, err := a.backend.Alloc(words * 4)
	if err != nil {
		fmt.Fprintf(a.diag, "devmem: failed to allocate %d words for buffer %d: %v\n",
			words, index, err)
		return nil, fmt.Errorf("allocate buffer %d: %w", index, err)
	}
	buf.Index = index
	a.slots[index] = buf
	return buf.Host, nil
}

// Buffer returns the slot's buffer, or nil while unallocated.
func (a *Allocator) Buffer(index int) *Buffer {
	if index < 0 || index >= len(a.slots) {
		return nil
	}
	return a.slots[index]
}

// SyncToHost makes device-side writes to the slot visible to the
// host. Syncing an unallocated slot is a programmer error surfaced
// only through diagnostic output.
func (a *Allocator) SyncToHost(index int) {
	buf := a.lookup(index, "SyncToHost")
	if buf == nil {
		return
	}
	if err := a.backend.SyncToHost(buf); err != nil {
		fmt.Fprintf(a.diag, "devmem: SyncToHost(%d): %v\n", index, err)
	}
}

// SyncToDevice makes host-side writes to the slot visible to the
// device.
func (a *Allocator) SyncToDevice(index int) {
	buf := a.lookup(index, "SyncToDevice")
	if buf == nil {
		return
	}
	if err := a.backend.SyncToDevice(buf); err != nil {
		fmt.Fprintf(a.diag, "devmem: SyncToDevice(%d): %v\n", index, err)
	}
}

func (a *Allocator) lookup(index int, op string) *Buffer {
	if index < 0 || index >= len(a.slots) || a.slots[index] == nil {
		fmt.Fprintf(a.diag, "devmem: %s on unallocated buffer %d\n", op, index)
		return nil
	}
	return a.slots[index]
}
