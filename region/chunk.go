// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package region

import "unsafe"

// Chunk is a process-private memory region. Handles returned by Clone
// alias the same bytes, so one goroutine can produce through one handle
// while others consume through clones; the backing allocation lives until
// the last handle is garbage collected.
type Chunk struct {
	// Backed by a uint64 slice so the base address is 8-byte aligned for
	// the widest payload field the layouts place.
	words []uint64
	size  int
}

// NewChunk allocates a zeroed private region of the given byte size.
func NewChunk(size int) *Chunk {
	if size <= 0 {
		panic("region: chunk size must be positive")
	}
	return &Chunk{
		words: make([]uint64, (size+7)/8),
		size:  size,
	}
}

// Clone returns another handle over the same bytes.
func (c *Chunk) Clone() *Chunk {
	return &Chunk{words: c.words, size: c.size}
}

// Ptr returns the base address of the region.
func (c *Chunk) Ptr() unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(c.words))
}

// Len returns the region size in bytes.
func (c *Chunk) Len() int { return c.size }

// Close is a no-op; the allocation is reclaimed by the garbage collector
// once the last handle drops.
func (c *Chunk) Close() error { return nil }
