// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xipc

import "unsafe"

// Region is a fixed-size writable memory area shared between one producer
// endpoint and its consumer endpoints. Implementations live in the region
// subpackage: a process-private chunk and a POSIX named shared-memory
// segment.
//
// Contract:
//   - Ptr returns the same address for the region's lifetime.
//   - The backing bytes stay mapped and writable until Close.
//   - The region must outlive every endpoint constructed over it.
//
// Endpoints never construct or destroy typed Go values inside a region.
// All access is byte copies of pointer-free payloads plus atomic
// loads/stores on the counter words of the wire layout.
type Region interface {
	// Ptr returns the base address of the region.
	Ptr() unsafe.Pointer
	// Len returns the region size in bytes.
	Len() int
	// Close releases the mapping. Closing a region with live endpoints is
	// a caller error.
	Close() error
}

// Sender is the producer side of the SPSC ring.
//
// The element is passed by pointer to avoid copying large structs on the
// way in. The ring stores a copy of the pointed-to value, so the original
// can be modified after Send returns.
type Sender[T any] interface {
	// Send appends an element to the ring (non-blocking).
	// Returns nil on success, ErrWouldBlock if the ring is full.
	Send(elem *T) error
}

// Receiver is the consumer side of the SPSC ring.
//
// TryRecv returns a pointer into a receiver-owned copy buffer. The pointer
// stays valid until the next successful TryRecv on the same receiver.
type Receiver[T any] interface {
	// TryRecv removes and returns the oldest element (non-blocking).
	// Returns (nil, ErrWouldBlock) if the ring is empty.
	TryRecv() (*T, error)
}
