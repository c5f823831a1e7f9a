// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xipc

import (
	"fmt"
	"reflect"
	"sync/atomic"
	"unsafe"
)

// SpScSender is the producer endpoint of a wait-free bounded SPSC ring.
//
// The ring lives entirely inside a Region: the read_done counter on its
// own cache line, the write_done counter on the next, then r payload
// slots. Sequence counters are slot indices; the slot between read_done
// and write_done stays reserved to distinguish empty from full, so the
// effective capacity is r-1.
//
// Exactly one sender and one receiver may exist per region. Neither is
// safe for concurrent use; pin each to one goroutine.
type SpScSender[T any] struct {
	reg      Region
	lay      spscLayout
	ring     uint32
	lastSent uint32
}

// NewSpScSender places the producer endpoint of an r-slot ring over reg.
// r must be at least 2; effective capacity is r-1.
func NewSpScSender[T any](reg Region, r int) (*SpScSender[T], error) {
	lay, err := spscChecked[T](reg, r)
	if err != nil {
		return nil, err
	}
	return &SpScSender[T]{reg: reg, lay: lay, ring: uint32(r)}, nil
}

// Send copies *v into the next free slot (non-blocking).
// Returns ErrWouldBlock if the ring is full; an unread slot is never
// overwritten, so a single producer/consumer pair loses and reorders
// nothing.
func (s *SpScSender[T]) Send(v *T) error {
	next := (s.lastSent + 1) % s.ring
	readDone := atomic.LoadUint32((*uint32)(unsafe.Add(s.reg.Ptr(), s.lay.readDone)))
	if readDone == next {
		return ErrWouldBlock
	}
	*(*T)(unsafe.Add(s.reg.Ptr(), s.lay.dataOff+uintptr(next)*s.lay.stride)) = *v
	atomic.StoreUint32((*uint32)(unsafe.Add(s.reg.Ptr(), s.lay.writeDone)), next)
	s.lastSent = next
	return nil
}

// Cap returns the effective capacity of the ring.
func (s *SpScSender[T]) Cap() int { return int(s.ring) - 1 }

// SpScReceiver is the consumer endpoint of the SPSC ring.
//
// TryRecv returns a pointer into the receiver-owned copy buffer; it stays
// valid until the next successful TryRecv.
type SpScReceiver[T any] struct {
	reg      Region
	lay      spscLayout
	ring     uint32
	lastCopy T
	haveCopy bool
}

// NewSpScReceiver places the consumer endpoint of an r-slot ring over reg.
// The ring size must match the sender's exactly.
func NewSpScReceiver[T any](reg Region, r int) (*SpScReceiver[T], error) {
	lay, err := spscChecked[T](reg, r)
	if err != nil {
		return nil, err
	}
	return &SpScReceiver[T]{reg: reg, lay: lay, ring: uint32(r)}, nil
}

// SpScPair builds both ring endpoints over a single region.
func SpScPair[T any](reg Region, r int) (*SpScSender[T], *SpScReceiver[T], error) {
	tx, err := NewSpScSender[T](reg, r)
	if err != nil {
		return nil, nil, err
	}
	rx, err := NewSpScReceiver[T](reg, r)
	if err != nil {
		return nil, nil, err
	}
	return tx, rx, nil
}

// TryRecv copies the oldest unread slot out of the ring (non-blocking).
// Returns ErrWouldBlock if the ring is empty.
func (r *SpScReceiver[T]) TryRecv() (*T, error) {
	writeDone := atomic.LoadUint32((*uint32)(unsafe.Add(r.reg.Ptr(), r.lay.writeDone)))
	readDone := atomic.LoadUint32((*uint32)(unsafe.Add(r.reg.Ptr(), r.lay.readDone)))
	if writeDone == readDone {
		return nil, ErrWouldBlock
	}
	next := (readDone + 1) % r.ring
	r.lastCopy = *(*T)(unsafe.Add(r.reg.Ptr(), r.lay.dataOff+uintptr(next)*r.lay.stride))
	atomic.StoreUint32((*uint32)(unsafe.Add(r.reg.Ptr(), r.lay.readDone)), next)
	r.haveCopy = true
	return &r.lastCopy, nil
}

// LastValue returns the copy buffer of the most recent successful TryRecv.
func (r *SpScReceiver[T]) LastValue() (*T, bool) {
	if !r.haveCopy {
		return nil, false
	}
	return &r.lastCopy, true
}

// Cap returns the effective capacity of the ring.
func (r *SpScReceiver[T]) Cap() int { return int(r.ring) - 1 }

func spscChecked[T any](reg Region, r int) (spscLayout, error) {
	if r < 2 {
		panic("xipc: ring size must be >= 2")
	}
	if err := checkPointerFree(reflect.TypeFor[T]()); err != nil {
		return spscLayout{}, err
	}
	var t T
	lay := spscLayoutOf(unsafe.Sizeof(t), unsafe.Alignof(t), r)
	if uintptr(reg.Len()) < lay.total {
		return spscLayout{}, fmt.Errorf("%w: have %d, need %d", ErrRegionSize, reg.Len(), lay.total)
	}
	return lay, nil
}
