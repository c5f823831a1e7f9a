// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xipc

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/spin"
)

const (
	// seqMask keeps the rolling publish counter in the low 24 bits.
	// Freshness is tag equality, never arithmetic order, so wrap at 2^24
	// is harmless as long as a consumer cannot sleep through exactly 2^24
	// publishes between two polls.
	seqMask = 1<<24 - 1

	// goodBit marks a channel that has been published at least once. A
	// fresh region is all zeroes, and zero is also a legal rolled-over
	// counter value; the bit disambiguates the two.
	goodBit = 1 << 24

	// maxSpinRecv bounds the retry loop of the Multi receive helpers.
	// A publish is a handful of stores, so consecutive torn reads beyond
	// this count mean a producer died mid-write or a layout mismatch.
	maxSpinRecv = 1000
)

// SpMcSender is the single producer of an SPMC latest-value register.
//
// The register holds one Info value and n Slot values, each in its own
// channel with independent framing counters. Publishing overwrites the
// channel in place; consumers observe the most recent completed write.
// Values are never queued.
//
// A sender is not safe for concurrent use; pin it to one goroutine (or one
// process, for shared regions) and publish through it alone. Exactly one
// sender may exist per region.
type SpMcSender[Info, Slot any] struct {
	reg     Region
	lay     spmcLayout
	n       int
	infoSeq uint32
	slotSeq []uint32
}

// NewSpMcSender places an SPMC register of n slots over reg.
// Fails if the payload types contain pointers or the region is smaller
// than the wire layout.
func NewSpMcSender[Info, Slot any](reg Region, n int) (*SpMcSender[Info, Slot], error) {
	lay, err := spmcChecked[Info, Slot](reg, n)
	if err != nil {
		return nil, err
	}
	return &SpMcSender[Info, Slot]{
		reg:     reg,
		lay:     lay,
		n:       n,
		slotSeq: make([]uint32, n),
	}, nil
}

// SendInfo publishes a new value on the info channel.
// It never blocks and never fails; the producer does not read consumer
// state.
func (s *SpMcSender[Info, Slot]) SendInfo(v *Info) {
	publishChannel(s.reg.Ptr(), s.lay.info, &s.infoSeq, v)
}

// SendSlot publishes a new value on slot channel i.
// Panics if i is outside [0, n).
func (s *SpMcSender[Info, Slot]) SendSlot(i int, v *Slot) {
	if i < 0 || i >= s.n {
		panic("xipc: slot index out of range")
	}
	base := unsafe.Add(s.reg.Ptr(), s.lay.slotOff(i))
	publishChannel(base, s.lay.slot, &s.slotSeq[i], v)
}

// Slots returns the slot channel count the register was built with.
func (s *SpMcSender[Info, Slot]) Slots() int { return s.n }

// publishChannel frames one value on the wire:
//
//  1. store begin = tag (release)
//  2. copy the payload bytes
//  3. store end = tag (release)
//
// A reader that observes begin == end has therefore copied the payload
// bytes belonging to that tag: any overlapping newer write advanced begin
// past the end the reader loaded first.
func publishChannel[T any](base unsafe.Pointer, lay chanLayout, seq *uint32, src *T) {
	*seq = (*seq + 1) & seqMask
	tag := *seq | goodBit
	atomic.StoreUint32((*uint32)(unsafe.Add(base, lay.begin)), tag)
	*(*T)(unsafe.Add(base, lay.data)) = *src
	atomic.StoreUint32((*uint32)(unsafe.Add(base, lay.end)), tag)
}

// SpMcReceiver is one consumer of an SPMC latest-value register.
//
// Each receiver owns a private copy buffer and last-seen tag per channel;
// receivers never write to the region and never interfere with each other.
// Clone more receivers over the same region to add readers.
//
// A receiver is not safe for concurrent use; pin it to one goroutine.
type SpMcReceiver[Info, Slot any] struct {
	reg Region
	lay spmcLayout
	n   int

	infoCopy Info
	infoSeen uint32
	infoOK   bool

	slotCopy []Slot
	slotSeen []uint32
	slotOK   []bool
}

// NewSpMcReceiver attaches a consumer to the SPMC register over reg.
// The layout parameters must match the sender's exactly.
func NewSpMcReceiver[Info, Slot any](reg Region, n int) (*SpMcReceiver[Info, Slot], error) {
	lay, err := spmcChecked[Info, Slot](reg, n)
	if err != nil {
		return nil, err
	}
	return &SpMcReceiver[Info, Slot]{
		reg:      reg,
		lay:      lay,
		n:        n,
		slotCopy: make([]Slot, n),
		slotSeen: make([]uint32, n),
		slotOK:   make([]bool, n),
	}, nil
}

// SpMcPair builds the sender and one receiver over a single region.
func SpMcPair[Info, Slot any](reg Region, n int) (*SpMcSender[Info, Slot], *SpMcReceiver[Info, Slot], error) {
	tx, err := NewSpMcSender[Info, Slot](reg, n)
	if err != nil {
		return nil, nil, err
	}
	rx, err := NewSpMcReceiver[Info, Slot](reg, n)
	if err != nil {
		return nil, nil, err
	}
	return tx, rx, nil
}

// Clone returns an independent receiver over the same region with empty
// last-seen state. The clone observes every channel from scratch and polls
// on its own; values are never consumed away from other receivers.
func (r *SpMcReceiver[Info, Slot]) Clone() *SpMcReceiver[Info, Slot] {
	return &SpMcReceiver[Info, Slot]{
		reg:      r.reg,
		lay:      r.lay,
		n:        r.n,
		slotCopy: make([]Slot, r.n),
		slotSeen: make([]uint32, r.n),
		slotOK:   make([]bool, r.n),
	}
}

// Slots returns the slot channel count the register was built with.
func (r *SpMcReceiver[Info, Slot]) Slots() int { return r.n }

// TryRecvInfo polls the info channel once.
//
// On success it returns a pointer into the receiver's copy buffer, valid
// until the next successful TryRecvInfo. Errors:
//
//	ErrInconsistent  - torn read, retry
//	ErrUninitialized - channel never written
//	ErrWouldBlock    - no value newer than the last one returned
func (r *SpMcReceiver[Info, Slot]) TryRecvInfo() (*Info, error) {
	var v Info
	tag, err := snapshotChannel(r.reg.Ptr(), r.lay.info, &v)
	if err != nil {
		if errors.Is(err, ErrInconsistent) {
			r.infoOK = false
		}
		return nil, err
	}
	if r.infoOK && tag == r.infoSeen {
		return nil, ErrWouldBlock
	}
	r.infoCopy = v
	r.infoSeen = tag
	r.infoOK = true
	return &r.infoCopy, nil
}

// TryRecvSlot polls slot channel i once. Semantics match TryRecvInfo.
// Panics if i is outside [0, n).
func (r *SpMcReceiver[Info, Slot]) TryRecvSlot(i int) (*Slot, error) {
	if i < 0 || i >= r.n {
		panic("xipc: slot index out of range")
	}
	base := unsafe.Add(r.reg.Ptr(), r.lay.slotOff(i))
	var v Slot
	tag, err := snapshotChannel(base, r.lay.slot, &v)
	if err != nil {
		if errors.Is(err, ErrInconsistent) {
			r.slotOK[i] = false
		}
		return nil, err
	}
	if r.slotOK[i] && tag == r.slotSeen[i] {
		return nil, ErrWouldBlock
	}
	r.slotCopy[i] = v
	r.slotSeen[i] = tag
	r.slotOK[i] = true
	return &r.slotCopy[i], nil
}

// TryRecvInfoMulti is TryRecvInfo with bounded retry on torn reads.
// After maxSpinRecv consecutive ErrInconsistent results it gives up with
// ErrInconsistentHang. Every other error returns immediately.
func (r *SpMcReceiver[Info, Slot]) TryRecvInfoMulti() (*Info, error) {
	sw := spin.Wait{}
	for range maxSpinRecv {
		v, err := r.TryRecvInfo()
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrInconsistent) {
			return nil, err
		}
		sw.Once()
	}
	return nil, ErrInconsistentHang
}

// TryRecvSlotMulti is TryRecvSlot with bounded retry on torn reads.
func (r *SpMcReceiver[Info, Slot]) TryRecvSlotMulti(i int) (*Slot, error) {
	sw := spin.Wait{}
	for range maxSpinRecv {
		v, err := r.TryRecvSlot(i)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrInconsistent) {
			return nil, err
		}
		sw.Once()
	}
	return nil, ErrInconsistentHang
}

// LastInfo returns the copy buffer of the info channel if any TryRecvInfo
// has succeeded and no torn read invalidated it since.
func (r *SpMcReceiver[Info, Slot]) LastInfo() (*Info, bool) {
	if !r.infoOK {
		return nil, false
	}
	return &r.infoCopy, true
}

// LastSlot returns the copy buffer of slot channel i if any TryRecvSlot(i)
// has succeeded and no torn read invalidated it since.
// Panics if i is outside [0, n).
func (r *SpMcReceiver[Info, Slot]) LastSlot(i int) (*Slot, bool) {
	if i < 0 || i >= r.n {
		panic("xipc: slot index out of range")
	}
	if !r.slotOK[i] {
		return nil, false
	}
	return &r.slotCopy[i], true
}

// snapshotChannel copies one framed value out of the region:
//
//  1. load end (acquire)
//  2. copy the payload bytes into dst
//  3. load begin (acquire)
//
// begin == end proves dst holds exactly the bytes published under that
// tag; the GOOD bit separates "never written" from a wrapped counter.
func snapshotChannel[T any](base unsafe.Pointer, lay chanLayout, dst *T) (uint32, error) {
	end := atomic.LoadUint32((*uint32)(unsafe.Add(base, lay.end)))
	*dst = *(*T)(unsafe.Add(base, lay.data))
	begin := atomic.LoadUint32((*uint32)(unsafe.Add(base, lay.begin)))

	if begin != end {
		return 0, ErrInconsistent
	}
	if begin&goodBit == 0 {
		return 0, ErrUninitialized
	}
	return begin, nil
}

func spmcChecked[Info, Slot any](reg Region, n int) (spmcLayout, error) {
	if n < 0 {
		panic("xipc: negative slot count")
	}
	if err := checkPointerFree(reflect.TypeFor[Info]()); err != nil {
		return spmcLayout{}, err
	}
	if err := checkPointerFree(reflect.TypeFor[Slot]()); err != nil {
		return spmcLayout{}, err
	}
	var i Info
	var s Slot
	lay := spmcLayoutOf(unsafe.Sizeof(i), unsafe.Alignof(i), unsafe.Sizeof(s), unsafe.Alignof(s), n)
	if uintptr(reg.Len()) < lay.total {
		return spmcLayout{}, fmt.Errorf("%w: have %d, need %d", ErrRegionSize, reg.Len(), lay.total)
	}
	return lay, nil
}
