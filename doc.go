// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package xipc carries small fixed-layout records across cores or
// processes with minimum contention.
//
// Two primitives share a common wire layout inside a contiguous memory
// region:
//
//   - SPMC latest-value register: one producer overwrites a slot in
//     place; any number of consumers observe the most recent completed
//     write or detect in-flight tearing and retry. One logical value per
//     channel, no queuing.
//   - SPSC ring: a wait-free bounded FIFO with the producer and consumer
//     counters pinned to separate cache lines.
//
// Both are parameterised by a memory region (see the region subpackage),
// so the identical protocol runs between goroutines over a private chunk
// and between processes over a named shared-memory segment.
//
// # Quick Start
//
// In-process SPSC ring:
//
//	reg := region.NewChunk(xipc.SpScSize[Event](1024))
//	tx, rx, err := xipc.SpScPair[Event](reg, 1024)
//
//	// Producer goroutine
//	if err := tx.Send(&ev); xipc.IsWouldBlock(err) {
//	    // ring full - backpressure
//	}
//
//	// Consumer goroutine
//	ev, err := rx.TryRecv()
//	if err == nil {
//	    process(*ev)
//	}
//
// Cross-process SPMC register over shared memory:
//
//	// Publisher process
//	seg, err := region.Create("md.window", xipc.SpMcSize[Header, Quote](16))
//	tx, err := xipc.NewSpMcSender[Header, Quote](seg, 16)
//	tx.SendSlot(3, &quote)
//
//	// Subscriber process
//	seg, err := region.Attach("md.window", xipc.SpMcSize[Header, Quote](16), false)
//	rx, err := xipc.NewSpMcReceiver[Header, Quote](seg, 16)
//	q, err := rx.TryRecvSlotMulti(3)
//
// # Wire Layout
//
// The SPMC register frames every channel as (begin u32, payload, end u32).
// The low 24 bits of a counter roll per publish; bit 24 (the GOOD bit) is
// set on every published tag so a never-written channel (all zeroes) is
// distinguishable from a wrapped counter. A consumer that loads end,
// copies the payload, then loads begin and sees begin == end holds a
// complete value.
//
// The SPSC ring places read_done at offset 0, write_done one cache line
// later, then the slot array. Counters are slot indices; one slot stays
// reserved, so a ring of r slots holds r-1 records.
//
// Cross-process peers must agree on the payload types, the channel/slot
// counts, and the host byte order; mismatches are undefined.
//
// # Payload Types
//
// Payloads must be trivially copyable: no pointers, slices, strings,
// maps, or interfaces anywhere in the type. Constructors reject pointerful
// types. No typed Go value is ever constructed inside a region - endpoints
// copy bytes in and out and run atomics on the counter words only.
//
// # Error Handling
//
// All operations are non-blocking. [ErrWouldBlock] (an alias of
// iox.ErrWouldBlock) signals "retry later"; [ErrUninitialized] a channel
// never written; [ErrInconsistent] a torn read. TryRecvInfoMulti and
// TryRecvSlotMulti absorb torn reads for up to 1000 attempts before
// giving up with [ErrInconsistentHang].
//
//	v, err := rx.TryRecvInfo()
//	switch {
//	case err == nil:
//	    use(v)
//	case xipc.IsNonFailure(err):
//	    // no new value yet - poll again
//	default:
//	    return err
//	}
//
// # Thread Safety
//
// Endpoints are pinned-to-a-thread objects: one goroutine per sender, one
// per receiver, all sharing through the region. An SPMC receiver can be
// Clone()d to add independent readers. Violating the single-producer or
// single-consumer constraints corrupts the protocol.
//
// # Race Detection
//
// The race detector cannot observe the happens-before edges these
// protocols establish through atomic counters, and the SPMC consumer
// deliberately copies bytes that may be mid-overwrite (the framing
// counters reject the copy afterwards). Stress tests that hammer those
// paths are skipped when RaceEnabled is true.
//
// The logger subpackage builds a timestamping log client and a
// dual-thread batching backend on top of the SPSC ring.
package xipc
