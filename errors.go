// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xipc

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For SpScSender.Send: the ring is full (backpressure)
// For SpScReceiver.TryRecv: the ring is empty (no data available)
// For SpMcReceiver.TryRecv*: no value newer than the last observed one
//
// ErrWouldBlock is a control flow signal, not a failure. The caller should
// retry the operation later (with backoff or yield) rather than propagating
// the error.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrUninitialized indicates an SPMC channel that has never been written
// since its region was created. Distinguished from a wrapped sequence
// counter by the GOOD bit of the framing tag.
var ErrUninitialized = errors.New("xipc: channel uninitialized")

// ErrInconsistent indicates a torn read: the consumer copied the channel
// payload while the producer was overwriting it. The copy is discarded.
// Recoverable by retry; TryRecvInfoMulti and TryRecvSlotMulti retry
// internally.
var ErrInconsistent = errors.New("xipc: inconsistent read")

// ErrInconsistentHang indicates that a bounded retry loop observed only
// torn reads for maxSpinRecv consecutive attempts. A healthy producer
// completes a publish in a handful of instructions, so this means the
// producer is stuck mid-write or the endpoints disagree on the layout.
var ErrInconsistentHang = errors.New("xipc: inconsistent read retries exhausted")

// ErrRegionSize indicates a memory region smaller than the wire layout
// the endpoint was asked to place over it.
var ErrRegionSize = errors.New("xipc: region too small for layout")

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// ErrUninitialized and ErrInconsistent are semantic: both resolve once the
// producer publishes (or finishes publishing). Other errors delegate to
// [iox.IsSemantic].
func IsSemantic(err error) bool {
	if errors.Is(err, ErrUninitialized) || errors.Is(err, ErrInconsistent) {
		return true
	}
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, ErrWouldBlock, ErrUninitialized, or ErrInconsistent.
func IsNonFailure(err error) bool {
	if err == nil {
		return true
	}
	return IsSemantic(err) || iox.IsNonFailure(err)
}
