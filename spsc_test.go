// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xipc_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"

	"code.hotpath.dev/xipc"
	"code.hotpath.dev/xipc/region"
)

type tick struct {
	Timestamp uint64
	Pad       [3]uint64
}

func newSpScPair[T any](t *testing.T, r int) (*xipc.SpScSender[T], *xipc.SpScReceiver[T]) {
	t.Helper()
	reg := region.NewChunk(xipc.SpScSize[T](r))
	tx, rx, err := xipc.SpScPair[T](reg, r)
	if err != nil {
		t.Fatalf("SpScPair: %v", err)
	}
	return tx, rx
}

// TestSpScBasic walks a 3-slot ring through the exchange and overflow
// sequence: effective capacity is 2, the reserved slot never fills, and
// every receive frees exactly one slot.
func TestSpScBasic(t *testing.T) {
	tx, rx := newSpScPair[tick](t, 3)

	if tx.Cap() != 2 || rx.Cap() != 2 {
		t.Fatalf("Cap: got %d/%d, want 2", tx.Cap(), rx.Cap())
	}

	// Empty ring
	if _, err := rx.TryRecv(); !errors.Is(err, xipc.ErrWouldBlock) {
		t.Fatalf("TryRecv on empty: got %v, want ErrWouldBlock", err)
	}
	if _, err := rx.TryRecv(); !errors.Is(err, xipc.ErrWouldBlock) {
		t.Fatalf("TryRecv on empty: got %v, want ErrWouldBlock", err)
	}

	// Single round trip
	if err := tx.Send(&tick{Timestamp: 111}); err != nil {
		t.Fatalf("Send(111): %v", err)
	}
	v, err := rx.TryRecv()
	if err != nil {
		t.Fatalf("TryRecv: %v", err)
	}
	if v.Timestamp != 111 {
		t.Fatalf("TryRecv: got %d, want 111", v.Timestamp)
	}
	if _, err := rx.TryRecv(); !errors.Is(err, xipc.ErrWouldBlock) {
		t.Fatalf("TryRecv after drain: got %v, want ErrWouldBlock", err)
	}

	if err := tx.Send(&tick{Timestamp: 222}); err != nil {
		t.Fatalf("Send(222): %v", err)
	}
	if v, err = rx.TryRecv(); err != nil || v.Timestamp != 222 {
		t.Fatalf("TryRecv: got %v/%v, want 222", v, err)
	}

	// Overflow: two sends fill the ring, the third must report full.
	if err := tx.Send(&tick{Timestamp: 111}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := tx.Send(&tick{Timestamp: 222}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := tx.Send(&tick{Timestamp: 333}); !errors.Is(err, xipc.ErrWouldBlock) {
		t.Fatalf("Send on full: got %v, want ErrWouldBlock", err)
	}

	// One receive frees exactly one slot.
	if v, err = rx.TryRecv(); err != nil || v.Timestamp != 111 {
		t.Fatalf("TryRecv: got %v/%v, want 111", v, err)
	}
	if err := tx.Send(&tick{Timestamp: 333}); err != nil {
		t.Fatalf("Send after one recv: %v", err)
	}
	if err := tx.Send(&tick{Timestamp: 444}); !errors.Is(err, xipc.ErrWouldBlock) {
		t.Fatalf("Send on refilled ring: got %v, want ErrWouldBlock", err)
	}

	if v, err = rx.TryRecv(); err != nil || v.Timestamp != 222 {
		t.Fatalf("TryRecv: got %v/%v, want 222", v, err)
	}
	if err := tx.Send(&tick{Timestamp: 444}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// FIFO drain of the remainder.
	if v, err = rx.TryRecv(); err != nil || v.Timestamp != 333 {
		t.Fatalf("TryRecv: got %v/%v, want 333", v, err)
	}
	if v, err = rx.TryRecv(); err != nil || v.Timestamp != 444 {
		t.Fatalf("TryRecv: got %v/%v, want 444", v, err)
	}
	if _, err := rx.TryRecv(); !errors.Is(err, xipc.ErrWouldBlock) {
		t.Fatalf("TryRecv on drained ring: got %v, want ErrWouldBlock", err)
	}
}

// TestSpScCapacityBoundary checks the full/empty distinguisher: r-1
// sends fill the ring, one receive admits exactly one more send.
func TestSpScCapacityBoundary(t *testing.T) {
	const r = 8
	tx, rx := newSpScPair[uint64](t, r)

	for i := range r - 1 {
		v := uint64(i)
		if err := tx.Send(&v); err != nil {
			t.Fatalf("Send(%d): %v", i, err)
		}
	}
	v := uint64(99)
	if err := tx.Send(&v); !errors.Is(err, xipc.ErrWouldBlock) {
		t.Fatalf("Send on full: got %v, want ErrWouldBlock", err)
	}
	if _, err := rx.TryRecv(); err != nil {
		t.Fatalf("TryRecv: %v", err)
	}
	if err := tx.Send(&v); err != nil {
		t.Fatalf("Send after recv: %v", err)
	}
	if err := tx.Send(&v); !errors.Is(err, xipc.ErrWouldBlock) {
		t.Fatalf("second Send after one recv: got %v, want ErrWouldBlock", err)
	}
}

// TestSpScWrap runs enough traffic through a small ring that the slot
// counters wrap several times.
func TestSpScWrap(t *testing.T) {
	const r = 3
	tx, rx := newSpScPair[uint64](t, r)

	for i := range uint64(1000) {
		if err := tx.Send(&i); err != nil {
			t.Fatalf("Send(%d): %v", i, err)
		}
		v, err := rx.TryRecv()
		if err != nil {
			t.Fatalf("TryRecv(%d): %v", i, err)
		}
		if *v != i {
			t.Fatalf("TryRecv: got %d, want %d", *v, i)
		}
	}
}

// TestSpScLastValue checks the receiver's copy buffer accessor.
func TestSpScLastValue(t *testing.T) {
	tx, rx := newSpScPair[tick](t, 3)

	if _, ok := rx.LastValue(); ok {
		t.Fatal("LastValue before any receive")
	}
	tx.Send(&tick{Timestamp: 7})
	if _, err := rx.TryRecv(); err != nil {
		t.Fatalf("TryRecv: %v", err)
	}
	v, ok := rx.LastValue()
	if !ok || v.Timestamp != 7 {
		t.Fatalf("LastValue: got %v/%v, want 7", v, ok)
	}
}

// TestSpScRegionTooSmall checks that endpoints reject undersized regions.
func TestSpScRegionTooSmall(t *testing.T) {
	reg := region.NewChunk(64)
	if _, err := xipc.NewSpScSender[tick](reg, 64); !errors.Is(err, xipc.ErrRegionSize) {
		t.Fatalf("got %v, want ErrRegionSize", err)
	}
}

// TestSpScPointerfulPayload checks that pointerful types are rejected.
func TestSpScPointerfulPayload(t *testing.T) {
	type bad struct {
		S string
	}
	reg := region.NewChunk(4096)
	if _, err := xipc.NewSpScSender[bad](reg, 4); err == nil {
		t.Fatal("pointerful payload accepted")
	}
}

// TestSpScFIFOConcurrent moves 100k items through the ring between two
// goroutines and verifies exact FIFO delivery with no loss.
func TestSpScFIFOConcurrent(t *testing.T) {
	if xipc.RaceEnabled {
		t.Skip("skip: ring uses cross-variable memory ordering")
	}

	const itemCount = 100000
	tx, rx := newSpScPair[uint64](t, 64)

	var wg sync.WaitGroup
	var producerDone atomix.Bool
	var consumerErr error
	var consumed atomix.Int64

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer producerDone.Store(true)
		backoff := iox.Backoff{}
		for i := range uint64(itemCount) {
			v := i + 1 // +1 to distinguish from zero
			for tx.Send(&v) != nil {
				backoff.Wait()
			}
			backoff.Reset()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		backoff := iox.Backoff{}
		expected := uint64(1)
		for expected <= itemCount {
			val, err := rx.TryRecv()
			if err == nil {
				if *val != expected {
					consumerErr = errors.New("FIFO violation")
					return
				}
				expected++
				consumed.Add(1)
				backoff.Reset()
			} else {
				if producerDone.Load() && consumed.Load() == itemCount {
					return
				}
				backoff.Wait()
			}
		}
	}()

	wg.Wait()

	if consumerErr != nil {
		t.Fatalf("consumer error: %v", consumerErr)
	}
	if got := consumed.Load(); got != itemCount {
		t.Fatalf("consumed %d, want %d", got, itemCount)
	}
}

// TestSpScThroughput keeps the ring saturated for a while so producer
// and consumer wrap concurrently.
func TestSpScThroughput(t *testing.T) {
	if xipc.RaceEnabled {
		t.Skip("skip: ring uses cross-variable memory ordering")
	}
	if testing.Short() {
		t.Skip("skip in short mode")
	}

	const (
		itemCount = 1000000
		timeout   = 10 * time.Second
	)
	tx, rx := newSpScPair[uint64](t, 1024)

	var wg sync.WaitGroup
	var timedOut atomix.Bool
	var consumed atomix.Int64
	deadline := time.Now().Add(timeout)

	wg.Add(1)
	go func() {
		defer wg.Done()
		backoff := iox.Backoff{}
		for i := range uint64(itemCount) {
			if time.Now().After(deadline) {
				timedOut.Store(true)
				return
			}
			for tx.Send(&i) != nil {
				if time.Now().After(deadline) {
					timedOut.Store(true)
					return
				}
				backoff.Wait()
			}
			backoff.Reset()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		backoff := iox.Backoff{}
		for consumed.Load() < itemCount {
			if time.Now().After(deadline) {
				timedOut.Store(true)
				return
			}
			if _, err := rx.TryRecv(); err == nil {
				consumed.Add(1)
				backoff.Reset()
			} else {
				backoff.Wait()
			}
		}
	}()

	wg.Wait()

	if timedOut.Load() {
		t.Fatal("timed out")
	}
	if got := consumed.Load(); got != itemCount {
		t.Fatalf("consumed %d, want %d", got, itemCount)
	}
}
