// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package xipc

import (
	"fmt"
	"reflect"
	"unsafe"
)

// cacheLine is the coherence granule the SPSC counters are padded to.
// Platforms with another line size must keep the counters on separate
// lines; 64 covers amd64 and arm64.
const cacheLine = 64

// alignUp rounds off up to the next multiple of a. a must be a power of 2.
func alignUp(off, a uintptr) uintptr {
	return (off + a - 1) &^ (a - 1)
}

// chanLayout describes one SPMC channel on the wire: a u32 framing counter,
// the payload at its natural alignment, and a second u32 framing counter.
// Offsets are relative to the channel start; stride includes the trailing
// padding that keeps an array of channels aligned.
type chanLayout struct {
	begin  uintptr
	data   uintptr
	end    uintptr
	stride uintptr
}

func chanLayoutOf(size, a uintptr) chanLayout {
	if a < 1 {
		a = 1
	}
	data := alignUp(4, a)
	end := alignUp(data+size, 4)
	ca := a
	if ca < 4 {
		ca = 4
	}
	return chanLayout{
		begin:  0,
		data:   data,
		end:    end,
		stride: alignUp(end+4, ca),
	}
}

// spmcLayout places one info channel followed by n slot channels.
type spmcLayout struct {
	info     chanLayout
	slot     chanLayout
	slotsOff uintptr
	total    uintptr
}

func spmcLayoutOf(infoSize, infoAlign, slotSize, slotAlign uintptr, n int) spmcLayout {
	info := chanLayoutOf(infoSize, infoAlign)
	slot := chanLayoutOf(slotSize, slotAlign)
	sa := slotAlign
	if sa < 4 {
		sa = 4
	}
	slotsOff := alignUp(info.stride, sa)
	return spmcLayout{
		info:     info,
		slot:     slot,
		slotsOff: slotsOff,
		total:    slotsOff + uintptr(n)*slot.stride,
	}
}

func (l spmcLayout) slotOff(i int) uintptr {
	return l.slotsOff + uintptr(i)*l.slot.stride
}

// spscLayout places the two ring counters on separate cache lines, then the
// slot array. Only the consumer writes readDone and only the producer writes
// writeDone, so each counter's line has a single writing core and publishes
// never invalidate the peer's line.
type spscLayout struct {
	readDone  uintptr
	writeDone uintptr
	dataOff   uintptr
	stride    uintptr
	total     uintptr
}

func spscLayoutOf(slotSize, slotAlign uintptr, r int) spscLayout {
	dataOff := alignUp(cacheLine+4, slotAlign)
	return spscLayout{
		readDone:  0,
		writeDone: cacheLine,
		dataOff:   dataOff,
		stride:    slotSize,
		total:     dataOff + uintptr(r)*slotSize,
	}
}

// SpMcSize returns the region size in bytes needed by an SPMC register
// carrying one Info channel and n Slot channels. Both sides of a shared
// segment must compute it with identical Info, Slot, and n.
func SpMcSize[Info, Slot any](n int) int {
	var i Info
	var s Slot
	l := spmcLayoutOf(unsafe.Sizeof(i), unsafe.Alignof(i), unsafe.Sizeof(s), unsafe.Alignof(s), n)
	return int(l.total)
}

// SpScSize returns the region size in bytes needed by an SPSC ring of r
// slots of T. Effective capacity is r-1.
func SpScSize[T any](r int) int {
	var t T
	l := spscLayoutOf(unsafe.Sizeof(t), unsafe.Alignof(t), r)
	return int(l.total)
}

// checkPointerFree rejects payload types the region cannot carry. A mapped
// region holds raw bytes with no GC liveness, so any pointer smuggled
// through it would dangle; only trivially copyable types are allowed.
func checkPointerFree(t reflect.Type) error {
	if hasPointers(t) {
		return fmt.Errorf("xipc: payload type %v contains pointers", t)
	}
	return nil
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		// Pointers, slices, strings, maps, chans, funcs, interfaces.
		return true
	}
}
