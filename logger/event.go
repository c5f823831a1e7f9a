// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logger

import (
	"time"

	"github.com/agilira/go-timecache"
)

// Timestamped is the record the transport carries for every logged event:
// wall-clock nanoseconds taken at enqueue time plus a sequence id that
// orders events sharing one clock read. It is pointer-free whenever E is,
// which the ring enforces at construction.
type Timestamped[E any] struct {
	Timestamp uint64 `json:"ts"`
	Seqid     uint32 `json:"seq"`
	Data      E      `json:"data"`
}

// Clock returns nanoseconds since the Unix epoch. The transport core only
// requires that it is cheap and non-decreasing within one client.
type Clock func() uint64

// WallClock reads the system clock on every call. This is the default.
func WallClock() Clock {
	return func() uint64 { return uint64(time.Now().UnixNano()) }
}

// CachedClock adapts a timecache to the Clock contract. The cached read
// costs a single atomic load, at the price of the cache resolution;
// callers that mostly LogSame within a burst keep full ordering anyway
// because the sequence id breaks ties.
func CachedClock(tc *timecache.TimeCache) Clock {
	return func() uint64 { return uint64(tc.CachedTime().UnixNano()) }
}
