// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logger

// Client assigns each event a (timestamp, seqid) pair and forwards it to
// a backend. Within one client the pairs are strictly increasing in
// lexicographic order across Log and LogSame calls.
//
// A client is single-threaded: it is not synchronised for concurrent
// callers. Give each producing goroutine its own client (and backend
// ring); the backends fan in at the sink, not at the ring.
type Client[E any] struct {
	backend Backend[E]
	clock   Clock
	lastTs  uint64
	lastSeq uint32
}

// NewClient wraps backend with timestamping. WithClock is the only option
// the client reads.
func NewClient[E any](backend Backend[E], opts ...Option) *Client[E] {
	o := applyOptions(opts)
	return &Client[E]{backend: backend, clock: o.clock}
}

// Log reads the clock and enqueues the event as (now, 0).
func (c *Client[E]) Log(ev E) error {
	ts := c.clock()
	c.lastTs, c.lastSeq = ts, 0
	return c.backend.Log(Timestamped[E]{Timestamp: ts, Data: ev})
}

// LogSame enqueues the event under the previous clock read, bumping the
// sequence id instead. Intended for bursts that share a single Log: the
// pairs (t,0), (t,1), ... stay strictly ordered without touching the
// clock again.
func (c *Client[E]) LogSame(ev E) error {
	c.lastSeq++
	return c.backend.Log(Timestamped[E]{Timestamp: c.lastTs, Seqid: c.lastSeq, Data: ev})
}

// Backend exposes the wrapped backend, mainly so tests can drain it.
func (c *Client[E]) Backend() Backend[E] { return c.backend }
