// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logger

import (
	"fmt"
	"io"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"go.uber.org/zap"

	"code.hotpath.dev/xipc"
	"code.hotpath.dev/xipc/region"
)

// DualThread moves records from the caller to a sink in three stages:
//
//	Log -> SPSC ring -> drain worker -> intermediate queue -> writer -> sink
//
// The ring bounds what the caller can have in flight; Log never blocks
// and reports a full ring as an error. The drain worker empties the ring
// every drain interval into an unbounded queue so the ring stays shallow.
// The writer batches the queue and flushes to the sink when the batch is
// large enough or old enough.
//
// Log is single-producer: one client goroutine per backend instance.
type DualThread[E any] struct {
	tx         *xipc.SpScSender[Timestamped[E]]
	queue      recordQueue[E]
	sink       io.Writer
	serializer Serializer[E]

	flushCount    int
	flushAge      time.Duration
	drainInterval time.Duration
	writeInterval time.Duration

	drainStop  atomix.Bool
	writerStop atomix.Bool
	drainDone  chan struct{}
	writerDone chan struct{}

	log     *zap.Logger
	metrics *Metrics
}

// NewDualThread builds the backend over a private ring of ringSize slots
// (effective capacity ringSize-1) and starts both workers.
func NewDualThread[E any](ringSize int, sink io.Writer, opts ...Option) (*DualThread[E], error) {
	o := applyOptions(opts)
	ser, err := serializerFor[E](o)
	if err != nil {
		return nil, err
	}

	reg := region.NewChunk(xipc.SpScSize[Timestamped[E]](ringSize))
	tx, rx, err := xipc.SpScPair[Timestamped[E]](reg, ringSize)
	if err != nil {
		return nil, err
	}

	d := &DualThread[E]{
		tx:            tx,
		sink:          sink,
		serializer:    ser,
		flushCount:    o.flushCount,
		flushAge:      o.flushAge,
		drainInterval: o.drainInterval,
		writeInterval: o.writeInterval,
		drainDone:     make(chan struct{}),
		writerDone:    make(chan struct{}),
		log:           o.log,
		metrics:       o.metrics,
	}
	go d.drainLoop(rx)
	go d.writeLoop()
	return d, nil
}

// Log pushes one record into the ring. A full ring surfaces as ErrBackend
// wrapping xipc.ErrWouldBlock; the record is not retained. Whether to
// retry, drop, or backpressure is the caller's policy.
func (d *DualThread[E]) Log(rec Timestamped[E]) error {
	if err := d.tx.Send(&rec); err != nil {
		d.metrics.incDropped()
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}
	d.metrics.incEnqueued()
	return nil
}

// Close shuts both workers down and waits for them. The drain worker is
// stopped first and signals the writer on its way out; the writer must
// outlive the drain so records in flight are not orphaned, and it runs a
// final drain-and-flush before exiting.
func (d *DualThread[E]) Close() error {
	d.drainStop.Store(true)
	<-d.drainDone
	<-d.writerDone
	return nil
}

func (d *DualThread[E]) drainLoop(rx *xipc.SpScReceiver[Timestamped[E]]) {
	defer close(d.drainDone)
	defer d.writerStop.Store(true)
	for !d.drainStop.Load() {
		n := 0
		for {
			rec, err := rx.TryRecv()
			if err != nil {
				break
			}
			d.queue.push(*rec)
			n++
		}
		d.metrics.addDrained(n)
		time.Sleep(d.drainInterval)
	}
	// Final sweep so records published before the stop flag flipped
	// reach the queue ahead of the writer's last pass.
	for {
		rec, err := rx.TryRecv()
		if err != nil {
			break
		}
		d.queue.push(*rec)
		d.metrics.addDrained(1)
	}
	d.log.Debug("log drain worker stopped")
}

func (d *DualThread[E]) writeLoop() {
	defer close(d.writerDone)
	lastFlush := time.Now()
	batch := make([]Timestamped[E], 0, writerBufCap)

	for !d.writerStop.Load() {
		batch = d.queue.drainInto(batch)
		if len(batch) > 0 && (len(batch) >= d.flushCount || time.Since(lastFlush) >= d.flushAge) {
			d.flush(batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}
		time.Sleep(d.writeInterval)
	}
	// The queue may hold records the age/size thresholds never released;
	// losing them on shutdown helps no one.
	batch = d.queue.drainInto(batch)
	if len(batch) > 0 {
		d.flush(batch)
	}
	d.log.Debug("log write worker stopped")
}

func (d *DualThread[E]) flush(batch []Timestamped[E]) {
	for i := range batch {
		b, err := d.serializer.Marshal(batch[i])
		if err != nil {
			d.metrics.incWriteError()
			d.log.Warn("serialize log record", zap.Error(err))
			continue
		}
		if _, err := d.sink.Write(b); err != nil {
			d.metrics.incWriteError()
			d.log.Warn("write log record", zap.Error(err))
			continue
		}
		d.metrics.incFlushed()
	}
}

// recordQueue is the unbounded stage between the drain and write workers.
// The drain worker must never stall on a slow sink, so it parks records
// here; the writer swaps the whole backlog out under one lock hold.
type recordQueue[E any] struct {
	mu   sync.Mutex
	recs []Timestamped[E]
}

func (q *recordQueue[E]) push(rec Timestamped[E]) {
	q.mu.Lock()
	q.recs = append(q.recs, rec)
	q.mu.Unlock()
}

func (q *recordQueue[E]) drainInto(dst []Timestamped[E]) []Timestamped[E] {
	q.mu.Lock()
	dst = append(dst, q.recs...)
	q.recs = q.recs[:0]
	q.mu.Unlock()
	return dst
}
