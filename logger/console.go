// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logger

import (
	"fmt"
	"time"

	"code.hybscloud.com/atomix"
	"go.uber.org/zap"

	"code.hotpath.dev/xipc"
	"code.hotpath.dev/xipc/region"
)

// Console drains the ring on a single worker and prints each record with
// the nanosecond delta to the record before it. Useful for examples and
// eyeballing latency; production paths want DualThread.
type Console[E any] struct {
	tx   *xipc.SpScSender[Timestamped[E]]
	stop atomix.Bool
	done chan struct{}
	log  *zap.Logger

	metrics *Metrics
}

// NewConsole builds the backend over a private ring of ringSize slots and
// starts the drain worker. Records go to the logger set with WithLogger;
// the default nop logger discards them.
func NewConsole[E any](ringSize int, opts ...Option) (*Console[E], error) {
	o := applyOptions(opts)
	reg := region.NewChunk(xipc.SpScSize[Timestamped[E]](ringSize))
	tx, rx, err := xipc.SpScPair[Timestamped[E]](reg, ringSize)
	if err != nil {
		return nil, err
	}

	c := &Console[E]{
		tx:      tx,
		done:    make(chan struct{}),
		log:     o.log,
		metrics: o.metrics,
	}
	go c.drainLoop(rx, o.drainInterval)
	return c, nil
}

// Log pushes one record into the ring. A full ring surfaces as ErrBackend
// wrapping xipc.ErrWouldBlock.
func (c *Console[E]) Log(rec Timestamped[E]) error {
	if err := c.tx.Send(&rec); err != nil {
		c.metrics.incDropped()
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}
	c.metrics.incEnqueued()
	return nil
}

// Close stops the worker after a final drain of the ring.
func (c *Console[E]) Close() error {
	c.stop.Store(true)
	<-c.done
	return nil
}

func (c *Console[E]) drainLoop(rx *xipc.SpScReceiver[Timestamped[E]], interval time.Duration) {
	defer close(c.done)
	var lastTs uint64
	haveLast := false
	print := func(rec *Timestamped[E]) {
		if haveLast {
			c.log.Info("log record",
				zap.Uint64("timestamp", rec.Timestamp),
				zap.Uint64("delta_ns", rec.Timestamp-lastTs),
				zap.Uint32("seqid", rec.Seqid),
				zap.Any("data", rec.Data),
			)
		} else {
			c.log.Info("log record",
				zap.Uint64("timestamp", rec.Timestamp),
				zap.Uint32("seqid", rec.Seqid),
				zap.Any("data", rec.Data),
			)
		}
		lastTs = rec.Timestamp
		haveLast = true
	}

	for !c.stop.Load() {
		for {
			rec, err := rx.TryRecv()
			if err != nil {
				break
			}
			print(rec)
		}
		time.Sleep(interval)
	}
	for {
		rec, err := rx.TryRecv()
		if err != nil {
			break
		}
		print(rec)
	}
}
