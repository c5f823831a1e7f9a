// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Batching and pacing defaults of the dual-thread backend. They are
// policy, not protocol: tests and embedders tune them through options.
const (
	defaultFlushCount    = 5000
	defaultFlushAge      = 5 * time.Second
	defaultDrainInterval = 10 * time.Millisecond
	defaultWriteInterval = 500 * time.Millisecond

	// writerBufCap seeds the writer's batch buffer; it grows past this
	// when the intermediate queue runs hot.
	writerBufCap = 3000
)

type options struct {
	clock         Clock
	log           *zap.Logger
	metrics       *Metrics
	serializer    any
	flushCount    int
	flushAge      time.Duration
	drainInterval time.Duration
	writeInterval time.Duration
}

// Option configures clients and backends.
type Option func(*options)

// WithClock sets the timestamp source of a Client. Defaults to WallClock.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the zap logger the backend workers report through.
// Hot paths never log; this covers worker lifecycle and write failures.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics attaches backend counters. Defaults to none.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithSerializer replaces the JSON serializer of the dual-thread backend.
// The type parameter must match the backend's event type.
func WithSerializer[E any](s Serializer[E]) Option {
	return func(o *options) { o.serializer = s }
}

// WithFlushPolicy overrides the batch thresholds of the writer: flush when
// the batch holds count records or age has passed since the last flush.
func WithFlushPolicy(count int, age time.Duration) Option {
	return func(o *options) {
		o.flushCount = count
		o.flushAge = age
	}
}

// WithIntervals overrides the sleep intervals of the drain and writer
// workers. Shutdown latency is bounded by one full cycle of each.
func WithIntervals(drain, write time.Duration) Option {
	return func(o *options) {
		o.drainInterval = drain
		o.writeInterval = write
	}
}

func applyOptions(opts []Option) options {
	o := options{
		clock:         WallClock(),
		log:           zap.NewNop(),
		flushCount:    defaultFlushCount,
		flushAge:      defaultFlushAge,
		drainInterval: defaultDrainInterval,
		writeInterval: defaultWriteInterval,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func serializerFor[E any](o options) (Serializer[E], error) {
	if o.serializer == nil {
		return JSONSerializer[E]{}, nil
	}
	s, ok := o.serializer.(Serializer[E])
	if !ok {
		return nil, fmt.Errorf("logger: serializer %T does not match event type", o.serializer)
	}
	return s, nil
}
