// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what the dual-thread backend does with records. All
// counters use bounded cardinality; a nil *Metrics disables counting.
type Metrics struct {
	// Enqueued counts records accepted into the ring by Log.
	Enqueued prometheus.Counter
	// Dropped counts records rejected by Log because the ring was full.
	Dropped prometheus.Counter
	// Drained counts records moved from the ring to the intermediate
	// queue by the drain worker.
	Drained prometheus.Counter
	// Flushed counts records serialized and written to the sink.
	Flushed prometheus.Counter
	// WriteErrors counts records lost to serializer or sink failures.
	WriteErrors prometheus.Counter
}

// NewMetrics registers the backend counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Enqueued: f.NewCounter(prometheus.CounterOpts{
			Name: "logger_records_enqueued_total",
			Help: "Records accepted into the transport ring",
		}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "logger_records_dropped_total",
			Help: "Records rejected because the transport ring was full",
		}),
		Drained: f.NewCounter(prometheus.CounterOpts{
			Name: "logger_records_drained_total",
			Help: "Records moved from the ring to the intermediate queue",
		}),
		Flushed: f.NewCounter(prometheus.CounterOpts{
			Name: "logger_records_flushed_total",
			Help: "Records serialized and written to the sink",
		}),
		WriteErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "logger_write_errors_total",
			Help: "Records lost to serializer or sink failures",
		}),
	}
}

func (m *Metrics) incEnqueued() {
	if m != nil {
		m.Enqueued.Inc()
	}
}

func (m *Metrics) incDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) addDrained(n int) {
	if m != nil {
		m.Drained.Add(float64(n))
	}
}

func (m *Metrics) incFlushed() {
	if m != nil {
		m.Flushed.Inc()
	}
}

func (m *Metrics) incWriteError() {
	if m != nil {
		m.WriteErrors.Inc()
	}
}
