// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package logger is a thin logging client over the xipc SPSC ring: the
// caller's goroutine timestamps events and pushes them into the ring, a
// backend drains the ring off the hot path and hands batches to a sink.
package logger

import (
	"encoding/json"
	"errors"
)

// ErrBackend wraps any transport error that reaches a Log call, most
// commonly xipc.ErrWouldBlock when the ring is full. Whether to retry,
// drop, or escalate is the embedder's policy; the backend itself never
// blocks the caller.
var ErrBackend = errors.New("logger: backend")

// Backend accepts timestamped records from a Client. Implementations are
// single-producer: one client (or one goroutine) per backend instance.
type Backend[E any] interface {
	Log(rec Timestamped[E]) error
}

// Serializer turns one record into the bytes written to a sink.
type Serializer[E any] interface {
	Marshal(rec Timestamped[E]) ([]byte, error)
}

// JSONSerializer renders one record per line as JSON. The zero value is
// ready to use and is the default serializer of the dual-thread backend.
type JSONSerializer[E any] struct{}

// Marshal implements Serializer.
func (JSONSerializer[E]) Marshal(rec Timestamped[E]) ([]byte, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
