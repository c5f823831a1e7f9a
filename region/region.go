// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package region provides the memory backends the transport primitives
// run over: a process-private chunk for cross-goroutine use and a POSIX
// named shared-memory segment for cross-process use.
//
// A region is raw bytes. Nothing typed is ever constructed or destroyed
// inside one; endpoints copy payload bytes in and out and run atomic
// loads/stores on counter words at computed offsets. Closing a region
// only releases the mapping.
package region

import "go.uber.org/zap"

type options struct {
	log *zap.Logger
}

// Option configures region construction.
type Option func(*options)

// WithLogger sets the logger used for lifecycle warnings (stale segment
// unlinked, unmap failure). Defaults to a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

func applyOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
