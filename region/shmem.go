// ©Hotpath Labs 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build unix

package region

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// shmDir is where POSIX shared-memory objects live on Linux; opening a
// file there is equivalent to shm_open on the bare name.
const shmDir = "/dev/shm"

// Shmem is a named shared-memory region. The owner creates, truncates,
// and unlinks the name; clients attach to an existing segment and leave
// the name alone. Both roles hold the same mapping and exchange data
// purely through it.
type Shmem struct {
	name  string
	f     *os.File
	data  []byte
	owner bool
	log   *zap.Logger
}

// Create opens-or-replaces the named segment as its owner: any stale
// segment with the same name is unlinked first, then the name is created,
// truncated to size, mapped read-write, and zeroed.
func Create(name string, size int, opts ...Option) (*Shmem, error) {
	if size <= 0 {
		panic("region: segment size must be positive")
	}
	o := applyOptions(opts)
	path := filepath.Join(shmDir, name)

	if err := os.Remove(path); err == nil {
		// A previous owner crashed without unlinking, or two owners
		// share a name.
		o.log.Warn("unlinked stale shared memory segment", zap.String("name", name))
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("region: create %q: %w", name, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("region: truncate %q to %d: %w", name, size, err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("region: mmap %q: %w", name, err)
	}
	clear(data)

	return &Shmem{name: name, f: f, data: data, owner: true, log: o.log}, nil
}

// Attach maps an existing named segment as a client. With writable false
// the mapping is read-only, which suits SPMC consumers; an SPSC consumer
// advances the read_done counter and needs a writable mapping.
// Fails if the name does not exist.
func Attach(name string, size int, writable bool, opts ...Option) (*Shmem, error) {
	if size <= 0 {
		panic("region: segment size must be positive")
	}
	o := applyOptions(opts)
	path := filepath.Join(shmDir, name)

	flags, prot := os.O_RDONLY, unix.PROT_READ
	if writable {
		flags, prot = os.O_RDWR, unix.PROT_READ|unix.PROT_WRITE
	}
	f, err := os.OpenFile(path, flags, 0)
	if err != nil {
		return nil, fmt.Errorf("region: attach %q: %w", name, err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, prot, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("region: mmap %q: %w", name, err)
	}

	return &Shmem{name: name, f: f, data: data, log: o.log}, nil
}

// Name returns the segment name.
func (s *Shmem) Name() string { return s.name }

// Owner reports whether this handle unlinks the name on Close.
func (s *Shmem) Owner() bool { return s.owner }

// Ptr returns the base address of the mapping.
func (s *Shmem) Ptr() unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(s.data))
}

// Len returns the mapped size in bytes.
func (s *Shmem) Len() int { return len(s.data) }

// Close unmaps the segment, closes the descriptor, and - for the owner -
// unlinks the name so late attaches fail instead of reading a dead
// segment.
func (s *Shmem) Close() error {
	var errs []error
	if s.data != nil {
		if err := unix.Munmap(s.data); err != nil {
			s.log.Error("munmap shared memory segment", zap.String("name", s.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("region: munmap %q: %w", s.name, err))
		}
		s.data = nil
	}
	if s.f != nil {
		if err := s.f.Close(); err != nil {
			s.log.Error("close shared memory descriptor", zap.String("name", s.name), zap.Error(err))
			errs = append(errs, err)
		}
		s.f = nil
	}
	if s.owner {
		if err := os.Remove(filepath.Join(shmDir, s.name)); err != nil && !os.IsNotExist(err) {
			s.log.Error("unlink shared memory segment", zap.String("name", s.name), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
