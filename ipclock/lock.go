/*
Copyright (C) 2026  IPCKV Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package ipclock implements a named, cross-process read/write lock over a
// string name, using a counting semaphore (capacity MaxLocks) for readers
// and a named mutex for writers, without keeping per-lock heap state
// shared between processes.
//
// The counting semaphore itself is realised as a shared-memory permit
// counter guarded by a named advisory file lock, rather than an OS
// semaphore object — a design spec.md §4.2 explicitly sanctions as an
// alternative to a native counting semaphore, provided it preserves the
// readers/writer exclusion property and survives a holder crash at least
// as gracefully (an flock-backed guard is released by the kernel when its
// holder process dies, same as the semaphore/mutex it stands in for).
package ipclock

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
	"unsafe"

	"github.com/gofrs/flock"

	"github.com/launix-de/ipckv/ipcshm"
)

// MaxLocks is the capacity of the read/write lock's counting semaphore: up
// to MaxLocks concurrent readers, and a writer must drain all MaxLocks
// permits before proceeding.
const MaxLocks = 24

// BaseDir is the directory named mutex/guard files are created under.
// Defaults to the same tmpfs mount ipcshm uses for segments.
var BaseDir = "/dev/shm"

// pollInterval bounds how long a blocked reader waits between checks of
// the shared permit counter. Waits are otherwise indefinite, per spec.md §5.
const pollInterval = 200 * time.Microsecond

var (
	// ErrLockUnavailable is returned when the host cannot create or open
	// the objects backing a lock, or a wait on one fails.
	ErrLockUnavailable = errors.New("ipclock: lock unavailable")
)

// Mode selects which half of the read/write lock Lock acquires.
type Mode bool

const (
	ModeRead  Mode = false
	ModeWrite Mode = true
)

// Held is a lock acquired by Lock. Release must be called exactly once,
// on every exit path (including panics, via defer).
type Held struct {
	release func() error
}

// Release gives back the lock. Safe to call on a nil *Held or to call
// more than once; only the first call has effect.
func (h *Held) Release() error {
	if h == nil || h.release == nil {
		return nil
	}
	release := h.release
	h.release = nil
	return release()
}

// Lock acquires the named lock in the given mode, blocking until it is
// available. name is the spec-level lock name (e.g. "<generation>_<table>"
// for the table façade); the write mutex is derived as name+"_mutex".
func Lock(mode Mode, name string) (*Held, error) {
	switch mode {
	case ModeRead:
		return lockRead(name)
	case ModeWrite:
		return lockWrite(name)
	default:
		return nil, fmt.Errorf("%w: unknown lock mode", ErrLockUnavailable)
	}
}

func lockRead(name string) (*Held, error) {
	sem, err := openSemaphore(name, MaxLocks)
	if err != nil {
		return nil, err
	}
	if err := sem.wait(); err != nil {
		return nil, err
	}
	return &Held{release: func() error {
		return sem.signal(1)
	}}, nil
}

func lockWrite(name string) (*Held, error) {
	mutex := flock.New(filepath.Join(BaseDir, name+"_mutex"))
	if err := mutex.Lock(); err != nil {
		return nil, fmt.Errorf("%w: acquire mutex %s: %v", ErrLockUnavailable, name, err)
	}

	sem, err := openSemaphore(name, 0)
	if err != nil {
		mutex.Unlock()
		return nil, err
	}
	if !sem.created {
		// The semaphore already existed: readers have (or had) permits
		// outstanding against it. Drain all MaxLocks to exclude them.
		if err := sem.drain(MaxLocks); err != nil {
			mutex.Unlock()
			return nil, err
		}
	}

	return &Held{release: func() error {
		semErr := sem.signal(MaxLocks)
		mutexErr := mutex.Unlock()
		if semErr != nil {
			return semErr
		}
		return mutexErr
	}}, nil
}

// semState is the shared-memory layout of a named counting semaphore: a
// single permit counter, manipulated only while holding its guard flock.
type semState struct {
	permits int32
}

const semStateSize = int(unsafe.Sizeof(semState{}))

// namedSemaphore is the counting semaphore backing read acquisition and
// the drain step of write acquisition.
type namedSemaphore struct {
	seg     *ipcshm.Segment
	guard   *flock.Flock
	created bool
}

func openSemaphore(name string, initial int32) (*namedSemaphore, error) {
	seg, created, err := ipcshm.OpenOrCreate(name, semStateSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockUnavailable, err)
	}
	guard := flock.New(filepath.Join(BaseDir, name+".sem.guard"))
	s := &namedSemaphore{seg: seg, guard: guard, created: created}
	if created {
		s.state().permits = initial
	}
	return s, nil
}

func (s *namedSemaphore) state() *semState {
	return (*semState)(unsafe.Pointer(&s.seg.Bytes()[0]))
}

// wait decrements one permit, blocking until one is available.
func (s *namedSemaphore) wait() error {
	for {
		if err := s.guard.Lock(); err != nil {
			return fmt.Errorf("%w: %v", ErrLockUnavailable, err)
		}
		st := s.state()
		if st.permits > 0 {
			st.permits--
			s.guard.Unlock()
			return nil
		}
		s.guard.Unlock()
		time.Sleep(pollInterval)
	}
}

// signal returns n permits.
func (s *namedSemaphore) signal(n int32) error {
	if err := s.guard.Lock(); err != nil {
		return fmt.Errorf("%w: %v", ErrLockUnavailable, err)
	}
	defer s.guard.Unlock()
	s.state().permits += n
	return nil
}

// drain waits for n permits one at a time, used by a writer to exclude
// every reader that might already hold one.
func (s *namedSemaphore) drain(n int32) error {
	for i := int32(0); i < n; i++ {
		if err := s.wait(); err != nil {
			return err
		}
	}
	return nil
}
