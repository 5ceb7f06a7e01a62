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

// Package ipcshm provides named, process-shared, fixed-size byte regions:
// create-or-open a region identified by a string name so unrelated
// processes on the same host can map the same bytes.
package ipcshm

import (
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// BaseDir is the directory shared-memory objects are created under. On
// Linux this is a tmpfs mount, so regions never touch a disk. Tests may
// point this at a scratch directory; mirrors storage.Basepath's role as
// an overridable package-level root.
var BaseDir = "/dev/shm"

// nameLimit is a conservative bound on a single path component, well under
// Linux's NAME_MAX (255); it leaves room for the "ipckv_i_"/"ipckv_<g>_"
// prefixes the table façade adds on top of the caller-supplied table name.
const nameLimit = 200

var (
	// ErrNameTooLong is returned when a derived object name would exceed
	// the host's path/name-component limit.
	ErrNameTooLong = errors.New("ipcshm: name exceeds host namespace limit")
	// ErrSegmentUnavailable is returned when the host cannot create, open
	// or map the requested region.
	ErrSegmentUnavailable = errors.New("ipcshm: shared segment unavailable")
)

// Segment is a mapped view of a named shared region in this process.
type Segment struct {
	name    string
	path    string
	fd      int
	data    []byte
	created bool
}

// OpenOrCreate creates a process-shared, zero-initialised region of exactly
// size bytes identified by name, or attaches to it if another process
// already created it. created is true only when this call caused creation.
func OpenOrCreate(name string, size int) (*Segment, bool, error) {
	if len(name) > nameLimit {
		return nil, false, fmt.Errorf("%w: %q", ErrNameTooLong, name)
	}
	path := filepath.Join(BaseDir, name)

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL, 0o600)
	created := err == nil
	if errors.Is(err, unix.EEXIST) {
		fd, err = unix.Open(path, unix.O_RDWR, 0o600)
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: open %s: %v", ErrSegmentUnavailable, path, err)
	}

	if created {
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			unix.Close(fd)
			unix.Unlink(path)
			return nil, false, fmt.Errorf("%w: truncate %s: %v", ErrSegmentUnavailable, path, err)
		}
	} else if err := verifySize(fd, path, size); err != nil {
		unix.Close(fd)
		return nil, false, err
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		if created {
			unix.Unlink(path)
		}
		return nil, false, fmt.Errorf("%w: mmap %s: %v", ErrSegmentUnavailable, path, err)
	}

	return &Segment{name: name, path: path, fd: fd, data: data, created: created}, created, nil
}

func verifySize(fd int, path string, want int) error {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return fmt.Errorf("%w: stat %s: %v", ErrSegmentUnavailable, path, err)
	}
	if int(st.Size) != want {
		return fmt.Errorf("%w: %s has size %d, expected %d", ErrSegmentUnavailable, path, st.Size, want)
	}
	return nil
}

// Name returns the name this segment was opened under.
func (s *Segment) Name() string { return s.name }

// Created reports whether this call caused the region to be created.
func (s *Segment) Created() bool { return s.created }

// Bytes returns the mapped region. The slice is valid only until Unmap or
// Close is called on this Segment.
func (s *Segment) Bytes() []byte { return s.data }

// Unmap releases this process's mapping of the region. It does not remove
// the named object; other mappers, or a future re-open of the same name,
// are unaffected.
func (s *Segment) Unmap() error {
	if s.data == nil {
		return nil
	}
	err := unix.Munmap(s.data)
	s.data = nil
	return err
}

// Close unmaps (if not already unmapped) and closes the file descriptor.
// Per the data-segment lifecycle, Close never unlinks the named object —
// an abandoned generation's backing file is left for the OS to reap once
// its last mapper exits.
func (s *Segment) Close() error {
	err := s.Unmap()
	if s.fd >= 0 {
		if cerr := unix.Close(s.fd); cerr != nil && err == nil {
			err = cerr
		}
		s.fd = -1
	}
	return err
}
