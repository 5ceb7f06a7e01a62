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

package ipckv

import (
	"errors"

	"github.com/launix-de/ipckv/internal/controller"
	"github.com/launix-de/ipckv/internal/layout"
	"github.com/launix-de/ipckv/ipclock"
	"github.com/launix-de/ipckv/ipcshm"
)

// Re-exported so callers can errors.Is against a single package for every
// failure mode, regardless of which layer detected it.
var (
	ErrNameTooLong        = ipcshm.ErrNameTooLong
	ErrSegmentUnavailable = ipcshm.ErrSegmentUnavailable
	ErrLockUnavailable    = ipclock.ErrLockUnavailable
	ErrInvalidState       = controller.ErrInvalidState
)

var (
	// ErrKeyTooLong is returned when a key is layout.KeySize-1 bytes or
	// longer (see maxKeyLen).
	ErrKeyTooLong = errors.New("ipckv: key too long")
	// ErrValueTooLong is returned when a value is layout.DataSize bytes or
	// longer (see maxValueLen).
	ErrValueTooLong = errors.New("ipckv: value too long")
	// ErrInsertFailed is returned when every bucket was probed without
	// finding a free or matching slot — should be unreachable given the
	// resize discipline, but guards against it the way the original's
	// runtime_error on the same path does.
	ErrInsertFailed = errors.New("ipckv: unable to insert, table full")
	// ErrNotFound is returned by Remove for a key that is not present.
	ErrNotFound = errors.New("ipckv: key not found")
)

// maxKeyLen and maxValueLen are the largest key/value lengths Set accepts.
// Per spec, |key| >= KeySize-1 and |value| >= DataSize are rejected (the
// key needs one byte of room for its NUL terminator; the original rejects
// a value that would exactly fill DATA_SIZE, not just overflow it), so the
// accepted maxima sit one byte below those thresholds.
const (
	maxKeyLen   = layout.KeySize - 2
	maxValueLen = layout.DataSize - 1
)
