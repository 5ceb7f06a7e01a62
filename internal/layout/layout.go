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

// Package layout defines the binary record layout shared by every process
// mapping an ipckv table: the Info record (one per table, in its own
// segment) and the Bucket record (one per slot, flat array in the data
// segment). Both carry an A/B selector and two copies of every mutable
// field, per the double-buffered transaction discipline.
package layout

import "unsafe"

const (
	// KeySize is the fixed size of a bucket's key field, including its
	// NUL terminator.
	KeySize = 260
	// DataSize is the fixed size of a bucket's value field.
	DataSize = 2048
	// MaxLoadFactor triggers a resize when size/capacity reaches it.
	MaxLoadFactor = 0.6
	// InitialCapacitySeed is the capacity requested at table creation
	// before rounding. 10 is not prime; callers round up to the next
	// prime (11) — see DESIGN.md's record of this open question.
	InitialCapacitySeed = 10
	// C1 and C2 are the quadratic probe constants.
	C1 = 3
	C2 = 5
)

// BucketState is the lifecycle state of one bucket slot.
type BucketState uint32

const (
	Empty    BucketState = 0
	Deleted  BucketState = 1
	Occupied BucketState = 2
)

// InfoRecord is the fixed layout of the info segment. BufferState selects
// which half of Capacity/Size/ResizeCount is currently committed; readers
// always read BufferState first (with an acquire fence) and then the
// indexed half.
type InfoRecord struct {
	BufferState uint32
	_           uint32 // padding to keep the uint64 fields 8-byte aligned
	Capacity    [2]uint64
	Size        [2]uint64
	ResizeCount [2]uint64
}

// InfoRecordSize is the exact byte size of the info segment.
const InfoRecordSize = int(unsafe.Sizeof(InfoRecord{}))

// BucketRecord is the fixed layout of one slot in the data segment.
type BucketRecord struct {
	BufferState uint32
	State       [2]uint32
	Key         [2][KeySize]byte
	Value       [2][DataSize]byte
	Size        [2]uint64
}

// BucketRecordSize is the exact byte size of one bucket slot.
const BucketRecordSize = int(unsafe.Sizeof(BucketRecord{}))

// InfoAt interprets the start of an info segment as an *InfoRecord. seg
// must be at least InfoRecordSize bytes, as guaranteed by ipcshm.OpenOrCreate
// being called with that size.
func InfoAt(seg []byte) *InfoRecord {
	return (*InfoRecord)(unsafe.Pointer(&seg[0]))
}

// BucketAt returns the i-th bucket slot in a data segment. seg must be at
// least (i+1)*BucketRecordSize bytes.
func BucketAt(seg []byte, i uint64) *BucketRecord {
	base := unsafe.Pointer(&seg[0])
	return (*BucketRecord)(unsafe.Add(base, uintptr(i)*uintptr(BucketRecordSize)))
}

// DataSegmentSize returns the byte size of a data segment holding capacity
// buckets.
func DataSegmentSize(capacity uint64) int {
	return int(capacity) * BucketRecordSize
}
