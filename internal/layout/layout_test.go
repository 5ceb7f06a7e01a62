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

package layout

import "testing"

func TestInfoAtWritesThroughToBackingSlice(t *testing.T) {
	seg := make([]byte, InfoRecordSize)
	info := InfoAt(seg)
	info.Capacity[0] = 42

	info2 := InfoAt(seg)
	if info2.Capacity[0] != 42 {
		t.Fatalf("InfoAt did not alias the backing slice: got %d", info2.Capacity[0])
	}
}

func TestBucketAtAddressesDistinctSlots(t *testing.T) {
	const capacity = 5
	seg := make([]byte, DataSegmentSize(capacity))

	layout0 := BucketAt(seg, 0)
	layout0.State[0] = uint32(Occupied)

	for i := uint64(1); i < capacity; i++ {
		b := BucketAt(seg, i)
		if b.State[0] != uint32(Empty) {
			t.Fatalf("bucket %d not zero-initialized: %d", i, b.State[0])
		}
	}

	if BucketAt(seg, 0).State[0] != uint32(Occupied) {
		t.Fatal("bucket 0 write did not persist")
	}
}

func TestDataSegmentSizeMatchesBucketCount(t *testing.T) {
	const capacity = 17
	got := DataSegmentSize(capacity)
	want := capacity * BucketRecordSize
	if got != want {
		t.Fatalf("DataSegmentSize(%d) = %d, want %d", capacity, got, want)
	}
}
