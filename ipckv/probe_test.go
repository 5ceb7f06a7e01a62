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

import "testing"

func TestProbeSequenceIsDeterministic(t *testing.T) {
	const capacity = 11
	h := uint32(5)

	var first, second []uint64
	for i := uint64(1); i < capacity; i++ {
		first = append(first, probeNext(h, capacity, i))
	}
	for i := uint64(1); i < capacity; i++ {
		second = append(second, probeNext(h, capacity, i))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("probe sequence not deterministic at step %d: %d != %d", i, first[i], second[i])
		}
	}
}

func TestProbeNextAlwaysInRange(t *testing.T) {
	const capacity = 11
	for h := uint32(0); h < 50; h++ {
		for i := uint64(0); i < capacity; i++ {
			if b := probeNext(h, capacity, i); b >= capacity {
				t.Fatalf("probeNext(%d, %d, %d) = %d, out of range", h, capacity, i, b)
			}
		}
	}
}

func TestProbeStartMatchesHashModCapacity(t *testing.T) {
	const capacity = 23
	h := uint32(123456)
	want := uint64(h) % capacity
	if got := probeStart(h, capacity); got != want {
		t.Fatalf("probeStart = %d, want %d", got, want)
	}
}
