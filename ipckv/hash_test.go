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

func TestHashKeyIsDeterministic(t *testing.T) {
	keys := []string{"", "a", "ab", "hello", "hello world", "a-much-longer-key-than-eight-bytes"}
	for _, k := range keys {
		a := hashKey([]byte(k))
		b := hashKey([]byte(k))
		if a != b {
			t.Errorf("hashKey(%q) not deterministic: %d != %d", k, a, b)
		}
	}
}

func TestHashKeyDistinguishesKeys(t *testing.T) {
	if hashKey([]byte("foo")) == hashKey([]byte("bar")) {
		t.Fatal("distinct short keys hashed identically")
	}
	if hashKey([]byte("foo")) == hashKey([]byte("foo2")) {
		t.Fatal("distinct keys of different length hashed identically")
	}
}

func TestHashKeyAllLengthTailPaths(t *testing.T) {
	// Exercise every combination of the 4/2/1 remainder-length branches
	// after the 8-byte loop, and the empty-key edge case.
	for n := 0; n < 16; n++ {
		key := make([]byte, n)
		for i := range key {
			key[i] = byte(i + 1)
		}
		_ = hashKey(key) // must not panic for any length
	}
}
