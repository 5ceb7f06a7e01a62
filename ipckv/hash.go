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

import "encoding/binary"

// hashKey is the original IPC_KV::hash, rewritten to read fixed-size
// little-endian integers out of the byte slice instead of casting a raw
// char* to uint32_t*/uint16_t*, so the result does not depend on the host's
// pointer alignment or native endianness — required since the hash is
// stored nowhere, only recomputed per lookup, but must agree across every
// process and architecture sharing a table.
func hashKey(key []byte) uint32 {
	h := uint32(0x811c9dc5)
	for len(key) >= 8 {
		a := binary.LittleEndian.Uint32(key)
		b := binary.LittleEndian.Uint32(key[4:])
		h = (h ^ (((a << 5) | (a >> 27)) ^ b)) * 0xad3e7
		key = key[8:]
	}
	if len(key)&4 != 0 {
		h = (h ^ uint32(binary.LittleEndian.Uint16(key))) * 0xad3e7
		key = key[2:]
		h = (h ^ uint32(binary.LittleEndian.Uint16(key))) * 0xad3e7
		key = key[2:]
	}
	if len(key)&2 != 0 {
		h = (h ^ uint32(binary.LittleEndian.Uint16(key))) * 0xad3e7
		key = key[2:]
	}
	if len(key)&1 != 0 {
		h = (h ^ uint32(key[0])) * 0xad3e7
	}
	return h ^ (h >> 16)
}
