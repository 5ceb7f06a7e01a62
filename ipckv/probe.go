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

import "github.com/launix-de/ipckv/internal/layout"

// probeStart is the first bucket a key's search visits.
func probeStart(h uint32, capacity uint64) uint64 {
	return uint64(h) % capacity
}

// probeNext returns the i-th (i >= 1) quadratic-probe bucket after h, per
// bucket(i) = (h + C1*i + C2*i^2) mod capacity.
func probeNext(h uint32, capacity, i uint64) uint64 {
	return (uint64(h) + layout.C1*i + layout.C2*i*i) % capacity
}
