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

import "math"

// isPrime mirrors IPC_KV::is_prime exactly: trial division by every integer
// from 2 up to (and including) the truncated square root.
func isPrime(input uint64) bool {
	limit := uint64(math.Sqrt(float64(input)))
	for i := uint64(2); i <= limit; i++ {
		if input%i == 0 {
			return false
		}
	}
	return true
}

// nextPrime mirrors IPC_KV::find_nearest_prime: the smallest prime >= input.
func nextPrime(input uint64) uint64 {
	for !isPrime(input) {
		input++
	}
	return input
}
