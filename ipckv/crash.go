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
	"os"
	"sync/atomic"
)

// crashOnNextInsert mirrors the original's should_crash global: when set, an
// insert that has just staged its key, value and state into the bucket's
// pending half (but not yet committed it) exits the process immediately, for
// exercising crash-mid-transaction recovery on the next Open.
var crashOnNextInsert atomic.Bool

// SetCrashOnNextInsert toggles the crash hook. Exposed for the CLI's :crash
// command and for crash-recovery tests; has no effect on correctness when
// left false.
func SetCrashOnNextInsert(v bool) {
	crashOnNextInsert.Store(v)
}

func maybeCrash() {
	if crashOnNextInsert.Load() {
		os.Exit(0)
	}
}
