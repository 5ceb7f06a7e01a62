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
	"fmt"
	"sync"

	"github.com/dc0d/onexit"

	"github.com/launix-de/ipckv/ipclock"
	"github.com/launix-de/ipckv/ipcshm"
)

// SettingsT holds the package's process-wide, user-adjustable knobs.
type SettingsT struct {
	Trace   bool
	BaseDir string
}

var Settings SettingsT = SettingsT{false, "/dev/shm"}

var openTables sync.Map // name string -> *Table, for the exit hook

var settingsOnce sync.Once

// InitSettings applies Settings to the ipcshm/ipclock packages and registers
// a best-effort exit hook that closes (unmaps) every still-open table's
// segments; locks are not touched by the hook. Call it once, after filling
// in Settings.
func InitSettings() {
	ipcshm.BaseDir = Settings.BaseDir
	ipclock.BaseDir = Settings.BaseDir
	settingsOnce.Do(func() {
		onexit.Register(func() {
			openTables.Range(func(_, v any) bool {
				v.(*Table).Close()
				return true
			})
		})
	})
}

func trace(format string, args ...any) {
	if Settings.Trace {
		fmt.Printf(format+"\n", args...)
	}
}
