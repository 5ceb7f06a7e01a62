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

package ipclock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/launix-de/ipckv/ipcshm"
)

func withScratchDir(t *testing.T) {
	t.Helper()
	oldLock, oldShm := BaseDir, ipcshm.BaseDir
	dir := t.TempDir()
	BaseDir = dir
	ipcshm.BaseDir = dir
	t.Cleanup(func() { BaseDir = oldLock; ipcshm.BaseDir = oldShm })
}

func TestReadersDoNotExcludeEachOther(t *testing.T) {
	withScratchDir(t)

	var held int32
	var wg sync.WaitGroup
	for i := 0; i < MaxLocks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := Lock(ModeRead, "concurrent-readers")
			if err != nil {
				t.Error(err)
				return
			}
			atomic.AddInt32(&held, 1)
			time.Sleep(20 * time.Millisecond)
			h.Release()
		}()
	}
	wg.Wait()
}

func TestWriterExcludesReaders(t *testing.T) {
	withScratchDir(t)

	writer, err := Lock(ModeWrite, "excl")
	if err != nil {
		t.Fatalf("acquire writer: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		h, err := Lock(ModeRead, "excl")
		if err != nil {
			t.Error(err)
			return
		}
		close(acquired)
		h.Release()
	}()

	select {
	case <-acquired:
		t.Fatal("reader acquired lock while writer held it")
	case <-time.After(50 * time.Millisecond):
	}

	writer.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("reader never acquired lock after writer released")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	withScratchDir(t)

	h, err := Lock(ModeWrite, "idempotent")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := h.Release(); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := h.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
}

func TestNilHeldReleaseIsSafe(t *testing.T) {
	var h *Held
	if err := h.Release(); err != nil {
		t.Fatalf("nil release: %v", err)
	}
}
