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

package ipcshm

import (
	"strings"
	"testing"
)

func withScratchDir(t *testing.T) {
	t.Helper()
	old := BaseDir
	BaseDir = t.TempDir()
	t.Cleanup(func() { BaseDir = old })
}

func TestOpenOrCreateCreatesThenAttaches(t *testing.T) {
	withScratchDir(t)

	seg1, created, err := OpenOrCreate("tbl", 64)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created {
		t.Fatal("expected created=true on first open")
	}
	defer seg1.Close()

	seg1.Bytes()[0] = 0x42

	seg2, created, err := OpenOrCreate("tbl", 64)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if created {
		t.Fatal("expected created=false on second open")
	}
	defer seg2.Close()

	if seg2.Bytes()[0] != 0x42 {
		t.Fatalf("second mapping did not see first mapping's write: got %x", seg2.Bytes()[0])
	}
}

func TestOpenOrCreateSizeMismatch(t *testing.T) {
	withScratchDir(t)

	seg, _, err := OpenOrCreate("tbl", 64)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	seg.Close()

	if _, _, err := OpenOrCreate("tbl", 128); err == nil {
		t.Fatal("expected size-mismatch error")
	}
}

func TestOpenOrCreateNameTooLong(t *testing.T) {
	withScratchDir(t)

	long := strings.Repeat("x", nameLimit+1)
	if _, _, err := OpenOrCreate(long, 8); err == nil {
		t.Fatal("expected ErrNameTooLong")
	}
}

func TestSegmentZeroInitialized(t *testing.T) {
	withScratchDir(t)

	seg, _, err := OpenOrCreate("zeroed", 32)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer seg.Close()

	for i, b := range seg.Bytes() {
		if b != 0 {
			t.Fatalf("byte %d not zero: %x", i, b)
		}
	}
}

func TestCloseThenReopen(t *testing.T) {
	withScratchDir(t)

	seg, _, err := OpenOrCreate("reopen", 16)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	seg.Bytes()[0] = 7
	if err := seg.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	seg2, created, err := OpenOrCreate("reopen", 16)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer seg2.Close()
	if created {
		t.Fatal("expected the named object to survive Close")
	}
	if seg2.Bytes()[0] != 7 {
		t.Fatal("data did not survive Close/reopen")
	}
}
