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

// Package ipckv is a cross-process, named, in-memory key/value map: the
// table façade over ipcshm segments, an ipclock read/write lock, and the
// internal/controller A/B transaction discipline.
package ipckv

import (
	"fmt"
	"sync"

	"github.com/launix-de/ipckv/internal/controller"
	"github.com/launix-de/ipckv/internal/layout"
	"github.com/launix-de/ipckv/ipclock"
	"github.com/launix-de/ipckv/ipcshm"
)

// Table is one named, cross-process key/value map. A Table value is only
// valid within the process that created it via New or Open; other
// processes reach the same data through their own Table, built from the
// same name.
type Table struct {
	name string

	infoSeg *ipcshm.Segment
	dataSeg *ipcshm.Segment

	ctrl *controller.Controller

	// cachedGen is the resize generation this Table last mapped its data
	// segment and lock under. It is compared against the committed
	// ResizeCount on every lock acquisition to detect staleness.
	cachedGen uint64

	mu sync.Mutex
}

// infoSegmentName is stable for the life of a table: the info record's
// capacity/size/resize_count fields are themselves the source of truth for
// which generation is current, so the segment holding them never moves.
func infoSegmentName(table string) string {
	return "ipckv_i_" + table
}

func dataSegmentName(table string, gen uint64) string {
	return fmt.Sprintf("ipckv_%d_%s", gen, table)
}

func lockName(table string, gen uint64) string {
	return fmt.Sprintf("%d_%s", gen, table)
}

// Open attaches to an existing table, or creates it (at the rounded-up
// InitialCapacitySeed) if no process has yet.
func Open(name string) (*Table, error) {
	t := &Table{name: name}

	infoSeg, infoCreated, err := ipcshm.OpenOrCreate(infoSegmentName(name), layout.InfoRecordSize)
	if err != nil {
		return nil, err
	}

	initialCapacity := nextPrime(layout.InitialCapacitySeed)

	if infoCreated {
		// Seed both A/B halves identically: there is no "committed" data
		// yet to diverge from, and a reader racing the very first writer
		// must see a consistent capacity no matter which half it lands on.
		info := layout.InfoAt(infoSeg.Bytes())
		info.Capacity[0], info.Capacity[1] = initialCapacity, initialCapacity
		info.Size[0], info.Size[1] = 0, 0
		info.ResizeCount[0], info.ResizeCount[1] = 0, 0
	}

	ctrl, err := controller.New(infoSeg.Bytes(), nil, 0)
	if err != nil {
		infoSeg.Close()
		return nil, err
	}
	t.infoSeg = infoSeg
	t.ctrl = ctrl

	gen := ctrl.ResizeCount()
	capacity := ctrl.Capacity()
	if err := t.mapDataGeneration(gen, capacity); err != nil {
		infoSeg.Close()
		return nil, err
	}

	openTables.Store(name, t)
	return t, nil
}

// New is an alias for Open: table creation and attachment are the same
// operation, distinguished only by which process happens to arrive first.
func New(name string) (*Table, error) { return Open(name) }

// mapDataGeneration (re)maps the data segment for generation gen at the
// given capacity and repoints the controller and cachedGen at it. Callers
// must hold t.mu.
func (t *Table) mapDataGeneration(gen, capacity uint64) error {
	dataSeg, created, err := ipcshm.OpenOrCreate(dataSegmentName(t.name, gen), layout.DataSegmentSize(capacity))
	if err != nil {
		return err
	}
	if created {
		data := dataSeg.Bytes()
		for i := uint64(0); i < capacity; i++ {
			b := layout.BucketAt(data, i)
			b.State[0], b.State[1] = uint32(layout.Empty), uint32(layout.Empty)
		}
	}
	return t.adoptDataGeneration(dataSeg, gen, capacity)
}

// adoptDataGeneration repoints the controller and cachedGen at an
// already-opened, already-initialised data segment, closing whichever
// segment the table previously held. Callers that create their own
// segment (resizeLocked, building the new generation before publishing
// it) must route through this instead of mapDataGeneration, which would
// otherwise open a second, independent mapping of the same name and leak
// the caller's.
func (t *Table) adoptDataGeneration(dataSeg *ipcshm.Segment, gen, capacity uint64) error {
	if err := t.ctrl.SwapData(dataSeg.Bytes(), capacity); err != nil {
		dataSeg.Close()
		return err
	}
	if t.dataSeg != nil {
		t.dataSeg.Close()
	}
	t.dataSeg = dataSeg
	t.cachedGen = gen
	return nil
}

// withLock acquires the table's current-generation lock in mode, detects
// and follows a resize that published a new generation while waiting, and
// then runs fn holding the lock at the (possibly now current) generation.
// On return, the lock is always released.
func (t *Table) withLock(mode ipclock.Mode, fn func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		gen := t.cachedGen
		held, err := ipclock.Lock(mode, lockName(t.name, gen))
		if err != nil {
			return err
		}

		committed := t.ctrl.ResizeCount()
		if committed != gen {
			// A resize published a new generation while we waited for the
			// lock (or before we ever acquired one). Remap to it and
			// retry: we must hold the NEW generation's lock, not the one
			// we just acquired, to stay mutually exclusive with whoever
			// is writing generation `committed`.
			held.Release()
			trace("table %s: remapping from generation %d to %d", t.name, gen, committed)
			if err := t.mapDataGeneration(committed, t.ctrl.Capacity()); err != nil {
				return err
			}
			continue
		}

		err = fn()
		held.Release()
		return err
	}
}

// Set inserts or overwrites key's value.
func (t *Table) Set(key string, value []byte) error {
	if len(key) > maxKeyLen {
		return ErrKeyTooLong
	}
	if len(value) > maxValueLen {
		return ErrValueTooLong
	}
	for {
		didResize := false
		err := t.withLock(ipclock.ModeWrite, func() error {
			if t.loadFactor() >= layout.MaxLoadFactor {
				didResize = true
				return t.resizeLocked()
			}
			return t.insertLocked(key, value)
		})
		if err != nil {
			return err
		}
		if !didResize {
			return nil
		}
		// resizeLocked only publishes and remaps; it deliberately does not
		// insert under the old generation's lock, since other processes
		// become eligible to acquire the NEW generation's lock the instant
		// the info transaction above commits. Loop so withLock acquires
		// that new lock (t.cachedGen already points at it) before the
		// insert touches the new data segment.
	}
}

func (t *Table) loadFactor() float64 {
	return float64(t.ctrl.Size()) / float64(t.ctrl.Capacity())
}

func (t *Table) insertLocked(key string, value []byte) error {
	h := hashKey([]byte(key))
	capacity := t.ctrl.Capacity()
	bucket := probeStart(h, capacity)

	for probed, i := uint64(0), uint64(0); probed < capacity; probed++ {
		state := t.ctrl.DataState(bucket)
		if state != layout.Occupied || t.ctrl.DataKey(bucket) == key {
			t.ctrl.StartDataTransaction(bucket)
			t.ctrl.SetDataKey(bucket, key)
			t.ctrl.SetDataValue(bucket, value)
			t.ctrl.SetDataState(bucket, layout.Occupied)
			maybeCrash()
			if err := t.ctrl.CommitData(bucket); err != nil {
				return err
			}
			if state != layout.Occupied {
				t.ctrl.StartInfoTransaction()
				t.ctrl.SetSize(t.ctrl.Size() + 1)
				return t.ctrl.CommitInfo()
			}
			return nil
		}
		i++
		bucket = probeNext(h, capacity, i)
	}
	return ErrInsertFailed
}

// Get looks up key and reports whether it was present.
func (t *Table) Get(key string) ([]byte, bool, error) {
	if len(key) > maxKeyLen {
		return nil, false, ErrKeyTooLong
	}
	var value []byte
	var found bool
	err := t.withLock(ipclock.ModeRead, func() error {
		bucket, ok := t.findLocked(key)
		if !ok {
			return nil
		}
		found = true
		value = t.ctrl.DataValue(bucket)
		return nil
	})
	return value, found, err
}

// findLocked returns the bucket holding key, scanning its probe sequence
// until an Empty slot (definitive absence) or a matching Occupied slot.
// A Deleted slot does not end the search: the key may have probed past it.
func (t *Table) findLocked(key string) (uint64, bool) {
	h := hashKey([]byte(key))
	capacity := t.ctrl.Capacity()
	bucket := probeStart(h, capacity)

	for probed, i := uint64(0), uint64(0); probed < capacity; probed++ {
		switch t.ctrl.DataState(bucket) {
		case layout.Empty:
			return 0, false
		case layout.Occupied:
			if t.ctrl.DataKey(bucket) == key {
				return bucket, true
			}
		}
		i++
		bucket = probeNext(h, capacity, i)
	}
	return 0, false
}

// Remove deletes key, tombstoning its bucket. Returns ErrNotFound if key
// was not present.
func (t *Table) Remove(key string) error {
	if len(key) > maxKeyLen {
		return ErrKeyTooLong
	}
	return t.withLock(ipclock.ModeWrite, func() error {
		bucket, ok := t.findLocked(key)
		if !ok {
			return ErrNotFound
		}
		t.ctrl.StartDataTransaction(bucket)
		t.ctrl.SetDataState(bucket, layout.Deleted)
		if err := t.ctrl.CommitData(bucket); err != nil {
			return err
		}
		t.ctrl.StartInfoTransaction()
		t.ctrl.SetSize(t.ctrl.Size() - 1)
		return t.ctrl.CommitInfo()
	})
}

// Clear tombstones every occupied bucket and resets Size to zero. Capacity
// and ResizeCount are left untouched: a Clear is not a resize.
func (t *Table) Clear() error {
	return t.withLock(ipclock.ModeWrite, func() error {
		capacity := t.ctrl.Capacity()
		for i := uint64(0); i < capacity; i++ {
			if t.ctrl.DataState(i) == layout.Occupied {
				t.ctrl.StartDataTransaction(i)
				t.ctrl.SetDataState(i, layout.Deleted)
				if err := t.ctrl.CommitData(i); err != nil {
					return err
				}
			}
		}
		t.ctrl.StartInfoTransaction()
		t.ctrl.SetSize(0)
		return t.ctrl.CommitInfo()
	})
}

// Size returns the number of occupied keys.
func (t *Table) Size() (uint64, error) {
	var size uint64
	err := t.withLock(ipclock.ModeRead, func() error {
		size = t.ctrl.Size()
		return nil
	})
	return size, err
}

// Print writes a diagnostic dump of every occupied bucket, followed by the
// committed capacity, size, resize count and load factor, to stdout. The
// info record's uncommitted A/B half is not printed.
func (t *Table) Print() error {
	return t.withLock(ipclock.ModeRead, func() error {
		capacity := t.ctrl.Capacity()
		for i := uint64(0); i < capacity; i++ {
			if t.ctrl.DataState(i) == layout.Occupied {
				fmt.Printf("[%d] %s %x\n", i, t.ctrl.DataKey(i), t.ctrl.DataValue(i))
			}
		}
		fmt.Printf("Capacity %d, Size %d, Resizes %d, Load Factor %f\n",
			capacity, t.ctrl.Size(), t.ctrl.ResizeCount(), t.loadFactor())
		return nil
	})
}

// Close unmaps this process's segments for the table. It does not destroy
// the table: other processes, or a future Open of the same name, continue
// to see its data.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	openTables.Delete(t.name)
	var err error
	if t.dataSeg != nil {
		err = t.dataSeg.Close()
	}
	if infoErr := t.infoSeg.Close(); err == nil {
		err = infoErr
	}
	return err
}
