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
	"github.com/launix-de/ipckv/internal/controller"
	"github.com/launix-de/ipckv/internal/layout"
	"github.com/launix-de/ipckv/ipcshm"
)

// resizeLocked grows the table to the next prime at least double its
// current capacity, rehashing every occupied key into a freshly created
// data segment for the next generation. Callers must already hold the
// table's write lock for the CURRENT generation.
//
// The new segment is created and fully populated, under its own local
// Controller, before the info transaction that bumps Capacity and
// ResizeCount is committed — that single atomic store is the publication
// point. Any process that crashes before it still has a consistent table
// at the old generation; the half-built new segment is simply abandoned.
func (t *Table) resizeLocked() error {
	oldCapacity := t.ctrl.Capacity()
	newGen := t.ctrl.ResizeCount() + 1
	newCapacity := nextPrime(oldCapacity * 2)
	trace("table %s: resizing generation %d capacity %d -> generation %d capacity %d", t.name, newGen-1, oldCapacity, newGen, newCapacity)

	newSeg, _, err := ipcshm.OpenOrCreate(dataSegmentName(t.name, newGen), layout.DataSegmentSize(newCapacity))
	if err != nil {
		return err
	}
	newData := newSeg.Bytes()
	for i := uint64(0); i < newCapacity; i++ {
		b := layout.BucketAt(newData, i)
		b.State[0], b.State[1] = uint32(layout.Empty), uint32(layout.Empty)
	}

	newCtrl, err := controller.New(make([]byte, layout.InfoRecordSize), newData, newCapacity)
	if err != nil {
		newSeg.Close()
		return err
	}

	for i := uint64(0); i < oldCapacity; i++ {
		if t.ctrl.DataState(i) != layout.Occupied {
			continue
		}
		key := t.ctrl.DataKey(i)
		value := t.ctrl.DataValue(i)
		if err := rehashInsert(newCtrl, newCapacity, key, value); err != nil {
			newSeg.Close()
			return err
		}
	}

	t.ctrl.StartInfoTransaction()
	t.ctrl.SetCapacity(newCapacity)
	t.ctrl.SetResizeCount(newGen)
	if err := t.ctrl.CommitInfo(); err != nil {
		newSeg.Close()
		return err
	}

	// Publication point passed: every future lock acquisition (including
	// our own, next time withLock loops) will observe newGen and remap.
	// Adopt newSeg directly rather than mapDataGeneration, which would
	// open a second, independent mapping of the same name and leak this
	// one.
	return t.adoptDataGeneration(newSeg, newGen, newCapacity)
}

// rehashInsert places one key/value into a freshly built controller during
// a resize. It never overwrites (every source key is distinct and the
// destination starts empty) and never triggers a nested resize.
func rehashInsert(ctrl *controller.Controller, capacity uint64, key string, value []byte) error {
	h := hashKey([]byte(key))
	bucket := probeStart(h, capacity)
	for probed, i := uint64(0), uint64(0); probed < capacity; probed++ {
		if ctrl.DataState(bucket) != layout.Occupied {
			ctrl.StartDataTransaction(bucket)
			ctrl.SetDataKey(bucket, key)
			ctrl.SetDataValue(bucket, value)
			ctrl.SetDataState(bucket, layout.Occupied)
			return ctrl.CommitData(bucket)
		}
		i++
		bucket = probeNext(h, capacity, i)
	}
	return ErrInsertFailed
}
