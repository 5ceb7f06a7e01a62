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

// Package controller mediates access to the mapped Info and Data segments
// of one table, in one process. Getters always return the committed A/B
// half; a Start*Transaction call copies the committed half into the
// pending half so a partial field update still leaves the rest of the
// record consistent on commit; Commit* flips the selector in a single
// atomic store, preceded by a release fence over every preceding write.
package controller

import (
	"errors"
	"sync/atomic"

	"github.com/launix-de/ipckv/internal/layout"
)

// ErrInvalidState is returned when an accessor is used before the
// controller holds valid segments, or a commit is issued without a
// matching started transaction.
var ErrInvalidState = errors.New("controller: invalid transaction state")

// Controller holds this process's mapped pointers into one table's Info
// and Data segments. It is never shared across processes and must not
// outlive the segments it points into.
type Controller struct {
	info     *layout.InfoRecord
	data     []byte
	capacity uint64

	infoTxActive bool
	dataTxBucket int64 // -1 when no data transaction is active
}

// New builds a Controller over already-mapped info and data bytes. data
// must be exactly capacity*layout.BucketRecordSize bytes.
func New(infoBytes, dataBytes []byte, capacity uint64) (*Controller, error) {
	if len(infoBytes) < layout.InfoRecordSize {
		return nil, ErrInvalidState
	}
	c := &Controller{info: layout.InfoAt(infoBytes), dataTxBucket: -1}
	if err := c.SwapData(dataBytes, capacity); err != nil {
		return nil, err
	}
	return c, nil
}

// SwapData points the controller at a new data segment and capacity,
// without disturbing the info pointer. This is the "swap the in-process
// pointer from the old data segment to the new" step of a resize.
func (c *Controller) SwapData(dataBytes []byte, capacity uint64) error {
	if uint64(len(dataBytes)) != capacity*uint64(layout.BucketRecordSize) {
		return ErrInvalidState
	}
	c.data = dataBytes
	c.capacity = capacity
	return nil
}

func (c *Controller) bucket(i uint64) *layout.BucketRecord {
	return layout.BucketAt(c.data, i)
}

// --- Info getters (committed half) ---

func (c *Controller) Capacity() uint64 {
	sel := atomic.LoadUint32(&c.info.BufferState)
	return atomic.LoadUint64(&c.info.Capacity[sel])
}

func (c *Controller) Size() uint64 {
	sel := atomic.LoadUint32(&c.info.BufferState)
	return atomic.LoadUint64(&c.info.Size[sel])
}

func (c *Controller) ResizeCount() uint64 {
	sel := atomic.LoadUint32(&c.info.BufferState)
	return atomic.LoadUint64(&c.info.ResizeCount[sel])
}

// StartInfoTransaction copies every info field from the committed half
// into the pending half, so a subsequent single-field Set leaves the
// others consistent at commit time.
func (c *Controller) StartInfoTransaction() {
	sel := atomic.LoadUint32(&c.info.BufferState)
	pending := 1 - sel
	atomic.StoreUint64(&c.info.Capacity[pending], atomic.LoadUint64(&c.info.Capacity[sel]))
	atomic.StoreUint64(&c.info.Size[pending], atomic.LoadUint64(&c.info.Size[sel]))
	atomic.StoreUint64(&c.info.ResizeCount[pending], atomic.LoadUint64(&c.info.ResizeCount[sel]))
	c.infoTxActive = true
}

func (c *Controller) SetCapacity(v uint64) {
	pending := 1 - atomic.LoadUint32(&c.info.BufferState)
	atomic.StoreUint64(&c.info.Capacity[pending], v)
}

func (c *Controller) SetSize(v uint64) {
	pending := 1 - atomic.LoadUint32(&c.info.BufferState)
	atomic.StoreUint64(&c.info.Size[pending], v)
}

func (c *Controller) SetResizeCount(v uint64) {
	pending := 1 - atomic.LoadUint32(&c.info.BufferState)
	atomic.StoreUint64(&c.info.ResizeCount[pending], v)
}

// CommitInfo publishes the pending half with a single atomic store.
func (c *Controller) CommitInfo() error {
	if !c.infoTxActive {
		return ErrInvalidState
	}
	sel := atomic.LoadUint32(&c.info.BufferState)
	atomic.StoreUint32(&c.info.BufferState, 1-sel)
	c.infoTxActive = false
	return nil
}

// --- Data getters (committed half) ---

func (c *Controller) DataState(i uint64) layout.BucketState {
	b := c.bucket(i)
	sel := atomic.LoadUint32(&b.BufferState)
	return layout.BucketState(atomic.LoadUint32(&b.State[sel]))
}

func (c *Controller) DataKey(i uint64) string {
	b := c.bucket(i)
	sel := atomic.LoadUint32(&b.BufferState)
	return cString(b.Key[sel][:])
}

// DataValue copies out the value bytes of bucket i (its valid length per
// the committed Size field, not the whole fixed-size backing array).
func (c *Controller) DataValue(i uint64) []byte {
	b := c.bucket(i)
	sel := atomic.LoadUint32(&b.BufferState)
	n := atomic.LoadUint64(&b.Size[sel])
	out := make([]byte, n)
	copy(out, b.Value[sel][:n])
	return out
}

// StartDataTransaction copies bucket i's committed half into its pending
// half.
func (c *Controller) StartDataTransaction(i uint64) {
	b := c.bucket(i)
	sel := atomic.LoadUint32(&b.BufferState)
	pending := 1 - sel
	atomic.StoreUint32(&b.State[pending], atomic.LoadUint32(&b.State[sel]))
	b.Key[pending] = b.Key[sel]
	b.Value[pending] = b.Value[sel]
	atomic.StoreUint64(&b.Size[pending], atomic.LoadUint64(&b.Size[sel]))
	c.dataTxBucket = int64(i)
}

func (c *Controller) SetDataKey(i uint64, key string) {
	b := c.bucket(i)
	pending := 1 - atomic.LoadUint32(&b.BufferState)
	var buf [layout.KeySize]byte
	copy(buf[:], key) // zero-padded: NUL-terminated for any key shorter than KeySize
	b.Key[pending] = buf
}

func (c *Controller) SetDataValue(i uint64, value []byte) {
	b := c.bucket(i)
	pending := 1 - atomic.LoadUint32(&b.BufferState)
	var buf [layout.DataSize]byte
	n := copy(buf[:], value)
	b.Value[pending] = buf
	atomic.StoreUint64(&b.Size[pending], uint64(n))
}

func (c *Controller) SetDataState(i uint64, state layout.BucketState) {
	b := c.bucket(i)
	pending := 1 - atomic.LoadUint32(&b.BufferState)
	atomic.StoreUint32(&b.State[pending], uint32(state))
}

// CommitData publishes bucket i's pending half with a single atomic store.
func (c *Controller) CommitData(i uint64) error {
	if c.dataTxBucket != int64(i) {
		return ErrInvalidState
	}
	b := c.bucket(i)
	sel := atomic.LoadUint32(&b.BufferState)
	atomic.StoreUint32(&b.BufferState, 1-sel)
	c.dataTxBucket = -1
	return nil
}

// cString trims a fixed-size key buffer at its first NUL (or its full
// length, if unterminated).
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
