// Copyright 2015 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package znsfile implements the Buffered Zone File, the per-open-handle
// engine that converts the SQL engine's random-offset WAL write stream
// into a strictly sequential zone-append pattern.
package znsfile

import (
	"context"
	"fmt"

	znswal "github.com/coredb/sqlite-zns-wal"
	"github.com/coredb/sqlite-zns-wal/zone"
	"github.com/jacobsa/reqtrace"
	"go.uber.org/zap"
)

const (
	// allocFloor is the minimum buffer capacity ever allocated.
	allocFloor = 4 * 1024
	// allocAlignment rounds every grown capacity up to this boundary.
	allocAlignment = 1024
)

// Releaser releases a zone mapping back to the Zone Manager on close. It is
// the subset of *zone.Manager's API that Buffered needs, named separately
// so tests can fake it.
type Releaser interface {
	Release(zonePath string)
}

// Buffered wraps an inner znswal.File opened against a zone file and
// presents a buffered-write contract on top of it.
//
// buffer, logicalSize, and flushed are unsynchronized: a Buffered handle is
// single-writer by contract, since the engine never issues concurrent writes
// against the same open file. A caller that needs concurrent same-handle
// writes must serialize its own calls into WriteAt, Sync, and Truncate.
type Buffered struct {
	log *zap.Logger

	inner    znswal.File
	path     string
	isZNSWAL bool
	releaser Releaser

	buffer      []byte
	logicalSize int64
	flushed     int64
}

// Open wraps inner (already opened by the caller against zonePath) in a
// Buffered handle. initialSize is the zone file's physical size at open
// time; flushed and logicalSize both start there.
func Open(inner znswal.File, zonePath string, isZNSWAL bool, initialSize int64, releaser Releaser, log *zap.Logger) *Buffered {
	return &Buffered{
		log:         znswal.OrDefault(log),
		inner:       inner,
		path:        zonePath,
		isZNSWAL:    isZNSWAL,
		releaser:    releaser,
		logicalSize: initialSize,
		flushed:     initialSize,
	}
}

var _ znswal.File = (*Buffered)(nil)

// growTo ensures cap(buffer) >= need, growing geometrically and aligning up
// to allocAlignment.
func (b *Buffered) growTo(need int64) {
	if int64(cap(b.buffer)) >= need {
		return
	}
	newCap := int64(cap(b.buffer))
	if newCap == 0 {
		newCap = allocFloor
	}
	for newCap < need {
		newCap *= 2
	}
	if newCap < allocFloor {
		newCap = allocFloor
	}
	newCap = (newCap + allocAlignment - 1) &^ (allocAlignment - 1)

	// A handle reopened on a non-empty zone has logicalSize > 0 but no
	// buffer yet; bytes below flushed are never re-emitted, so only what the
	// buffer already holds is carried over.
	grown := make([]byte, b.logicalSize, newCap)
	copy(grown, b.buffer)
	b.buffer = grown
}

// WriteAt implements the buffered-write contract. Writes past
// the current logical size by more than zero bytes (a gap) are rejected;
// writes within or at the end of the current logical prefix land in the
// buffer and never touch disk until Sync.
func (b *Buffered) WriteAt(p []byte, off int64) (n int, err error) {
	_, report := reqtrace.StartSpan(context.Background(), "znsfile.WriteAt")
	defer func() { report(err) }()

	if !b.isZNSWAL {
		return b.inner.WriteAt(p, off)
	}

	if off > b.logicalSize {
		return 0, fmt.Errorf("znsfile: write at %d with logical size %d: %w", off, b.logicalSize, znswal.ErrWriteGap)
	}

	end := off + int64(len(p))
	b.growTo(end)
	if end > int64(len(b.buffer)) {
		b.buffer = b.buffer[:end]
	}
	copy(b.buffer[off:end], p)

	if end > b.logicalSize {
		b.logicalSize = end
	}
	return len(p), nil
}

// ReadAt passes through to the inner handle unchanged: reads targeting
// offsets beyond flushed return whatever the zone filesystem currently has
// on disk.
func (b *Buffered) ReadAt(p []byte, off int64) (int, error) {
	return b.inner.ReadAt(p, off)
}

// flush writes buffer[flushed:logicalSize] to inner at offset flushed, then
// advances flushed to logicalSize. On failure flushed is left unchanged so
// a later Sync can retry.
func (b *Buffered) flush() error {
	if !b.isZNSWAL || b.flushed >= b.logicalSize {
		return nil
	}

	pending := b.buffer[b.flushed:b.logicalSize]
	n, err := b.inner.WriteAt(pending, b.flushed)
	if err != nil || int64(n) != int64(len(pending)) {
		if err == nil {
			err = fmt.Errorf("znsfile: short flush write: wrote %d of %d bytes", n, len(pending))
		}
		return fmt.Errorf("znsfile: flush %q: %w: %v", b.path, znswal.ErrFlushFailed, err)
	}

	b.flushed = b.logicalSize
	return nil
}

// Sync flushes buffered bytes to the inner handle and, only on success,
// syncs the inner handle. Non-ZNS files pass straight through.
func (b *Buffered) Sync(flags znswal.SyncFlag) (err error) {
	_, report := reqtrace.StartSpan(context.Background(), "znsfile.Sync")
	defer func() { report(err) }()

	if !b.isZNSWAL {
		return b.inner.Sync(flags)
	}
	if err := b.flush(); err != nil {
		return err
	}
	return b.inner.Sync(flags)
}

// FileSize reports logicalSize for ZNS WAL handles, hiding buffered content
// as an ordinary file extension.
func (b *Buffered) FileSize() (int64, error) {
	if !b.isZNSWAL {
		return b.inner.FileSize()
	}
	return b.logicalSize, nil
}

// Truncate implements the zone file's truncate contract: truncate(0)
// resets state and the zone; truncate to any other size is a logged no-op.
func (b *Buffered) Truncate(size int64) (err error) {
	_, report := reqtrace.StartSpan(context.Background(), "znsfile.Truncate")
	defer func() { report(err) }()

	if !b.isZNSWAL {
		return b.inner.Truncate(size)
	}

	if size != 0 {
		b.log.Warn("znsfile: ignoring truncate to non-zero size on zns wal",
			zap.String("zone_path", b.path), zap.Int64("size", size))
		return nil
	}

	b.logicalSize = 0
	b.flushed = 0
	b.buffer = b.buffer[:0]

	if resetErr := zone.Reset(b.path); resetErr != nil {
		return fmt.Errorf("znsfile: truncate(0) reset %q: %w: %v", b.path, znswal.ErrTruncateFailed, resetErr)
	}
	return nil
}

// Close frees the write buffer, releases the zone mapping (if this is a ZNS
// WAL handle), and closes the inner handle. Errors from the inner close
// propagate.
func (b *Buffered) Close() error {
	b.buffer = nil
	if b.isZNSWAL && b.releaser != nil {
		b.releaser.Release(b.path)
	}
	return b.inner.Close()
}

// DeviceCharacteristics never advertises sequential-only or power-safe-
// overwrite hints for ZNS WAL handles: the buffering layer hides the
// sequentiality constraint from the engine.
func (b *Buffered) DeviceCharacteristics() znswal.DeviceCharacteristic {
	if !b.isZNSWAL {
		return b.inner.DeviceCharacteristics()
	}
	return 0
}

// The remaining File methods delegate to inner unchanged, for both ZNS and
// non-ZNS handles: locking, shared memory, fetch, file control, sector
// size.
func (b *Buffered) Lock(level znswal.LockLevel) error        { return b.inner.Lock(level) }
func (b *Buffered) Unlock(level znswal.LockLevel) error       { return b.inner.Unlock(level) }
func (b *Buffered) CheckReservedLock() (bool, error)          { return b.inner.CheckReservedLock() }
func (b *Buffered) FileControl(op znswal.FileControlOp, arg interface{}) error {
	return b.inner.FileControl(op, arg)
}
func (b *Buffered) SectorSize() int { return b.inner.SectorSize() }
func (b *Buffered) ShmMap(region, regionSize int, extend bool) ([]byte, error) {
	return b.inner.ShmMap(region, regionSize, extend)
}
func (b *Buffered) ShmLock(offset, n int, flags znswal.ShmLockFlag) error {
	return b.inner.ShmLock(offset, n, flags)
}
func (b *Buffered) ShmBarrier()                  { b.inner.ShmBarrier() }
func (b *Buffered) ShmUnmap(deleteFlag bool) error { return b.inner.ShmUnmap(deleteFlag) }
func (b *Buffered) Fetch(offset int64, amount int) ([]byte, error) {
	return b.inner.Fetch(offset, amount)
}
func (b *Buffered) Unfetch(offset int64, data []byte) error { return b.inner.Unfetch(offset, data) }

// Path returns the zone file path this handle was opened against.
func (b *Buffered) Path() string { return b.path }

// LogicalSize and Flushed expose the invariant-bearing counters for
// white-box tests.
func (b *Buffered) LogicalSize() int64 { return b.logicalSize }
func (b *Buffered) Flushed() int64     { return b.flushed }
