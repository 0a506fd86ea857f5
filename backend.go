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

package znswal

import "time"

// Backend is the set of path-level operations the SQL engine issues against
// a storage plugin. One Backend wraps another to interpose behavior; see
// vfs.Interceptor, which wraps an OS-backed Backend to redirect WAL paths
// onto ZNS zone files.
//
// Implementations must be safe for concurrent use from multiple goroutines
// operating on different paths. Two calls against the handle returned for
// the same path need not be safe to run concurrently; the engine already
// serializes same-handle operations.
type Backend interface {
	// Open opens path with the given flags, returning a File and the flags
	// actually granted (an implementation may need to clear bits the
	// caller requested, e.g. CREATE on a pre-existing zone file).
	Open(path string, flags OpenFlags) (File, OpenFlags, error)

	// Delete removes path. If syncDir is set the implementation should
	// fsync the parent directory once the removal is durable.
	Delete(path string, syncDir bool) error

	// Access reports whether path exists and satisfies mode.
	Access(path string, mode AccessMode) (bool, error)

	// FullPathname resolves path to a canonical absolute form.
	FullPathname(path string) (string, error)

	// DlOpen, DlSym, DlClose and DlError form the dynamic-loader
	// four-tuple the engine uses to load run-time extensions. Handles are
	// opaque to the Backend abstraction.
	DlOpen(path string) (DLHandle, error)
	DlSym(handle DLHandle, symbol string) (DLSymbol, error)
	DlClose(handle DLHandle) error
	DlError() string

	// Randomness fills and returns up to n bytes of randomness.
	Randomness(n int) []byte

	// Sleep blocks for approximately d and returns the duration actually
	// slept.
	Sleep(d time.Duration) time.Duration

	// CurrentTime and CurrentTimeInt64 report wall-clock time in the two
	// representations the engine asks for.
	CurrentTime() time.Time
	CurrentTimeInt64() int64

	// LastError returns the most recent OS-level error message and code
	// observed by this backend, for diagnostics surfaced to the engine.
	LastError() (message string, code int)
}

// DLHandle is an opaque handle to a dynamically loaded extension.
type DLHandle interface{}

// DLSymbol is an opaque resolved symbol within a DLHandle.
type DLSymbol interface{}

// File is the per-open-handle method table returned by Backend.Open. It
// mirrors the SQLite io-methods surface.
type File interface {
	Close() error
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	Truncate(size int64) error
	Sync(flags SyncFlag) error
	FileSize() (int64, error)

	Lock(level LockLevel) error
	Unlock(level LockLevel) error
	CheckReservedLock() (bool, error)

	FileControl(op FileControlOp, arg interface{}) error
	SectorSize() int
	DeviceCharacteristics() DeviceCharacteristic

	// Shared-memory quartet, used by the engine's WAL-index file. These
	// are never invoked against a ZNS WAL zone file; the WAL-index is a
	// separate, unmodified pass-through file.
	ShmMap(region int, regionSize int, extend bool) ([]byte, error)
	ShmLock(offset, n int, flags ShmLockFlag) error
	ShmBarrier()
	ShmUnmap(deleteFlag bool) error

	Fetch(offset int64, amount int) ([]byte, error)
	Unfetch(offset int64, data []byte) error
}
