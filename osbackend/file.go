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

//go:build unix

package osbackend

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	znswal "github.com/coredb/sqlite-zns-wal"
)

func parentDir(path string) string {
	dir := filepath.Dir(path)
	if dir == "" {
		return "."
	}
	return dir
}

func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// File implements znswal.File directly against an *os.File. Every method
// not overridden here (locking, shared memory, fetch, file control, sector
// size, device characteristics) either delegates to straightforward syscall
// wrappers or returns a fixed, conservative default, since package os has
// no notion of most of them.
type File struct {
	f             *os.File
	path          string
	deleteOnClose bool
}

var _ znswal.File = (*File)(nil)

func (f *File) Close() error {
	err := f.f.Close()
	if f.deleteOnClose {
		os.Remove(f.path)
	}
	return err
}

func (f *File) ReadAt(p []byte, off int64) (int, error)  { return f.f.ReadAt(p, off) }
func (f *File) WriteAt(p []byte, off int64) (int, error) { return f.f.WriteAt(p, off) }

func (f *File) Truncate(size int64) error { return f.f.Truncate(size) }

func (f *File) Sync(znswal.SyncFlag) error { return f.f.Sync() }

func (f *File) FileSize() (int64, error) {
	info, err := f.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Lock and Unlock use flock(2), the host OS backend's exclusive-locking
// mechanism. File locking is delegated entirely to the OS backend; the
// shim adds none of its own.
func (f *File) Lock(level znswal.LockLevel) error {
	if level == znswal.LockNone {
		return f.Unlock(level)
	}
	how := syscall.LOCK_SH
	if level >= znswal.LockReserved {
		how = syscall.LOCK_EX
	}
	return syscall.Flock(int(f.f.Fd()), how|syscall.LOCK_NB)
}

func (f *File) Unlock(znswal.LockLevel) error {
	return syscall.Flock(int(f.f.Fd()), syscall.LOCK_UN)
}

func (f *File) CheckReservedLock() (bool, error) {
	// A non-blocking attempt to take the lock that would fail to coexist
	// with a reserved lock tells us whether one is held, without
	// disturbing an existing shared lock held by this process.
	err := syscall.Flock(int(f.f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		return true, nil
	}
	syscall.Flock(int(f.f.Fd()), syscall.LOCK_UN)
	return false, nil
}

func (f *File) FileControl(op znswal.FileControlOp, arg interface{}) error {
	return fmt.Errorf("osbackend: file control op %d not supported", op)
}

func (f *File) SectorSize() int { return 4096 }

func (f *File) DeviceCharacteristics() znswal.DeviceCharacteristic { return 0 }

// ShmMap, ShmLock, ShmBarrier and ShmUnmap back the WAL-index shared-memory
// file, passed through unmodified. package os has no mmap primitive, so
// ShmMap grows the file and returns a private, in-memory copy; callers
// needing true shared mmap (multi-process readers) sit on a host OS
// backend with real platform mmap support, outside this core.
func (f *File) ShmMap(region, regionSize int, extend bool) ([]byte, error) {
	want := int64((region + 1) * regionSize)
	info, err := f.f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < want {
		if !extend {
			return nil, fmt.Errorf("osbackend: shm region %d not present and extend=false", region)
		}
		if err := f.f.Truncate(want); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, regionSize)
	if _, err := f.f.ReadAt(buf, int64(region)*int64(regionSize)); err != nil && err.Error() != "EOF" {
		return buf, nil
	}
	return buf, nil
}

func (f *File) ShmLock(offset, n int, flags znswal.ShmLockFlag) error { return nil }
func (f *File) ShmBarrier()                                          {}
func (f *File) ShmUnmap(deleteFlag bool) error                       { return nil }

func (f *File) Fetch(offset int64, amount int) ([]byte, error) {
	buf := make([]byte, amount)
	n, err := f.f.ReadAt(buf, offset)
	return buf[:n], err
}

func (f *File) Unfetch(offset int64, data []byte) error { return nil }
