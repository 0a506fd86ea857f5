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

// Package osbackend implements znswal.Backend directly against the host
// operating system's file APIs. It is the backend the VFS Interceptor
// wraps and falls back to for every non-WAL path, and the backend used to
// open zone files themselves.
package osbackend

import (
	"crypto/rand"
	"fmt"
	"os"
	"sync"
	"time"

	znswal "github.com/coredb/sqlite-zns-wal"
	"github.com/jacobsa/timeutil"
)

// Backend is a znswal.Backend implemented directly against package os.
type Backend struct {
	Clock timeutil.Clock // defaults to timeutil.RealClock() when nil

	mu       sync.Mutex
	lastErr  string
	lastCode int
}

var _ znswal.Backend = (*Backend)(nil)

func (b *Backend) clock() timeutil.Clock {
	if b.Clock != nil {
		return b.Clock
	}
	return timeutil.RealClock()
}

func (b *Backend) recordError(err error) error {
	if err == nil {
		return nil
	}
	b.mu.Lock()
	b.lastErr = err.Error()
	b.lastCode = -1
	b.mu.Unlock()
	return err
}

// toOSFlags translates znswal.OpenFlags into the os package's open flags.
func toOSFlags(flags znswal.OpenFlags) int {
	osFlags := os.O_RDONLY
	if flags.Has(znswal.OpenReadWrite) {
		osFlags = os.O_RDWR
	}
	if flags.Has(znswal.OpenCreate) {
		osFlags |= os.O_CREATE
	}
	if flags.Has(znswal.OpenExclusive) {
		osFlags |= os.O_EXCL
	}
	return osFlags
}

// Open opens path directly against the host filesystem.
func (b *Backend) Open(path string, flags znswal.OpenFlags) (znswal.File, znswal.OpenFlags, error) {
	f, err := os.OpenFile(path, toOSFlags(flags), 0644)
	if err != nil {
		return nil, 0, b.recordError(fmt.Errorf("osbackend: open %q: %w", path, err))
	}
	return &File{f: f, deleteOnClose: flags.Has(znswal.OpenDeleteOnClose), path: path}, flags, nil
}

// Delete removes path, then optionally fsyncs its parent directory so the
// removal is durable.
func (b *Backend) Delete(path string, syncDir bool) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return b.recordError(fmt.Errorf("osbackend: delete %q: %w", path, err))
	}
	if syncDir {
		if dir, err := os.Open(parentDir(path)); err == nil {
			dir.Sync()
			dir.Close()
		}
	}
	return nil
}

// Access reports whether path exists, optionally checking write access.
func (b *Backend) Access(path string, mode znswal.AccessMode) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, b.recordError(fmt.Errorf("osbackend: access %q: %w", path, err))
	}
	if mode == znswal.AccessReadWrite && info.Mode().Perm()&0200 == 0 {
		return false, nil
	}
	return true, nil
}

// FullPathname resolves path to an absolute, symlink-resolved form.
func (b *Backend) FullPathname(path string) (string, error) {
	abs, err := resolvePath(path)
	if err != nil {
		return "", b.recordError(fmt.Errorf("osbackend: fullpathname %q: %w", path, err))
	}
	return abs, nil
}

// DlOpen, DlSym, DlClose and DlError are not supported by this backend: the
// core never loads engine extensions itself. DlOpen and DlSym return a clear
// error rather than silently no-op; DlClose is a no-op and DlError reports
// the same message.
func (b *Backend) DlOpen(path string) (znswal.DLHandle, error) {
	return nil, fmt.Errorf("osbackend: dynamic loading is not supported")
}
func (b *Backend) DlSym(handle znswal.DLHandle, symbol string) (znswal.DLSymbol, error) {
	return nil, fmt.Errorf("osbackend: dynamic loading is not supported")
}
func (b *Backend) DlClose(handle znswal.DLHandle) error { return nil }
func (b *Backend) DlError() string                      { return "dynamic loading is not supported" }

// Randomness fills n bytes from the OS CSPRNG.
func (b *Backend) Randomness(n int) []byte {
	buf := make([]byte, n)
	rand.Read(buf)
	return buf
}

// Sleep blocks for d and reports the duration slept.
func (b *Backend) Sleep(d time.Duration) time.Duration {
	time.Sleep(d)
	return d
}

// CurrentTime and CurrentTimeInt64 delegate to the configured clock.
func (b *Backend) CurrentTime() time.Time   { return b.clock().Now() }
func (b *Backend) CurrentTimeInt64() int64  { return b.clock().Now().UnixNano() }

// LastError returns the most recently observed OS error.
func (b *Backend) LastError() (string, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr, b.lastCode
}
