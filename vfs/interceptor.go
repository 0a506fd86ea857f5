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

// Package vfs implements the VFS Interceptor: it classifies every
// file-system operation the SQL engine issues as WAL-on-ZNS or
// pass-through, and dispatches accordingly.
package vfs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	znswal "github.com/coredb/sqlite-zns-wal"
	"github.com/coredb/sqlite-zns-wal/config"
	"github.com/coredb/sqlite-zns-wal/zone"
	"github.com/coredb/sqlite-zns-wal/znsfile"
	"github.com/jacobsa/reqtrace"
	"go.uber.org/zap"
)

// walSuffix is the literal four-character WAL path suffix used to classify
// delete and access calls, case-insensitively.
const walSuffix = "-wal"

// Interceptor implements znswal.Backend, wrapping another Backend (almost
// always an *osbackend.Backend) to redirect WAL paths onto ZNS zone files
// while passing every other path straight through.
//
// Dispatch is a sum type over open handles rather than a method-table-
// pointer-first struct: Open returns either a *znsfile.Buffered or the
// wrapped backend's own File, behind the single znswal.File interface.
type Interceptor struct {
	log   *zap.Logger
	inner znswal.Backend
	gate  *config.Gate
}

var _ znswal.Backend = (*Interceptor)(nil)

// New wraps inner with ZNS-WAL classification and dispatch, governed by
// gate. A nil logger falls back to znswal.Logger(), which is a no-op logger
// unless znswal.SetLogger installed another.
func New(inner znswal.Backend, gate *config.Gate, log *zap.Logger) *Interceptor {
	return &Interceptor{log: znswal.OrDefault(log), inner: inner, gate: gate}
}

// isZNSWALOpenPath implements the classification predicate for Open: the
// WAL-open flag bit, or (belt and suspenders) the literal suffix, while
// ZNS mode is enabled. It takes enabled rather than re-querying the gate so
// callers can classify and dispatch against the same atomically-read state.
func isZNSWALOpenPath(enabled bool, path string, flags znswal.OpenFlags) bool {
	if !enabled || path == "" {
		return false
	}
	return flags.Has(znswal.OpenWAL) || hasWALSuffix(path)
}

// isZNSWALSuffixPath implements the classification predicate for delete
// and access, which classify by suffix alone.
func isZNSWALSuffixPath(enabled bool, path string) bool {
	return enabled && path != "" && hasWALSuffix(path)
}

func hasWALSuffix(path string) bool {
	return len(path) >= len(walSuffix) && strings.EqualFold(path[len(path)-len(walSuffix):], walSuffix)
}

// Open classifies path and, for a ZNS WAL open, acquires a zone and
// returns a buffered handle onto it.
func (v *Interceptor) Open(path string, flags znswal.OpenFlags) (f znswal.File, grantedFlags znswal.OpenFlags, err error) {
	_, report := reqtrace.StartSpan(context.Background(), "vfs.Open")
	defer func() { report(err) }()

	enabled, mgr := v.gate.EnabledManager()
	if !isZNSWALOpenPath(enabled, path, flags) {
		return v.inner.Open(path, flags)
	}

	walName := filepath.Base(path)

	zonePath, ok := mgr.Acquire(walName)
	if !ok {
		return nil, 0, fmt.Errorf("vfs: open %q: %w", path, znswal.ErrResourceExhausted)
	}

	// Zone files must pre-exist; they are never created or deleted by an
	// open call.
	openFlags := flags &^ (znswal.OpenCreate | znswal.OpenDeleteOnClose)

	inner, _, err := v.inner.Open(zonePath, openFlags)
	if err != nil {
		mgr.Release(zonePath)
		return nil, 0, err
	}

	size, err := inner.FileSize()
	if err != nil {
		inner.Close()
		mgr.Release(zonePath)
		return nil, 0, fmt.Errorf("vfs: stat zone %q: %w", zonePath, err)
	}

	buffered := znsfile.Open(inner, zonePath, true, size, mgr, v.log)
	v.log.Debug("vfs: opened zns wal",
		zap.String("wal_path", path), zap.String("zone_path", zonePath), zap.Int64("initial_size", size))
	return buffered, openFlags, nil
}

// Delete resets and releases the mapped zone for a ZNS WAL path, swallowing
// a failed zone reset so the logical delete still succeeds.
func (v *Interceptor) Delete(path string, syncDir bool) (err error) {
	_, report := reqtrace.StartSpan(context.Background(), "vfs.Delete")
	defer func() { report(err) }()

	enabled, mgr := v.gate.EnabledManager()
	if !isZNSWALSuffixPath(enabled, path) {
		return v.inner.Delete(path, syncDir)
	}

	walName := filepath.Base(path)

	zonePath, ok := mgr.LookupByWAL(walName)
	if !ok {
		return v.inner.Delete(path, syncDir)
	}

	if resetErr := zone.Reset(zonePath); resetErr != nil {
		v.log.Warn("vfs: zone reset failed during delete, releasing mapping anyway",
			zap.String("zone_path", zonePath),
			zap.Error(fmt.Errorf("%w: %v", znswal.ErrDeleteResetFailed, resetErr)))
	}
	mgr.Release(zonePath)
	return nil
}

// Access reports whether path, if classified as a ZNS WAL path, currently
// has a zone mapping.
func (v *Interceptor) Access(path string, mode znswal.AccessMode) (exists bool, err error) {
	_, report := reqtrace.StartSpan(context.Background(), "vfs.Access")
	defer func() { report(err) }()

	enabled, mgr := v.gate.EnabledManager()
	if !isZNSWALSuffixPath(enabled, path) {
		return v.inner.Access(path, mode)
	}

	walName := filepath.Base(path)
	if _, ok := mgr.LookupByWAL(walName); !ok {
		return false, nil
	}
	return true, nil
}

// The remaining Backend operations are pure pass-through.
func (v *Interceptor) FullPathname(path string) (string, error) { return v.inner.FullPathname(path) }
func (v *Interceptor) DlOpen(path string) (znswal.DLHandle, error) { return v.inner.DlOpen(path) }
func (v *Interceptor) DlSym(handle znswal.DLHandle, symbol string) (znswal.DLSymbol, error) {
	return v.inner.DlSym(handle, symbol)
}
func (v *Interceptor) DlClose(handle znswal.DLHandle) error { return v.inner.DlClose(handle) }
func (v *Interceptor) DlError() string                      { return v.inner.DlError() }

func (v *Interceptor) Randomness(n int) []byte                { return v.inner.Randomness(n) }
func (v *Interceptor) Sleep(d time.Duration) time.Duration    { return v.inner.Sleep(d) }
func (v *Interceptor) CurrentTime() time.Time                 { return v.inner.CurrentTime() }
func (v *Interceptor) CurrentTimeInt64() int64                { return v.inner.CurrentTimeInt64() }
func (v *Interceptor) LastError() (string, int)               { return v.inner.LastError() }
