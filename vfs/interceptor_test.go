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

package vfs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	znswal "github.com/coredb/sqlite-zns-wal"
	"github.com/coredb/sqlite-zns-wal/config"
	"github.com/coredb/sqlite-zns-wal/osbackend"
)

func newEnabledGate(t *testing.T, zoneNames ...string) (*config.Gate, string) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range zoneNames {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatalf("WriteFile(%s): %v", name, err)
		}
	}
	g := config.New(nil)
	if err := g.Enable(dir); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	return g, dir
}

// Classification: a non-WAL path always passes through, regardless of gate
// state.
func TestOpen_NonWALPassesThrough(t *testing.T) {
	gate, dir := newEnabledGate(t, "0000")
	inner := &osbackend.Backend{}
	v := New(inner, gate, nil)

	dbPath := filepath.Join(dir, "main.db")
	f, _, err := v.Open(dbPath, znswal.OpenReadWrite|znswal.OpenCreate)
	if err != nil {
		t.Fatalf("Open(main.db): %v", err)
	}
	defer f.Close()

	if gate.Manager().Len() != 1 {
		t.Fatalf("zone count changed for a non-WAL open")
	}
	if _, ok := gate.Manager().LookupByWAL("main.db"); ok {
		t.Fatalf("non-WAL path should never be mapped to a zone")
	}
}

func TestOpen_WALBySuffixMapsToZone(t *testing.T) {
	gate, dir := newEnabledGate(t, "0000", "0001")
	inner := &osbackend.Backend{}
	v := New(inner, gate, nil)

	walPath := filepath.Join(dir, "main.db-wal")
	f, grantedFlags, err := v.Open(walPath, znswal.OpenReadWrite|znswal.OpenCreate)
	if err != nil {
		t.Fatalf("Open(%s): %v", walPath, err)
	}
	defer f.Close()

	if grantedFlags.Has(znswal.OpenCreate) {
		t.Fatalf("CREATE bit should be stripped for zns wal opens")
	}

	zonePath, ok := gate.Manager().LookupByWAL("main.db-wal")
	if !ok {
		t.Fatalf("expected main.db-wal to be mapped to a zone")
	}
	if want := filepath.Join(dir, "0000"); zonePath != want {
		t.Fatalf("zonePath = %q, want %q", zonePath, want)
	}
}

func TestOpen_WALByFlagMapsToZone(t *testing.T) {
	gate, dir := newEnabledGate(t, "0000")
	inner := &osbackend.Backend{}
	v := New(inner, gate, nil)

	// A path that doesn't end in -wal but carries the WAL-open flag still
	// classifies as ZNS WAL: the open path uses the flag bit.
	path := filepath.Join(dir, "renamed-journal")
	f, _, err := v.Open(path, znswal.OpenReadWrite|znswal.OpenCreate|znswal.OpenWAL)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if _, ok := gate.Manager().LookupByWAL("renamed-journal"); !ok {
		t.Fatalf("flag-classified WAL open was not mapped to a zone")
	}
}

// Boundary: exhaustion.
func TestOpen_ExhaustionReturnsResourceExhausted(t *testing.T) {
	gate, dir := newEnabledGate(t, "0000")
	inner := &osbackend.Backend{}
	v := New(inner, gate, nil)

	f1, _, err := v.Open(filepath.Join(dir, "a-wal"), znswal.OpenReadWrite|znswal.OpenWAL)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	defer f1.Close()

	_, _, err = v.Open(filepath.Join(dir, "b-wal"), znswal.OpenReadWrite|znswal.OpenWAL)
	if !errors.Is(err, znswal.ErrResourceExhausted) {
		t.Fatalf("second Open err = %v, want ErrResourceExhausted", err)
	}
}

// Open-close-open round trip: reopening the same WAL path after closing
// reports the bytes synced before close as its initial size.
func TestOpen_Close_Open_RoundTrip(t *testing.T) {
	gate, dir := newEnabledGate(t, "0000")
	inner := &osbackend.Backend{}
	v := New(inner, gate, nil)

	walPath := filepath.Join(dir, "db-wal")
	f1, _, err := v.Open(walPath, znswal.OpenReadWrite|znswal.OpenWAL)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if _, err := f1.WriteAt([]byte("hello"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := f1.Sync(znswal.SyncNormal); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := f1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Closing released the zone; a fresh WAL path can now claim it.
	if _, ok := gate.Manager().LookupByWAL("db-wal"); ok {
		t.Fatalf("close should have released the zone mapping")
	}

	f2, _, err := v.Open(walPath, znswal.OpenReadWrite|znswal.OpenWAL)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer f2.Close()

	size, err := f2.FileSize()
	if err != nil {
		t.Fatalf("FileSize: %v", err)
	}
	if size != 5 {
		t.Fatalf("FileSize() on reopen = %d, want 5 (bytes synced before close)", size)
	}
}

// Delete removes the mapping; a subsequent access reports false and a
// subsequent open re-acquires a (possibly different) free zone.
func TestDelete_RemovesMappingAndFreesZone(t *testing.T) {
	gate, dir := newEnabledGate(t, "0000", "0001")
	inner := &osbackend.Backend{}
	v := New(inner, gate, nil)

	walPath := filepath.Join(dir, "db-wal")
	f, _, err := v.Open(walPath, znswal.OpenReadWrite|znswal.OpenWAL)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	f.WriteAt([]byte("data"), 0)
	f.Sync(znswal.SyncNormal)

	// Delete while the handle is still open, so the zone mapping exists
	// (Close alone would already release it).
	if err := v.Delete(walPath, false); err != nil {
		t.Fatalf("Delete returned an error; it must swallow zone-reset failures: %v", err)
	}
	f.Close()

	exists, err := v.Access(walPath, znswal.AccessExists)
	if err != nil {
		t.Fatalf("Access: %v", err)
	}
	if exists {
		t.Fatalf("Access after Delete should report false")
	}

	// Re-opening re-acquires a free zone (the same one, since it's lowest
	// index and there's nothing else competing for it).
	f2, _, err := v.Open(walPath, znswal.OpenReadWrite|znswal.OpenWAL)
	if err != nil {
		t.Fatalf("re-Open after delete: %v", err)
	}
	defer f2.Close()
}

func TestAccess_UnmappedWALReturnsFalseWithoutError(t *testing.T) {
	gate, dir := newEnabledGate(t, "0000")
	inner := &osbackend.Backend{}
	v := New(inner, gate, nil)

	exists, err := v.Access(filepath.Join(dir, "never-opened-wal"), znswal.AccessExists)
	if err != nil {
		t.Fatalf("Access: %v", err)
	}
	if exists {
		t.Fatalf("Access on a never-mapped wal path should report false")
	}
}

func TestClassification_DisabledGatePassesEverythingThrough(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "0000"), nil, 0644)

	gate := config.New(nil) // never enabled
	inner := &osbackend.Backend{}
	v := New(inner, gate, nil)

	walPath := filepath.Join(dir, "main.db-wal")
	f, _, err := v.Open(walPath, znswal.OpenReadWrite|znswal.OpenCreate)
	if err != nil {
		t.Fatalf("Open with disabled gate: %v", err)
	}
	defer f.Close()

	info, err := os.Stat(walPath)
	if err != nil {
		t.Fatalf("expected a real WAL file to be created on disk when ZNS is disabled: %v", err)
	}
	if info.IsDir() {
		t.Fatalf("walPath unexpectedly a directory")
	}
}
