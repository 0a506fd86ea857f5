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

// Package zone implements the Zone Manager, a process-wide registry of the
// zone files discovered under a ZNS root, and the Zone Reset Driver, which
// issues the block-layer zone-reset ioctl.
package zone

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	znswal "github.com/coredb/sqlite-zns-wal"
	"go.uber.org/zap"
)

// State is a zone record's allocation state.
type State int

const (
	// Free zones have no mapped_wal and may be acquired.
	Free State = iota
	// Allocated zones have a non-empty mapped_wal; the two always agree
	// (state == Allocated iff mapped_wal is set).
	Allocated
)

func (s State) String() string {
	if s == Allocated {
		return "allocated"
	}
	return "free"
}

// Record describes one discovered zone file.
//
// INVARIANT: state == Free implies mappedWAL == ""
// INVARIANT: state == Allocated implies mappedWAL != ""
type Record struct {
	Path      string
	state     State
	mappedWAL string
}

// State and MappedWAL return a Record's current fields. Callers obtain
// Records only through Manager.Snapshot, which copies under the mutex, so
// no further synchronization is required to read them.
func (r Record) State() State       { return r.state }
func (r Record) MappedWAL() string  { return r.mappedWAL }

// zoneNamePattern matches the persisted zone-file naming convention: four
// lowercase hexadecimal digits ("%04x").
var zoneNamePattern = regexp.MustCompile(`^[0-9a-f]{4}$`)

// Manager is the process-wide zone registry. The zone slice is fixed after
// Discover; only each Record's state and mappedWAL mutate, all guarded by
// mu.
//
// GUARDED_BY(mu): zones[i].state, zones[i].mappedWAL
type Manager struct {
	log *zap.Logger

	root string

	mu    sync.Mutex
	zones []*Record // fixed after Discover; order is the allocation priority
}

// New creates a Manager with no discovered zones. Call Discover to populate
// it. A nil logger falls back to znswal.Logger(), which is a no-op logger
// unless znswal.SetLogger installed another.
func New(log *zap.Logger) *Manager {
	return &Manager{log: znswal.OrDefault(log)}
}

// Root reports the directory last passed to Discover.
func (m *Manager) Root() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.root
}

// Discover enumerates root for zone-file entries and populates the zone
// table. Discovery is idempotent: calling Discover again with the same root
// is a no-op. Calling it with a different root replaces the zone table
// entirely, discarding all allocation state: initializing with a different
// root first tears down the current manager.
func (m *Manager) Discover(root string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.root == root && m.zones != nil {
		return nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("zone: cannot open root %q: %w: %w", root, znswal.ErrCannotOpen, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !zoneNamePattern.MatchString(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	zones := make([]*Record, 0, len(names))
	for _, name := range names {
		zones = append(zones, &Record{
			Path:  filepath.Join(root, name),
			state: Free,
		})
	}

	m.root = root
	m.zones = zones
	m.log.Debug("zone: discovered", zap.String("root", root), zap.Int("count", len(zones)))
	return nil
}

// Acquire returns the zone path mapped to walName, allocating the lowest-
// index Free zone if none is mapped yet. It reports false if every zone is
// already Allocated.
func (m *Manager) Acquire(walName string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, z := range m.zones {
		if z.state == Allocated && z.mappedWAL == walName {
			return z.Path, true
		}
	}

	for _, z := range m.zones {
		if z.state == Free {
			z.mappedWAL = walName
			z.state = Allocated
			m.log.Debug("zone: acquired",
				zap.String("zone_path", z.Path), zap.String("wal_name", walName))
			return z.Path, true
		}
	}

	m.log.Debug("zone: exhausted", zap.String("wal_name", walName), zap.Int("zones", len(m.zones)))
	return "", false
}

// Release clears the mapping for the zone at zonePath, if any. Releasing an
// already-free zone is a silent no-op, logged as a warning.
func (m *Manager) Release(zonePath string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, z := range m.zones {
		if z.Path != zonePath {
			continue
		}
		if z.state != Allocated {
			m.log.Warn("zone: release of already-free zone", zap.String("zone_path", zonePath))
			return
		}
		m.log.Debug("zone: released",
			zap.String("zone_path", zonePath), zap.String("wal_name", z.mappedWAL))
		z.mappedWAL = ""
		z.state = Free
		return
	}
}

// LookupByWAL returns the zone path mapped to walName, if any.
func (m *Manager) LookupByWAL(walName string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, z := range m.zones {
		if z.state == Allocated && z.mappedWAL == walName {
			return z.Path, true
		}
	}
	return "", false
}

// Snapshot returns an immutable copy of the current zone table, in
// allocation-priority order. Used by tests; never consulted by the
// engine-facing dispatch path.
func (m *Manager) Snapshot() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Record, len(m.zones))
	for i, z := range m.zones {
		out[i] = *z
	}
	return out
}

// Len reports the number of discovered zones.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.zones)
}
