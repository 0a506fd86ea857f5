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

// Package config implements the Configuration Gate, the process-wide
// enable/disable switch for ZNS mode and owner of the Zone Manager
// instance. The use/get_path/set_path/enable hooks a C caller would bridge
// through externs collapse here into direct method calls on a single Gate
// value.
package config

import (
	"fmt"
	"os"
	"sync"

	znswal "github.com/coredb/sqlite-zns-wal"
	"github.com/coredb/sqlite-zns-wal/zone"
	"go.uber.org/zap"
)

// Gate owns the single process-wide enabled flag, path, and Zone Manager
// instance.
//
// GUARDED_BY(mu): enabled, path, manager
type Gate struct {
	log *zap.Logger

	mu      sync.Mutex
	enabled bool
	path    string
	manager *zone.Manager
}

// New returns a disabled Gate. A nil logger falls back to znswal.Logger(),
// which is a no-op logger unless znswal.SetLogger installed another; the
// resulting logger is also handed to the Zone Manager created on Enable.
func New(log *zap.Logger) *Gate {
	return &Gate{log: znswal.OrDefault(log)}
}

// Enabled reports whether ZNS mode is currently active.
func (g *Gate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// Path returns the currently configured ZNS root, or "" if disabled.
func (g *Gate) Path() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.path
}

// Manager returns the live Zone Manager, or nil if disabled.
func (g *Gate) Manager() *zone.Manager {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.manager
}

// EnabledManager atomically returns whether ZNS mode is active together with
// the live Zone Manager, as of a single lock acquisition. Callers that need
// both values must use this instead of separate Enabled/Manager calls: a
// concurrent Disable between the two would otherwise observe enabled=true
// alongside a nil manager.
func (g *Gate) EnabledManager() (bool, *zone.Manager) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled, g.manager
}

// Enable configures ZNS mode against path. An empty path disables ZNS mode
// instead. A non-empty path must stat as an existing directory; on success
// the Zone Manager is (re)initialized against it. Failure during Zone
// Manager init reverts to disabled and returns the init error.
func (g *Gate) Enable(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if path == "" {
		g.disableLocked()
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		g.disableLocked()
		return fmt.Errorf("config: stat %q: %w: %v", path, znswal.ErrCannotOpen, err)
	}
	if !info.IsDir() {
		g.disableLocked()
		return fmt.Errorf("config: %q is not a directory: %w", path, znswal.ErrMisuse)
	}

	if g.manager == nil {
		g.manager = zone.New(g.log)
	}
	if err := g.manager.Discover(path); err != nil {
		g.disableLocked()
		return fmt.Errorf("config: discover %q: %w", path, err)
	}

	g.enabled = true
	g.path = path
	g.log.Debug("config: zns enabled", zap.String("path", path))
	return nil
}

// Disable turns off ZNS mode and tears down the Zone Manager. Equivalent to
// Enable("").
func (g *Gate) Disable() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disableLocked()
}

func (g *Gate) disableLocked() {
	if g.enabled {
		g.log.Debug("config: zns disabled", zap.String("path", g.path))
	}
	g.enabled = false
	g.path = ""
	g.manager = nil
}
