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
	"testing"
	"time"
)

// fakeClock implements timeutil.Clock with a fixed, caller-set time, so
// clock-dependent operations can be tested deterministically.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestCurrentTimeReportsInjectedClock(t *testing.T) {
	want := time.Date(2015, 7, 4, 12, 30, 0, 0, time.UTC)
	b := &Backend{Clock: &fakeClock{now: want}}

	if got := b.CurrentTime(); !got.Equal(want) {
		t.Fatalf("CurrentTime() = %v, want %v", got, want)
	}
}

func TestCurrentTimeInt64ReportsInjectedClock(t *testing.T) {
	want := time.Date(2015, 7, 4, 12, 30, 0, 0, time.UTC)
	b := &Backend{Clock: &fakeClock{now: want}}

	if got := b.CurrentTimeInt64(); got != want.UnixNano() {
		t.Fatalf("CurrentTimeInt64() = %d, want %d", got, want.UnixNano())
	}
}

func TestCurrentTimeAdvancesWithClock(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := &Backend{Clock: clock}

	first := b.CurrentTime()
	clock.now = clock.now.Add(time.Hour)
	second := b.CurrentTime()

	if !second.After(first) {
		t.Fatalf("CurrentTime() after clock advance = %v, want after %v", second, first)
	}
}

func TestCurrentTimeDefaultsToRealClockWhenUnset(t *testing.T) {
	b := &Backend{}

	before := time.Now()
	got := b.CurrentTime()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Fatalf("CurrentTime() with no Clock set = %v, want within [%v, %v]", got, before, after)
	}
}
