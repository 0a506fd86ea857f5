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

//go:build linux

package zone

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// blkResetZone is the block-layer "reset zone" ioctl request number,
// BLKRESETZONE from <linux/blkzoned.h>. Some older kernel headers installed
// on the build host may lack the definition entirely, so it is spelled out
// here via the same _IOW(0x12, 131, struct blk_zone_range) construction the
// kernel uses, rather than imported from a header. Whether this value
// matches a given running kernel is a porting concern, not an
// implementation invariant.
const blkResetZone = (1 << 30) | (16 << 16) | (0x12 << 8) | 131

// blkZoneRange mirrors struct blk_zone_range: a starting sector and a
// sector count, both zero to select "reset the whole zone".
type blkZoneRange struct {
	Sector    uint64
	NrSectors uint64
}

// Reset issues the zone-reset ioctl against the zone file at path,
// discarding its content and returning its write pointer to zero. The
// descriptor opened here is independent of any caller-held handle and is
// always closed before returning.
func Reset(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("zone: reopen for reset: %w", err)
	}
	defer f.Close()

	var rng blkZoneRange
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		f.Fd(),
		uintptr(blkResetZone),
		uintptr(unsafe.Pointer(&rng)),
	)
	if errno != 0 {
		return fmt.Errorf("zone: reset ioctl on %q: %w", path, errno)
	}
	return nil
}
