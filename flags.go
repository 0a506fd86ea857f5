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

// OpenFlags mirrors the open-flag bitmask the engine passes to Backend.Open.
type OpenFlags uint32

const (
	OpenReadOnly OpenFlags = 1 << iota
	OpenReadWrite
	OpenCreate
	OpenDeleteOnClose
	OpenExclusive
	// OpenWAL marks an open intended for the write-ahead log file, the
	// flag-based half of the ZNS-WAL classification predicate.
	OpenWAL
	OpenMainDB
	OpenMainJournal
)

// Has reports whether all bits in mask are set.
func (f OpenFlags) Has(mask OpenFlags) bool { return f&mask == mask }

// AccessMode mirrors the engine's access() mode argument.
type AccessMode int

const (
	AccessExists AccessMode = iota
	AccessReadWrite
	AccessRead
)

// SyncFlag mirrors the flags argument to File.Sync.
type SyncFlag int

const (
	SyncNormal SyncFlag = iota
	SyncFull
	SyncDataOnly
)

// LockLevel mirrors the engine's locking-state machine.
type LockLevel int

const (
	LockNone LockLevel = iota
	LockShared
	LockReserved
	LockPending
	LockExclusive
)

// FileControlOp identifies an opcode passed to File.FileControl.
type FileControlOp int

// DeviceCharacteristic is a bitmask of device capability hints a File may
// advertise to the engine.
type DeviceCharacteristic uint32

const (
	// CharacteristicSequential advertises that writes must land at the
	// current end of file. ZNS WAL files never set this: the buffering
	// layer already absorbs the sequential-write constraint, so the
	// engine's checksum-rewrite pattern keeps working unmodified.
	CharacteristicSequential DeviceCharacteristic = 1 << iota
	// CharacteristicPowerSafeOverwrite advertises that overwriting part of
	// a previously written sector is power-safe. Left unset for the same
	// reason as CharacteristicSequential.
	CharacteristicPowerSafeOverwrite
	CharacteristicAtomic
)

// ShmLockFlag is a bitmask passed to File.ShmLock.
type ShmLockFlag int

const (
	ShmLock ShmLockFlag = 1 << iota
	ShmUnlockFlag
	ShmShared
	ShmExclusive
)
