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

import "errors"

// Error kinds returned by this package. Pass-through errors from the OS
// backend are never wrapped in one of these and are surfaced to the caller
// unchanged.
var (
	// ErrResourceExhausted is returned from Open when no Free zone remains
	// to satisfy a new WAL mapping.
	ErrResourceExhausted = errors.New("znswal: no free zone available")

	// ErrWriteGap is returned from a buffered write whose offset lies past
	// the current logical size, which would leave a gap.
	ErrWriteGap = errors.New("znswal: write offset leaves a gap past logical size")

	// ErrFlushFailed wraps a failure of the underlying backend write
	// during a buffer flush. flushed is not advanced; the caller may
	// retry by issuing another sync.
	ErrFlushFailed = errors.New("znswal: flush to zone file failed")

	// ErrTruncateFailed wraps a failed zone-reset ioctl issued by
	// truncate(0).
	ErrTruncateFailed = errors.New("znswal: zone reset failed during truncate")

	// ErrDeleteResetFailed wraps a failed zone-reset ioctl issued by
	// delete. This is swallowed by the VFS Interceptor so the logical
	// delete still succeeds; it is exported so the interceptor can log it
	// before discarding it.
	ErrDeleteResetFailed = errors.New("znswal: zone reset failed during delete")

	// ErrOutOfMemory names the allocation-failure error kind. No code path
	// in this module returns it: a failed Go allocation (buffer growth,
	// path or mapping-name copies) is fatal rather than an error value.
	ErrOutOfMemory = errors.New("znswal: allocation failed")

	// ErrCannotOpen is returned by the Configuration Gate when the
	// configured ZNS root cannot be opened at all.
	ErrCannotOpen = errors.New("znswal: cannot open configured zns root")

	// ErrMisuse is returned by the Configuration Gate when the configured
	// path exists but is not a directory.
	ErrMisuse = errors.New("znswal: zns root is not a directory")
)
