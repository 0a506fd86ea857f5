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

// Package znswal implements a pluggable storage backend for an embedded SQL
// engine that redirects its write-ahead log onto a Zoned Namespace device
// exposed through a zone-per-file pseudo-filesystem.
//
// The primary elements of interest are:
//
//   - The Backend and File interfaces, which define the operations the SQL
//     engine issues against a path and against an open file handle.
//
//   - vfs.Interceptor, which classifies each operation as WAL-on-ZNS or
//     pass-through and dispatches accordingly.
//
//   - zone.Manager, which discovers zone files under a root directory and
//     maps WAL names onto them.
//
//   - znsfile.Buffered, which absorbs the engine's random-offset WAL write
//     pattern into a sequential zone-append pattern.
//
//   - config.Gate, which enables or disables ZNS mode and owns the process-
//     wide Zone Manager instance.
package znswal
