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

//go:build !linux

package zone

import "fmt"

// Reset is unsupported outside Linux: ZNS devices and the BLKRESETZONE
// ioctl are a Linux block-layer concept. Non-Linux builds of this package
// exist only so the rest of the module (and its tests that don't exercise
// an actual device) can compile and run elsewhere.
func Reset(path string) error {
	return fmt.Errorf("zone: reset(%q): zone reset is only supported on linux", path)
}
