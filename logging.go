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

import (
	"sync"

	"go.uber.org/zap"
)

var (
	gLogger     *zap.Logger
	gLoggerOnce sync.Once
)

// Logger returns the package-wide fallback logger, a no-op logger until
// SetLogger is called. Components constructed without an explicit logger
// fall back to this one.
func Logger() *zap.Logger {
	gLoggerOnce.Do(func() {
		if gLogger == nil {
			gLogger = zap.NewNop()
		}
	})
	return gLogger
}

// SetLogger installs the process-wide fallback logger. It must be called, if
// at all, before any component that defaults to Logger() is constructed.
func SetLogger(l *zap.Logger) {
	gLoggerOnce.Do(func() {})
	gLogger = l
}

// OrDefault returns l if non-nil, else the package fallback logger.
func OrDefault(l *zap.Logger) *zap.Logger {
	if l != nil {
		return l
	}
	return Logger()
}
