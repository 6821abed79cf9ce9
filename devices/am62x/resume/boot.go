// Copyright 2026 Google LLC. All Rights Reserved.
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

//go:build tamago && arm

package main

import (
	"github.com/golang/glog"
	"github.com/usbarmory/tamago/arm"
)

// defined in boot.s
func exec(entry uint32)
func svc()

// boot jumps to entry from supervisor mode with caches flushed and disabled.
func boot(entry uint32) {
	arm.SystemExceptionHandler = func(n int) {
		if n != arm.SUPERVISOR {
			panic("unhandled exception")
		}

		glog.Infof("resume: starting DM firmware@%x", entry)
		glog.Flush()

		ARM.FlushDataCache()
		ARM.DisableCache()

		exec(entry)
	}

	svc()
}
