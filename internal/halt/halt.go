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

// Package halt provides the terminal failure primitive of the resume path.
package halt

import (
	"fmt"

	"github.com/golang/glog"
)

// Halter stops execution. Halt must never return.
type Halter interface {
	Halt(reason string)
}

// Panic halts by logging the reason and panicking. On target the runtime
// prints the panic and parks the core.
type Panic struct{}

// Halt implements Halter.
func (Panic) Halt(reason string) {
	glog.Errorf("resume: fatal: %s", reason)
	glog.Flush()
	panic(reason)
}

// Func adapts a function to the Halter interface. If the function returns,
// Halt panics so that the no-return contract holds.
type Func func(reason string)

// Halt implements Halter.
func (f Func) Halt(reason string) {
	f(reason)
	panic(fmt.Sprintf("halt function returned: %s", reason))
}

// Haltf formats a reason and halts.
func Haltf(h Halter, format string, args ...interface{}) {
	h.Halt(fmt.Sprintf(format, args...))
	panic("unreachable: Halter returned")
}
