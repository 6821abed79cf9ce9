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

//go:build tamago
// +build tamago

package mmio

import (
	"sync/atomic"
	"unsafe"
)

// Hardware accesses physical addresses directly. It must only be used on
// target, with the MMU either off or mapping device memory as strongly ordered.
type Hardware struct{}

var _ Bus = Hardware{}

// Read32 implements Bus.
func (Hardware) Read32(addr uint32) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(uintptr(addr))))
}

// Write32 implements Bus.
func (Hardware) Write32(addr uint32, val uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(uintptr(addr))), val)
}
