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
	_ "unsafe"
)

// The runtime lives in on-chip SRAM: DDR is in self-refresh until the
// resume sequence releases it. The first 64 kB hold the exception stacks, the
// image is linked at ramStart+0x10000.

//go:linkname ramStart runtime.ramStart
var ramStart uint32 = 0x43c00000

//go:linkname ramSize runtime.ramSize
var ramSize uint32 = 0x00040000

//go:linkname ramStackOffset runtime.ramStackOffset
var ramStackOffset uint32 = 0x100
