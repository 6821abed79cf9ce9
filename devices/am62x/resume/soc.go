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
	"runtime"
	_ "unsafe"

	"github.com/google/lpm-resume/internal/mmio"
	"github.com/usbarmory/tamago/arm"
)

// Peripheral registers
const (
	// Wake-up domain UART, 16550 compatible
	WKUP_UART0 = 0x2b300000
	UART_THR   = 0x00
	UART_LSR   = 0x14
	LSR_THRE   = 5

	// Global timebase counter
	GTC_BASE  = 0x00a90000
	GTC_CNTCV = 0x08
	GTC_FREQ  = 200000000
)

// Peripheral instances
var (
	// Cortex-R5F wake-up core
	ARM = &arm.CPU{}

	bus = mmio.Hardware{}
)

//go:linkname printk runtime.printk
func printk(c byte) {
	for !mmio.IsSet(bus, WKUP_UART0+UART_LSR, LSR_THRE) {
	}
	bus.Write32(WKUP_UART0+UART_THR, uint32(c))
}

//go:linkname nanotime1 runtime.nanotime1
func nanotime1() int64 {
	for {
		hi := bus.Read32(GTC_BASE + GTC_CNTCV + 4)
		lo := bus.Read32(GTC_BASE + GTC_CNTCV)
		if bus.Read32(GTC_BASE+GTC_CNTCV+4) == hi {
			ticks := uint64(hi)<<32 | uint64(lo)
			return int64(ticks * (1e9 / GTC_FREQ))
		}
	}
}

// Cortex-R5 exception vectors. The R5 has no VBAR: with SCTLR.V clear the
// table is fetched from address 0, which is the core's ATCM.
const (
	vecTableBase   = 0x00000000
	vecTableJump   = 0xe59ff018 // ldr pc, [pc, #24]
	excStackOffset = 0x8000
	excStackSize   = 0x4000
)

// defined in boot.s
func set_low_vectors()
func set_exc_stack(addr uint32)

// Init takes care of the lower level initialization triggered early in runtime
// setup.
//
// arm.CPU.Init is not used as it programs VBAR, which is undefined on ARMv7-R.
// The same tamago handlers are installed in the fixed low vector table
// instead.
//
//go:linkname Init runtime.hwinit
func Init() {
	runtime.Exit = func(int32) {
		for {
		}
	}

	for i := uint32(0); i < 8; i++ {
		bus.Write32(vecTableBase+4*i, vecTableJump)
	}
	// A zero value CPU has its vector base at 0, so the handler pointers land
	// right after the jump table.
	ARM.SetVectorTable(arm.SystemVectorTable())
	set_low_vectors()

	set_exc_stack(ramStart + excStackOffset + excStackSize)
}

//go:linkname initRNG runtime.initRNG
func initRNG() {}

// getRandomData fills b from the timebase counter. The resume path has no
// use for entropy, this only satisfies the runtime's hash seeding.
//
//go:linkname getRandomData runtime.getRandomData
func getRandomData(b []byte) {
	x := uint64(nanotime1()) | 1
	for i := range b {
		x ^= x << 13
		x ^= x >> 7
		x ^= x << 17
		b[i] = byte(x)
	}
}
