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

package mmio

import (
	"fmt"
	"sync"
)

// Op identifies the direction of a register access.
type Op int

const (
	// OpRead is a 32-bit load.
	OpRead Op = iota
	// OpWrite is a 32-bit store.
	OpWrite
)

func (o Op) String() string {
	if o == OpWrite {
		return "W"
	}
	return "R"
}

// Access is one entry in a Memory access log.
type Access struct {
	Op   Op
	Addr uint32
	Val  uint32
}

func (a Access) String() string {
	return fmt.Sprintf("%s %#08x=%#08x", a.Op, a.Addr, a.Val)
}

// ReadHook may replace the value returned for a register read. It receives the
// currently stored value.
type ReadHook func(stored uint32) uint32

// WriteHook observes a register write and returns the value to store.
type WriteHook func(prev, val uint32) uint32

// Memory is a sparse in-memory register file implementing Bus.
//
// Unset registers read as zero. Hooks let callers model hardware side effects
// such as self-clearing status bits.
type Memory struct {
	mu      sync.Mutex
	regs    map[uint32]uint32
	onRead  map[uint32]ReadHook
	onWrite map[uint32]WriteHook
	log     []Access
}

var _ Bus = &Memory{}

// NewMemory returns an empty register file.
func NewMemory() *Memory {
	return &Memory{
		regs:    make(map[uint32]uint32),
		onRead:  make(map[uint32]ReadHook),
		onWrite: make(map[uint32]WriteHook),
	}
}

// Read32 implements Bus.
func (m *Memory) Read32(addr uint32) uint32 {
	m.mu.Lock()
	val := m.regs[addr]
	h := m.onRead[addr]
	m.mu.Unlock()

	if h != nil {
		val = h(val)
	}

	m.mu.Lock()
	m.log = append(m.log, Access{Op: OpRead, Addr: addr, Val: val})
	m.mu.Unlock()
	return val
}

// Write32 implements Bus.
func (m *Memory) Write32(addr uint32, val uint32) {
	m.mu.Lock()
	prev := m.regs[addr]
	h := m.onWrite[addr]
	m.log = append(m.log, Access{Op: OpWrite, Addr: addr, Val: val})
	m.mu.Unlock()

	stored := val
	if h != nil {
		stored = h(prev, val)
	}

	m.mu.Lock()
	m.regs[addr] = stored
	m.mu.Unlock()
}

// Poke stores val at addr without logging or invoking hooks.
func (m *Memory) Poke(addr uint32, val uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[addr] = val
}

// Peek returns the stored value at addr without logging or invoking hooks.
func (m *Memory) Peek(addr uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[addr]
}

// OnRead installs h for reads of addr, replacing any previous hook.
func (m *Memory) OnRead(addr uint32, h ReadHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRead[addr] = h
}

// OnWrite installs h for writes to addr, replacing any previous hook.
func (m *Memory) OnWrite(addr uint32, h WriteHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onWrite[addr] = h
}

// Trace returns a copy of the access log.
func (m *Memory) Trace() []Access {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Access(nil), m.log...)
}

// Writes returns only the writes from the access log, optionally restricted to
// the given addresses.
func (m *Memory) Writes(addrs ...uint32) []Access {
	want := make(map[uint32]bool, len(addrs))
	for _, a := range addrs {
		want[a] = true
	}
	var w []Access
	for _, a := range m.Trace() {
		if a.Op != OpWrite {
			continue
		}
		if len(want) > 0 && !want[a.Addr] {
			continue
		}
		w = append(w, a)
	}
	return w
}

// ResetTrace discards the access log.
func (m *Memory) ResetTrace() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = nil
}

// PokeBlock stores b at addr as little-endian 32-bit words without logging or
// running hooks. len(b) is rounded down to a multiple of 4.
func (m *Memory) PokeBlock(addr uint32, b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i+4 <= len(b); i += 4 {
		m.regs[addr+uint32(i)] = uint32(b[i]) | uint32(b[i+1])<<8 | uint32(b[i+2])<<16 | uint32(b[i+3])<<24
	}
}

// PeekBlock returns n bytes starting at addr without logging or running
// hooks. n is rounded up to a whole number of words.
func (m *Memory) PeekBlock(addr uint32, n int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, 0, (n+3)&^3)
	for off := 0; off < n; off += 4 {
		w := m.regs[addr+uint32(off)]
		out = append(out, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return out[:n]
}
