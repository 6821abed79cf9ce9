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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGenMask(t *testing.T) {
	for _, test := range []struct {
		hi, lo int
		want   uint32
	}{
		{hi: 3, lo: 0, want: 0xf},
		{hi: 14, lo: 8, want: 0x7f00},
		{hi: 19, lo: 16, want: 0x000f0000},
		{hi: 27, lo: 24, want: 0x0f000000},
		{hi: 31, lo: 31, want: 0x80000000},
	} {
		if got := GenMask(test.hi, test.lo); got != test.want {
			t.Errorf("GenMask(%d, %d) = %#x, want %#x", test.hi, test.lo, got, test.want)
		}
	}
}

func TestUpdateBits(t *testing.T) {
	m := NewMemory()
	m.Poke(0x100, 0xffff00ff)

	UpdateBits(m, 0x100, 0x0000ff00|0x000000f0, 0x00000200)

	if got, want := m.Peek(0x100), uint32(0xffff020f); got != want {
		t.Errorf("register = %#x, want %#x", got, want)
	}
	want := []Access{
		{Op: OpRead, Addr: 0x100, Val: 0xffff00ff},
		{Op: OpWrite, Addr: 0x100, Val: 0xffff020f},
	}
	if diff := cmp.Diff(want, m.Trace()); diff != "" {
		t.Errorf("unexpected trace (-want +got):\n%s", diff)
	}
}

func TestBitHelpers(t *testing.T) {
	m := NewMemory()

	SetBit(m, 0x0, 31)
	if !IsSet(m, 0x0, 31) {
		t.Error("bit 31 not set")
	}
	SetField(m, 0x0, 8, 0x7f, 0x40)
	if got := Field(m, 0x0, 8, 0x7f); got != 0x40 {
		t.Errorf("Field = %#x, want 0x40", got)
	}
	ClearBit(m, 0x0, 31)
	if got, want := m.Peek(0x0), uint32(0x4000); got != want {
		t.Errorf("register = %#x, want %#x", got, want)
	}
}

func TestHooks(t *testing.T) {
	m := NewMemory()
	reads := 0
	m.OnRead(0x10, func(stored uint32) uint32 {
		reads++
		if reads >= 3 {
			return stored | 1
		}
		return stored
	})
	m.OnWrite(0x14, func(prev, val uint32) uint32 {
		// write-one-to-clear
		return prev &^ val
	})
	m.Poke(0x14, 0xf)

	for i := 0; i < 2; i++ {
		if IsSet(m, 0x10, 0) {
			t.Fatalf("read %d: bit set too early", i)
		}
	}
	if !IsSet(m, 0x10, 0) {
		t.Error("third read: bit not set")
	}

	m.Write32(0x14, 0x3)
	if got, want := m.Peek(0x14), uint32(0xc); got != want {
		t.Errorf("w1c register = %#x, want %#x", got, want)
	}
	if diff := cmp.Diff([]Access{{Op: OpWrite, Addr: 0x14, Val: 0x3}}, m.Writes()); diff != "" {
		t.Errorf("unexpected writes (-want +got):\n%s", diff)
	}
}

func TestBlocks(t *testing.T) {
	m := NewMemory()
	in := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	m.PokeBlock(0x8000, in)

	if got, want := m.Peek(0x8000), uint32(0x04030201); got != want {
		t.Errorf("word 0 = %#x, want %#x", got, want)
	}
	if diff := cmp.Diff(in[:6], ReadBlock(m, 0x8000, 6)); diff != "" {
		t.Errorf("ReadBlock (-want +got):\n%s", diff)
	}
}

func TestWriteBlockPadsTail(t *testing.T) {
	m := NewMemory()
	WriteBlock(m, 0x100, []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee})

	want := []Access{
		{Op: OpWrite, Addr: 0x100, Val: 0xddccbbaa},
		{Op: OpWrite, Addr: 0x104, Val: 0x000000ee},
	}
	if diff := cmp.Diff(want, m.Writes()); diff != "" {
		t.Errorf("WriteBlock writes (-want +got):\n%s", diff)
	}
}
