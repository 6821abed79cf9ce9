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

// Package mmio provides ordered 32-bit register access for the resume
// sequencers, along with an in-memory register file used by tests and the
// emulator.
package mmio

import (
	"github.com/usbarmory/tamago/bits"
)

// Bus is a 32-bit memory mapped register space.
//
// Implementations must perform every access in program order: the resume
// handshakes rely on ordering alone for correctness.
type Bus interface {
	// Read32 returns the 32-bit value at addr.
	Read32(addr uint32) uint32
	// Write32 stores val at addr.
	Write32(addr uint32, val uint32)
}

// UpdateBits clears the bits in mask at addr, ORs in set, and writes the
// result back.
func UpdateBits(b Bus, addr uint32, mask uint32, set uint32) {
	val := b.Read32(addr)
	val &^= mask
	val |= set
	b.Write32(addr, val)
}

// SetBit sets bit pos at addr with a read-modify-write.
func SetBit(b Bus, addr uint32, pos int) {
	val := b.Read32(addr)
	bits.Set(&val, pos)
	b.Write32(addr, val)
}

// ClearBit clears bit pos at addr with a read-modify-write.
func ClearBit(b Bus, addr uint32, pos int) {
	val := b.Read32(addr)
	bits.Clear(&val, pos)
	b.Write32(addr, val)
}

// IsSet reports whether bit pos is set at addr.
func IsSet(b Bus, addr uint32, pos int) bool {
	val := b.Read32(addr)
	return bits.Get(&val, pos, 1) == 1
}

// Field returns the field of width mask starting at bit pos.
func Field(b Bus, addr uint32, pos int, mask int) uint32 {
	val := b.Read32(addr)
	return bits.Get(&val, pos, mask)
}

// SetField replaces the field of width mask at bit pos with val.
func SetField(b Bus, addr uint32, pos int, mask int, val uint32) {
	reg := b.Read32(addr)
	bits.SetN(&reg, pos, mask, val)
	b.Write32(addr, reg)
}

// Bit returns a register value with only bit pos set.
func Bit(pos int) uint32 {
	var v uint32
	bits.Set(&v, pos)
	return v
}

// GenMask returns a contiguous mask covering bits lo through hi inclusive.
func GenMask(hi, lo int) uint32 {
	var v uint32
	bits.SetN(&v, lo, (1<<(hi-lo+1))-1, (1<<(hi-lo+1))-1)
	return v
}

// ReadBlock copies n bytes starting at addr using 32-bit little-endian loads.
// n is rounded up to a whole number of words.
func ReadBlock(b Bus, addr uint32, n int) []byte {
	out := make([]byte, 0, (n+3)&^3)
	for off := 0; off < n; off += 4 {
		w := b.Read32(addr + uint32(off))
		out = append(out, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return out[:n]
}

// WriteBlock stores data at addr using 32-bit little-endian stores, in
// ascending address order. A trailing partial word is zero padded.
func WriteBlock(b Bus, addr uint32, data []byte) {
	for off := 0; off < len(data); off += 4 {
		var w uint32
		for i := 0; i < 4 && off+i < len(data); i++ {
			w |= uint32(data[off+i]) << (8 * i)
		}
		b.Write32(addr+uint32(off), w)
	}
}
