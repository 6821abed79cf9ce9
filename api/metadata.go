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

// Package api holds data structures shared across the sleep/wake boundary.
package api

import (
	"encoding/binary"
	"fmt"
)

const (
	// MetadataReservedWords is the number of reserved 64-bit words following
	// the two addresses. They are kept so that new fields can be appended
	// without changing the block size.
	MetadataReservedWords = 30
	// MetadataSize is the size in bytes of the LPM metadata block.
	MetadataSize = 8 * (2 + MetadataReservedWords)
)

// LPMMetadata is written by the pre-sleep path into reserved DRAM and consumed
// exactly once on resume.
type LPMMetadata struct {
	// JumpAddress is the entry point of the next-stage firmware.
	JumpAddress uint64
	// ContextSaveAddress is where system firmware saved its secure context.
	ContextSaveAddress uint64
	// Reserved is padding owned by future revisions. It must round-trip.
	Reserved [MetadataReservedWords]uint64
}

// ParseMetadata decodes a metadata block using the given byte order.
func ParseMetadata(b []byte, order binary.ByteOrder) (LPMMetadata, error) {
	if len(b) < MetadataSize {
		return LPMMetadata{}, fmt.Errorf("short metadata block: got %d bytes, want %d", len(b), MetadataSize)
	}
	var m LPMMetadata
	m.JumpAddress = order.Uint64(b[0:])
	m.ContextSaveAddress = order.Uint64(b[8:])
	for i := range m.Reserved {
		m.Reserved[i] = order.Uint64(b[16+8*i:])
	}
	return m, nil
}

// Marshal encodes the metadata block using the given byte order.
func (m LPMMetadata) Marshal(order binary.ByteOrder) []byte {
	b := make([]byte, MetadataSize)
	order.PutUint64(b[0:], m.JumpAddress)
	order.PutUint64(b[8:], m.ContextSaveAddress)
	for i, r := range m.Reserved {
		order.PutUint64(b[16+8*i:], r)
	}
	return b
}

// String returns a human-readable representation of the metadata.
func (m LPMMetadata) String() string {
	return fmt.Sprintf("jump@%#x context@0x%08x%08x", m.JumpAddress, uint32(m.ContextSaveAddress>>32), uint32(m.ContextSaveAddress))
}
