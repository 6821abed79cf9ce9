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

package api

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseMetadata(t *testing.T) {
	raw := make([]byte, MetadataSize)
	binary.LittleEndian.PutUint64(raw[0:], 0x80080000)
	binary.LittleEndian.PutUint64(raw[8:], 0x1_9e780000)
	binary.LittleEndian.PutUint64(raw[16+8*29:], 0xdeadbeef)

	m, err := ParseMetadata(raw, binary.LittleEndian)
	if err != nil {
		t.Fatalf("ParseMetadata: %v", err)
	}
	want := LPMMetadata{JumpAddress: 0x80080000, ContextSaveAddress: 0x1_9e780000}
	want.Reserved[29] = 0xdeadbeef
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("ParseMetadata (-want +got):\n%s", diff)
	}
}

func TestMarshalPreservesReserved(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			m := LPMMetadata{JumpAddress: 0x9dc00000, ContextSaveAddress: 0x9e780000}
			for i := range m.Reserved {
				m.Reserved[i] = uint64(i) << 40
			}
			raw := m.Marshal(order)
			if len(raw) != MetadataSize {
				t.Fatalf("Marshal() returned %d bytes, want %d", len(raw), MetadataSize)
			}
			got, err := ParseMetadata(raw, order)
			if err != nil {
				t.Fatalf("ParseMetadata: %v", err)
			}
			if diff := cmp.Diff(m, got); diff != "" {
				t.Errorf("round trip (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMetadataShort(t *testing.T) {
	if _, err := ParseMetadata(make([]byte, 16), binary.LittleEndian); err == nil {
		t.Fatal("ParseMetadata expected error, but got none")
	}
}

func TestMetadataString(t *testing.T) {
	m := LPMMetadata{JumpAddress: 0x9dc00000, ContextSaveAddress: 0x1_9e780000}
	if got, want := m.String(), "jump@0x9dc00000 context@0x000000019e780000"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
