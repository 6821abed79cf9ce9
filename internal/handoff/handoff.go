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

// Package handoff restores the firmware context saved before suspend and
// transfers control to the stored next-stage entry point.
package handoff

import (
	"encoding/binary"
	"math"

	"github.com/golang/glog"
	"github.com/google/lpm-resume/api"
	"github.com/google/lpm-resume/internal/config"
	"github.com/google/lpm-resume/internal/halt"
	"github.com/google/lpm-resume/internal/mmio"
)

// Restorer asks privileged firmware to restore its saved context.
type Restorer interface {
	RestoreContext(addr uint64) error
}

// Jumper transfers control to entry. Implementations must not return.
type Jumper interface {
	Jump(entry uint32)
}

// JumperFunc adapts a function to Jumper.
type JumperFunc func(entry uint32)

// Jump implements Jumper.
func (f JumperFunc) Jump(entry uint32) { f(entry) }

// Resumer performs the final step of the resume path.
type Resumer struct {
	bus      mmio.Bus
	restorer Restorer
	jumper   Jumper
	halter   halt.Halter
	order    binary.ByteOrder
	align    uint32
}

// New returns a Resumer. Metadata is decoded with the byte order in cfg.
func New(bus mmio.Bus, r Restorer, j Jumper, h halt.Halter, cfg config.Metadata) *Resumer {
	var order binary.ByteOrder = binary.LittleEndian
	if cfg.BigEndian {
		order = binary.BigEndian
	}
	return &Resumer{bus: bus, restorer: r, jumper: j, halter: h, order: order, align: cfg.JumpAlign}
}

// ReadMetadata loads the metadata block at addr.
func (r *Resumer) ReadMetadata(addr uint32) (api.LPMMetadata, error) {
	return api.ParseMetadata(mmio.ReadBlock(r.bus, addr, api.MetadataSize), r.order)
}

// Resume restores the firmware context recorded in the metadata at addr and
// jumps to the stored entry point. It never returns: every failure, and a
// jumper that comes back, ends in the halter.
func (r *Resumer) Resume(addr uint32) {
	md, err := r.ReadMetadata(addr)
	if err != nil {
		halt.Haltf(r.halter, "Failed to read LPM metadata at 0x%08x: %v", addr, err)
	}
	glog.V(1).Infof("handoff: metadata at 0x%08x: %v", addr, md)

	ctx := md.ContextSaveAddress
	if err := r.restorer.RestoreContext(ctx); err != nil {
		halt.Haltf(r.halter, "Failed to restore context from 0x%08x%08x: %v", uint32(ctx>>32), uint32(ctx), err)
	}

	entry := md.JumpAddress
	switch {
	case entry == 0:
		halt.Haltf(r.halter, "Jump address is null")
	case entry > math.MaxUint32:
		halt.Haltf(r.halter, "Jump address 0x%x is out of range", entry)
	case r.align > 1 && entry%uint64(r.align) != 0:
		halt.Haltf(r.halter, "Jump address 0x%08x is not aligned to %d bytes", entry, r.align)
	}

	glog.Infof("Resuming from DDR, jumping to stored DM loadaddr 0x%08x, TIFS context restored from 0x%08x%08x",
		entry, uint32(ctx>>32), uint32(ctx))
	glog.Flush()
	r.jumper.Jump(uint32(entry))
	halt.Haltf(r.halter, "jump to 0x%08x returned", entry)
}
