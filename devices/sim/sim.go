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

// Package sim models the parts of an AM62x SoC the resume path touches, on
// top of an mmio.Memory register file.
package sim

import (
	"encoding/binary"

	"github.com/golang/glog"
	"github.com/google/lpm-resume/api"
	"github.com/google/lpm-resume/internal/config"
	"github.com/google/lpm-resume/internal/mmio"
)

// Never disables completion of a modelled handshake.
const Never = -1

// Firmware behaviours for the context restore request.
type Firmware int

const (
	// FirmwareAck acknowledges every request.
	FirmwareAck Firmware = iota
	// FirmwareNack answers without the ACK flag.
	FirmwareNack
	// FirmwareSilent never answers.
	FirmwareSilent
)

// Options describes the state the simulated SoC wakes up in.
type Options struct {
	Board config.Board

	// IOMode asserts IO isolation at reset.
	IOMode bool
	// OffModeMagic marks isolation as already released by an earlier stage.
	OffModeMagic bool
	// PMICMarker preloads the PMIC scratch register with the suspend magic.
	PMICMarker bool

	// IsolationDropAfter is the number of status reads after a correct
	// load enable pulse before IO mode drops, or Never.
	IsolationDropAfter int
	// LPIntAfter is the number of interrupt status reads before the low
	// power interrupt fires, or Never.
	LPIntAfter int
	// LPIdleAfter is the number of LP_STATE reads after the ack before the
	// controller reports idle, or Never.
	LPIdleAfter int
	// RetentionNeverLatches makes the retention load strobe read back clear.
	RetentionNeverLatches bool

	// Firmware selects how context restore requests are answered.
	Firmware Firmware

	// RegionBase is the DM reserved memory base published in the device tree.
	RegionBase uint64
	// Metadata is placed at RegionBase plus the configured offset.
	Metadata api.LPMMetadata
}

// DefaultOptions returns a retention resume that completes promptly.
func DefaultOptions() Options {
	b := config.Default()
	b.PMIC.ScratchAddr = PMICScratch
	return Options{
		Board:              b,
		IOMode:             true,
		IsolationDropAfter: 2,
		LPIntAfter:         3,
		LPIdleAfter:        3,
		RegionBase:         0x9db00000,
		Metadata: api.LPMMetadata{
			JumpAddress:        0x9db00000,
			ContextSaveAddress: 0x9e800000,
		},
	}
}

// PMICScratch is where the simulated PMIC scratch register is mirrored.
const PMICScratch = 0x44000100

// SoC is a simulated SoC.
type SoC struct {
	*mmio.Memory
	opts Options

	// Restores records the context addresses firmware was asked to restore.
	Restores []uint64
}

// New returns a SoC in the state described by o.
func New(o Options) *SoC {
	s := &SoC{Memory: mmio.NewMemory(), opts: o}
	s.installWakeCtrl()
	s.installDDR()
	s.installFirmware()
	s.installDRAM()
	glog.V(1).Infof("sim: %+v", o)
	return s
}

// Board returns the board description the SoC was built for.
func (s *SoC) Board() config.Board {
	return s.opts.Board
}

func (s *SoC) installDRAM() {
	b := s.opts.Board
	var order binary.ByteOrder = binary.LittleEndian
	if b.Metadata.BigEndian {
		order = binary.BigEndian
	}
	s.PokeBlock(uint32(s.opts.RegionBase)+b.Metadata.Offset, s.opts.Metadata.Marshal(order))

	blob := EncodeFDT(AM62Tree(s.opts.RegionBase))
	// Pad to whole words.
	s.PokeBlock(b.Metadata.DTBAddr, append(blob, 0, 0, 0))
}
