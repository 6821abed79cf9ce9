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

// Package wake decides whether the current boot is a cold boot or a resume
// from IO+DDR retention.
package wake

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
	"github.com/google/lpm-resume/internal/config"
	"github.com/google/lpm-resume/internal/isolation"
	"github.com/google/lpm-resume/internal/mmio"
)

// Reason is the outcome of wake classification.
type Reason uint8

const (
	// ColdBoot means no resume is in progress.
	ColdBoot Reason = iota
	// ResumeViaIoDdrRetention means the wake-up domain held IO and DDR in
	// retention.
	ResumeViaIoDdrRetention
	// ResumeViaExternalWakeGpio means the companion PMIC recorded a suspend
	// and woke the SoC through its GPIO.
	ResumeViaExternalWakeGpio

	maxReason = ResumeViaExternalWakeGpio
)

func (r Reason) String() string {
	switch r {
	case ColdBoot:
		return "cold-boot"
	case ResumeViaIoDdrRetention:
		return "resume-io-ddr-retention"
	case ResumeViaExternalWakeGpio:
		return "resume-external-wake-gpio"
	}
	return fmt.Sprintf("Reason(%d)", uint8(r))
}

// IsResume reports whether r requires the resume path.
func (r Reason) IsResume() bool {
	return r == ResumeViaIoDdrRetention || r == ResumeViaExternalWakeGpio
}

// Scratchpad is a persistent register written by a companion power
// management chip before suspend.
type Scratchpad interface {
	// ReadScratch returns the current scratch value.
	ReadScratch() (uint32, error)
	// ClearScratch resets the scratch value so it is consumed only once.
	ClearScratch() error
}

// RegisterScratchpad is a Scratchpad mirrored into a memory mapped register.
type RegisterScratchpad struct {
	Bus  mmio.Bus
	Addr uint32
}

// ReadScratch implements Scratchpad.
func (r RegisterScratchpad) ReadScratch() (uint32, error) {
	return r.Bus.Read32(r.Addr), nil
}

// ClearScratch implements Scratchpad.
func (r RegisterScratchpad) ClearScratch() error {
	r.Bus.Write32(r.Addr, 0)
	return nil
}

// Evidence is the snapshot of status registers a decision was based on.
type Evidence struct {
	// IOModeActive is the isolation status bit.
	IOModeActive bool
	// AlreadyReleased is true when the off-mode magic pattern is present.
	AlreadyReleased bool
	// Scratch is the PMIC scratch value, valid only if HaveScratch.
	Scratch     uint32
	HaveScratch bool
}

// Classification is the result of Classify.
type Classification struct {
	Reason   Reason
	Evidence Evidence
	// Cached is set when the reason was loaded from a Slot.
	Cached bool
	// IsolationReleased reports whether the isolation handshake ran.
	IsolationReleased bool
	// IsolationErr holds a recoverable isolation release failure.
	IsolationErr error
}

// Classifier inspects the wake-up domain and the optional PMIC marker.
type Classifier struct {
	iso   *isolation.Sequencer
	pmic  Scratchpad
	magic uint32
}

// NewClassifier returns a Classifier. pmic may be nil when the board has no
// companion marker.
func NewClassifier(iso *isolation.Sequencer, pmic Scratchpad, board config.Board) *Classifier {
	return &Classifier{iso: iso, pmic: pmic, magic: board.PMIC.Magic}
}

// Classify samples the wake evidence and returns the wake reason.
//
// If IO isolation is still asserted without the off-mode magic, Classify
// runs the isolation release handshake before returning; a release timeout
// is reported in Classification.IsolationErr and does not change the reason.
//
// A matching PMIC marker is cleared once read, so only the first call after
// a suspend reports ResumeViaExternalWakeGpio. Callers must keep the first
// result, see ClassifyOnce.
func (c *Classifier) Classify() (Classification, error) {
	var cls Classification
	cls.Evidence.IOModeActive = c.iso.Active()

	if cls.Evidence.IOModeActive {
		cls.Reason = ResumeViaIoDdrRetention
		cls.Evidence.AlreadyReleased = c.iso.AlreadyReleased()
		cls.IsolationReleased, cls.IsolationErr = c.iso.ReleaseIfPending()
		glog.V(1).Infof("wake: %v (evidence %+v)", cls.Reason, cls.Evidence)
		return cls, nil
	}

	if c.pmic == nil {
		return cls, nil
	}
	v, err := c.pmic.ReadScratch()
	if err != nil {
		return cls, fmt.Errorf("failed to read PMIC scratch: %w", err)
	}
	cls.Evidence.Scratch, cls.Evidence.HaveScratch = v, true
	if v != c.magic {
		return cls, nil
	}
	if err := c.pmic.ClearScratch(); err != nil {
		return cls, fmt.Errorf("failed to clear PMIC scratch: %w", err)
	}
	cls.Reason = ResumeViaExternalWakeGpio
	glog.V(1).Infof("wake: %v (evidence %+v)", cls.Reason, cls.Evidence)
	return cls, nil
}

// slotTag marks a valid Slot word. The low byte carries the Reason.
const slotTag = 0x4c504d00

// ErrNoSlot is returned by Slot.Load when the slot holds no classification.
var ErrNoSlot = errors.New("no cached wake classification")

// Slot is a fixed SRAM word used to carry the first classification between
// boot stages before any global state is initialised.
type Slot struct {
	bus  mmio.Bus
	addr uint32
}

// NewSlot returns the slot at addr, or nil if addr is zero.
func NewSlot(bus mmio.Bus, addr uint32) *Slot {
	if addr == 0 {
		return nil
	}
	return &Slot{bus: bus, addr: addr}
}

// Store records r.
func (s *Slot) Store(r Reason) {
	s.bus.Write32(s.addr, slotTag|uint32(r))
}

// Load returns the recorded reason, or ErrNoSlot.
func (s *Slot) Load() (Reason, error) {
	v := s.bus.Read32(s.addr)
	if v&^0xff != slotTag || Reason(v&0xff) > maxReason {
		return ColdBoot, ErrNoSlot
	}
	return Reason(v & 0xff), nil
}

// Clear invalidates the slot.
func (s *Slot) Clear() {
	s.bus.Write32(s.addr, 0)
}

// ClassifyOnce returns the reason cached in slot if there is one, and
// otherwise classifies and caches the result. A nil slot always classifies.
func ClassifyOnce(slot *Slot, c *Classifier) (Classification, error) {
	if slot != nil {
		if r, err := slot.Load(); err == nil {
			return Classification{Reason: r, Cached: true}, nil
		}
	}
	cls, err := c.Classify()
	if err != nil {
		return cls, err
	}
	if slot != nil {
		slot.Store(cls.Reason)
	}
	return cls, nil
}
