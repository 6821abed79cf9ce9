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

// Package resume drives the boot-time resume path from wake classification
// to the jump into the restored firmware.
package resume

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/google/lpm-resume/internal/config"
	"github.com/google/lpm-resume/internal/ddrss"
	"github.com/google/lpm-resume/internal/dtmeta"
	"github.com/google/lpm-resume/internal/halt"
	"github.com/google/lpm-resume/internal/handoff"
	"github.com/google/lpm-resume/internal/isolation"
	"github.com/google/lpm-resume/internal/mmio"
	"github.com/google/lpm-resume/internal/poll"
	"github.com/google/lpm-resume/internal/wake"
)

// Stage is a step of the resume pipeline. Stages only move forward.
type Stage int

const (
	// Start is the stage before classification.
	Start Stage = iota
	Classify
	IsolationRelease
	RetentionExit
	ContextRestore
	Handoff
)

func (s Stage) String() string {
	switch s {
	case Start:
		return "start"
	case Classify:
		return "classify"
	case IsolationRelease:
		return "isolation-release"
	case RetentionExit:
		return "retention-exit"
	case ContextRestore:
		return "context-restore"
	case Handoff:
		return "handoff"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Locator returns the address of the LpmMetadata block.
type Locator func() (uint32, error)

// Pipeline is a single-use resume pipeline.
type Pipeline struct {
	classifier *wake.Classifier
	slot       *wake.Slot
	ddr        *ddrss.Controller
	locate     Locator
	resumer    *handoff.Resumer
	halter     halt.Halter
	stage      Stage
}

// New assembles a pipeline from its parts. slot may be nil.
func New(c *wake.Classifier, slot *wake.Slot, ddr *ddrss.Controller, locate Locator, r *handoff.Resumer, h halt.Halter) *Pipeline {
	return &Pipeline{
		classifier: c,
		slot:       slot,
		ddr:        ddr,
		locate:     locate,
		resumer:    r,
		halter:     h,
	}
}

// Build wires a pipeline for board on bus. The firmware context is restored
// through restorer and the final jump goes through j.
func Build(bus mmio.Bus, clk poll.Clock, board config.Board, restorer handoff.Restorer, j handoff.Jumper, h halt.Halter) *Pipeline {
	var pmic wake.Scratchpad
	if board.PMIC.ScratchAddr != 0 {
		pmic = wake.RegisterScratchpad{Bus: bus, Addr: board.PMIC.ScratchAddr}
	}
	return New(
		wake.NewClassifier(isolation.New(bus, clk, board), pmic, board),
		wake.NewSlot(bus, board.Slot.Addr),
		ddrss.New(bus, clk, board),
		func() (uint32, error) { return dtmeta.Load(bus, board.Metadata) },
		handoff.New(bus, restorer, j, h, board.Metadata),
		h,
	)
}

// Stage returns the last stage entered.
func (p *Pipeline) Stage() Stage {
	return p.stage
}

func (p *Pipeline) enter(s Stage) {
	if s <= p.stage {
		panic(fmt.Sprintf("resume: stage %v entered after %v", s, p.stage))
	}
	p.stage = s
	glog.V(1).Infof("resume: entering %v", s)
}

// classify consumes a classification cached by an earlier boot stage, or
// classifies now.
func (p *Pipeline) classify() wake.Classification {
	if p.slot != nil {
		if r, err := p.slot.Load(); err == nil {
			p.slot.Clear()
			return wake.Classification{Reason: r, Cached: true}
		}
	}
	cls, err := p.classifier.Classify()
	if err != nil {
		glog.Warningf("resume: classification incomplete, treating as %v: %v", cls.Reason, err)
	}
	return cls
}

// Run classifies the boot. On a cold boot it returns wake.ColdBoot and the
// caller continues the normal boot flow. On a resume it does not return:
// control passes to the restored firmware or to the halter.
func (p *Pipeline) Run() wake.Reason {
	p.enter(Classify)
	cls := p.classify()
	glog.Infof("resume: wake reason %v", cls.Reason)
	if !cls.Reason.IsResume() {
		return cls.Reason
	}

	if cls.Reason == wake.ResumeViaIoDdrRetention {
		p.enter(IsolationRelease)
		switch {
		case cls.IsolationErr != nil:
			glog.Warningf("resume: IO isolation release failed, continuing: %v", cls.IsolationErr)
		case cls.IsolationReleased:
			glog.Infof("resume: IO isolation released")
		}
	}

	p.enter(RetentionExit)
	for _, step := range []struct {
		name string
		f    func() error
	}{
		{"self-refresh exit", p.ddr.ExitSelfRefresh},
		{"low power resume", p.ddr.ResumeFromLowPower},
		{"retention deassert", p.ddr.DeassertRetention},
	} {
		if err := step.f(); err != nil {
			halt.Haltf(p.halter, "DDR %s failed: %v", step.name, err)
		}
	}

	p.enter(ContextRestore)
	addr, err := p.locate()
	if err != nil {
		halt.Haltf(p.halter, "Failed to locate LPM metadata: %v", err)
	}

	p.enter(Handoff)
	p.resumer.Resume(addr)
	panic("unreachable: Resume returned")
}
