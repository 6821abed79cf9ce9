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

// Package ddrss walks the DDR subsystem controller out of self-refresh after
// IO+DDR retention and releases the data retention latch.
//
// The register choreography follows the controller vendor's resume sequence
// and must not be reordered. Every timeout here is fatal to the boot: once
// the DRAM state is ambiguous there is nothing safe left to run.
package ddrss

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/google/lpm-resume/internal/config"
	"github.com/google/lpm-resume/internal/mmio"
	"github.com/google/lpm-resume/internal/poll"
)

// Controller configuration register offsets and fields.
const (
	Ctl20                 = 0x0050
	Ctl20PhyIndepTrainBit = 24

	Ctl21                = 0x0054
	Ctl21PhyIndepInitBit = 8

	Ctl106                     = 0x01a8
	Ctl106PwrupSrefreshExitBit = 16

	Ctl160              = 0x0280
	Ctl160LPCmdShift    = 8
	Ctl160LPCmdWidth    = 0x7f
	Ctl160LPCmdEntryBit = 9

	Ctl169                = 0x02a4
	Ctl169LPStateShift    = 8
	Ctl169LPStateWidth    = 0x7f
	Ctl169LPStateIdle     = 0x40
	Ctl169AutoEntryShift  = 16
	Ctl169AutoExitShift   = 24
	Ctl169AutoEnableWidth = 0xf

	Ctl345                     = 0x0564
	Ctl345IntStatusLowPowerBit = 16

	Ctl353                  = 0x0584
	Ctl353IntAckLowPowerBit = 16

	PI6                      = 0x2018
	PI6DFIPhyMstrStateSelBit = 8

	PI146 = 0x2248

	PI150              = 0x2258
	PI150DRAMInitEnBit = 8

	Phy1820                  = 0x5c70
	Phy1820SetDFIInput2Shift = 16
)

// Always-on DDR16SS power control fields.
const (
	PMCtrlDataRetLDBit   = 31
	PMCtrlRetentionWidth = 0xf
)

var (
	// ErrSequence is returned when a step is requested out of order.
	ErrSequence = errors.New("ddrss: resume step out of order")
	// ErrLowPowerCommand means the low-power interrupt never fired.
	ErrLowPowerCommand = errors.New("ddrss: low power command not acknowledged")
	// ErrLowPowerState means LP_STATE never reported idle.
	ErrLowPowerState = errors.New("ddrss: low power state not reached")
	// ErrRetentionLatch means the retention load strobe never latched.
	ErrRetentionLatch = errors.New("ddrss: retention latch not loaded")
)

// FatalError carries the register evidence of a failed resume step.
type FatalError struct {
	Reg uint32
	Val uint32
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%v: reg 0x%08x = 0x%08x", e.Err, e.Reg, e.Val)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// State is the position of the controller in the resume sequence.
type State int

const (
	// SelfRefresh is the state on entry: DRAM held in self-refresh.
	SelfRefresh State = iota
	// SelfRefreshExited means the exit choreography has been written.
	SelfRefreshExited
	// CommandSent means the low-power entry command has been issued.
	CommandSent
	// Acked means the low-power interrupt fired and was acknowledged.
	Acked
	// Idle means LP_STATE reports the controller idle.
	Idle
	// RetentionReleased means the retention latch has been cleared.
	RetentionReleased
)

func (s State) String() string {
	switch s {
	case SelfRefresh:
		return "self-refresh"
	case SelfRefreshExited:
		return "self-refresh-exited"
	case CommandSent:
		return "command-sent"
	case Acked:
		return "acked"
	case Idle:
		return "idle"
	case RetentionReleased:
		return "retention-released"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// rmw is one read-modify-write of the self-refresh exit sequence. A store
// rmw writes set without reading.
type rmw struct {
	off   uint32
	mask  uint32
	set   uint32
	store bool
}

// selfRefreshExit is the vendor-specified order.
var selfRefreshExit = [...]rmw{
	{off: Ctl169, mask: Ctl169AutoEnableWidth<<Ctl169AutoExitShift | Ctl169AutoEnableWidth<<Ctl169AutoEntryShift},
	{off: Phy1820, set: 1 << 2 << Phy1820SetDFIInput2Shift},
	{off: Ctl106, set: 1 << Ctl106PwrupSrefreshExitBit},
	{off: PI146, store: true},
	{off: PI150, mask: 1 << PI150DRAMInitEnBit},
	{off: PI6, set: 1 << PI6DFIPhyMstrStateSelBit},
	{off: Ctl21, mask: 1 << Ctl21PhyIndepInitBit},
	{off: Ctl20, set: 1 << Ctl20PhyIndepTrainBit},
}

// Controller sequences one DDR subsystem through resume.
type Controller struct {
	bus      mmio.Bus
	clk      poll.Clock
	base     uint32
	pmCtrl   uint32
	lpTO     time.Duration
	retTO    time.Duration
	interval time.Duration
	state    State
}

// New returns a Controller for the DDR subsystem described by board.
func New(bus mmio.Bus, clk poll.Clock, board config.Board) *Controller {
	return &Controller{
		bus:      bus,
		clk:      clk,
		base:     board.DDRSS.CtlCfgBase,
		pmCtrl:   board.WakeCtrl.Addr(board.WakeCtrl.DDRPMCtrl),
		lpTO:     board.DDRSS.LPTimeout,
		retTO:    board.DDRSS.RetentionTimeout,
		interval: board.PollInterval,
		state:    SelfRefresh,
	}
}

// State returns the current position in the resume sequence.
func (c *Controller) State() State {
	return c.state
}

func (c *Controller) advance(from, to State) error {
	if c.state != from {
		return fmt.Errorf("%w: %v requested in state %v", ErrSequence, to, c.state)
	}
	c.state = to
	glog.V(1).Infof("ddrss: %v", to)
	return nil
}

// ExitSelfRefresh writes the self-refresh exit choreography.
func (c *Controller) ExitSelfRefresh() error {
	if c.state != SelfRefresh {
		return fmt.Errorf("%w: self-refresh exit in state %v", ErrSequence, c.state)
	}
	for _, op := range selfRefreshExit {
		if op.store {
			c.bus.Write32(c.base+op.off, op.set)
			continue
		}
		mmio.UpdateBits(c.bus, c.base+op.off, op.mask, op.set)
	}
	return c.advance(SelfRefresh, SelfRefreshExited)
}

// ResumeFromLowPower issues the low-power entry command, acknowledges its
// interrupt and waits for the controller to report idle.
func (c *Controller) ResumeFromLowPower() error {
	if c.state != SelfRefreshExited {
		return fmt.Errorf("%w: low power resume in state %v", ErrSequence, c.state)
	}

	mmio.SetField(c.bus, c.base+Ctl160, Ctl160LPCmdShift, Ctl160LPCmdWidth, 1<<(Ctl160LPCmdEntryBit-Ctl160LPCmdShift))
	if err := c.advance(SelfRefreshExited, CommandSent); err != nil {
		return err
	}

	intStatus := c.base + Ctl345
	if err := poll.UntilSet(c.clk, c.lpTO, c.interval, c.reader(intStatus), 1<<Ctl345IntStatusLowPowerBit); err != nil {
		return c.fatal(intStatus, fmt.Errorf("%w: %v", ErrLowPowerCommand, err))
	}

	mmio.SetBit(c.bus, c.base+Ctl353, Ctl353IntAckLowPowerBit)
	if err := c.advance(CommandSent, Acked); err != nil {
		return err
	}

	lpState := c.base + Ctl169
	idle := func() bool {
		return mmio.Field(c.bus, lpState, Ctl169LPStateShift, Ctl169LPStateWidth) == Ctl169LPStateIdle
	}
	if err := poll.Until(c.clk, c.lpTO, c.interval, idle); err != nil {
		return c.fatal(lpState, fmt.Errorf("%w: %v", ErrLowPowerState, err))
	}
	return c.advance(Acked, Idle)
}

// DeassertRetention clears the data retention field and pulses the load
// strobe of the always-on DDR power control register.
func (c *Controller) DeassertRetention() error {
	if c.state != Idle {
		return fmt.Errorf("%w: retention deassert in state %v", ErrSequence, c.state)
	}

	ld := uint32(1) << PMCtrlDataRetLDBit
	mmio.UpdateBits(c.bus, c.pmCtrl, ld|PMCtrlRetentionWidth, 0)
	mmio.SetBit(c.bus, c.pmCtrl, PMCtrlDataRetLDBit)

	if err := poll.UntilSet(c.clk, c.retTO, c.interval, c.reader(c.pmCtrl), ld); err != nil {
		return c.fatal(c.pmCtrl, fmt.Errorf("%w: %v", ErrRetentionLatch, err))
	}

	mmio.ClearBit(c.bus, c.pmCtrl, PMCtrlDataRetLDBit)
	return c.advance(Idle, RetentionReleased)
}

func (c *Controller) reader(addr uint32) func() uint32 {
	return func() uint32 { return c.bus.Read32(addr) }
}

func (c *Controller) fatal(reg uint32, err error) error {
	return &FatalError{Reg: reg, Val: c.bus.Read32(reg), Err: err}
}
