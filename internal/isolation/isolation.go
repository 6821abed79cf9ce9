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

// Package isolation releases the IO isolation asserted on the wake-up domain
// before entering IO+DDR retention.
//
// Release is a magic-word handshake with the wake-up control MMR:
//
//  1. program the magic word into the control register
//  2. set the load enable bit
//  3. clear the load enable bit, latching the magic word
//  4. wait for the IO mode status bit to drop
//
// followed by clearing the isolation controls. The sequence cannot be rolled
// back, and nothing else may access the wake-up control MMR while it runs.
package isolation

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/google/lpm-resume/internal/config"
	"github.com/google/lpm-resume/internal/mmio"
	"github.com/google/lpm-resume/internal/poll"
	"github.com/usbarmory/tamago/bits"
)

var (
	// ErrTimeout is returned when IO mode did not drop after the magic word
	// was latched. The IO domain is left isolated, which callers may choose
	// to tolerate.
	ErrTimeout = errors.New("io isolation release timed out")
	// ErrSequence is returned when Release is called more than once.
	ErrSequence = errors.New("io isolation handshake already attempted")
)

// State is the position of the handshake.
type State int

const (
	// Pending means no register has been written yet.
	Pending State = iota
	// MagicProgrammed means the magic word is in the control register.
	MagicProgrammed
	// LoadEnabled means the load enable bit is set.
	LoadEnabled
	// Latched means load enable was cleared, latching the magic word.
	Latched
	// Released means IO mode dropped and the isolation controls are clear.
	Released
	// TimedOut means IO mode never dropped.
	TimedOut
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case MagicProgrammed:
		return "magic-programmed"
	case LoadEnabled:
		return "load-enabled"
	case Latched:
		return "latched"
	case Released:
		return "released"
	case TimedOut:
		return "timed-out"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// step is one control register write of the handshake.
type step struct {
	from, to State
	apply    func(s *Sequencer, reg uint32) uint32
}

// handshake is the only order in which the control register may be written.
var handshake = [...]step{
	{from: Pending, to: MagicProgrammed, apply: (*Sequencer).programMagic},
	{from: MagicProgrammed, to: LoadEnabled, apply: (*Sequencer).setLoadEnable},
	{from: LoadEnabled, to: Latched, apply: (*Sequencer).clearLoadEnable},
}

// Sequencer drives the handshake for one boot attempt.
type Sequencer struct {
	bus      mmio.Bus
	clk      poll.Clock
	cfg      config.Isolation
	interval time.Duration

	ctrl, stat1, offModeStat uint32
	io0, ioGlb, deepSleep    uint32
	state                    State
}

// New returns a Sequencer for the wake-up control MMR described by board.
func New(bus mmio.Bus, clk poll.Clock, board config.Board) *Sequencer {
	w := board.WakeCtrl
	return &Sequencer{
		bus:         bus,
		clk:         clk,
		cfg:         board.Isolation,
		interval:    board.PollInterval,
		ctrl:        w.Addr(w.CANUARTWakeCtrl),
		stat1:       w.Addr(w.CANUARTWakeStat1),
		offModeStat: w.Addr(w.CANUARTWakeOffModeStat),
		io0:         w.Addr(w.PMCtrlIO0),
		ioGlb:       w.Addr(w.PMCtrlIOGlb),
		deepSleep:   w.Addr(w.DeepSleepCtrl),
		state:       Pending,
	}
}

// State returns the current handshake state.
func (s *Sequencer) State() State {
	return s.state
}

// Active reports whether the IO mode status bit shows isolation asserted.
func (s *Sequencer) Active() bool {
	return mmio.IsSet(s.bus, s.stat1, s.cfg.IOModeBit)
}

// AlreadyReleased reports whether the off-mode status register holds the
// magic pattern, meaning the handshake was completed by an earlier stage.
func (s *Sequencer) AlreadyReleased() bool {
	return s.bus.Read32(s.offModeStat) == s.cfg.OffModeMagic
}

// ReleaseIfPending runs Release only if isolation is active and has not been
// released already. It reports whether the handshake ran.
func (s *Sequencer) ReleaseIfPending() (bool, error) {
	if !s.Active() || s.AlreadyReleased() {
		return false, nil
	}
	return true, s.Release()
}

// Release runs the handshake to completion or timeout.
func (s *Sequencer) Release() error {
	if s.state != Pending {
		return fmt.Errorf("%w (state %v)", ErrSequence, s.state)
	}

	reg := s.bus.Read32(s.ctrl)
	for _, st := range handshake {
		if s.state != st.from {
			panic(fmt.Sprintf("isolation: handshake step %v->%v from state %v", st.from, st.to, s.state))
		}
		reg = st.apply(s, reg)
		s.bus.Write32(s.ctrl, reg)
		s.state = st.to
		glog.V(2).Infof("isolation: %v ctrl=0x%08x", s.state, reg)
	}

	ioMode := mmio.Bit(s.cfg.IOModeBit)
	if err := poll.UntilClear(s.clk, s.cfg.Timeout, s.interval, func() uint32 { return s.bus.Read32(s.stat1) }, ioMode); err != nil {
		s.state = TimedOut
		return fmt.Errorf("%w: stat1=0x%08x: %v", ErrTimeout, s.bus.Read32(s.stat1), err)
	}

	s.bus.Write32(s.ctrl, 0)

	io0 := s.bus.Read32(s.io0) & s.cfg.IO0WriteMask
	bits.Clear(&io0, s.cfg.GlobalWUENBit)
	s.bus.Write32(s.io0, io0)

	io0 = s.bus.Read32(s.io0) & s.cfg.IO0WriteMask
	bits.Clear(&io0, s.cfg.IsoCtrlBit)
	s.bus.Write32(s.io0, io0)

	s.bus.Write32(s.deepSleep, 0)
	s.bus.Write32(s.ioGlb, 0)

	s.state = Released
	glog.V(1).Infof("isolation: %v", s.state)
	return nil
}

func (s *Sequencer) programMagic(reg uint32) uint32 {
	return reg | s.cfg.Magic<<s.cfg.MagicShift
}

func (s *Sequencer) setLoadEnable(reg uint32) uint32 {
	bits.Set(&reg, s.cfg.LoadEnableBit)
	return reg
}

func (s *Sequencer) clearLoadEnable(reg uint32) uint32 {
	bits.Clear(&reg, s.cfg.LoadEnableBit)
	return reg
}
