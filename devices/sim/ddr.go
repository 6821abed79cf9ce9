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

package sim

import (
	"github.com/google/lpm-resume/internal/ddrss"
	"github.com/google/lpm-resume/internal/mmio"
)

func (s *SoC) installDDR() {
	b := s.opts.Board
	base := b.DDRSS.CtlCfgBase

	// Reset values with auto low power entry and exit enabled and LP_STATE
	// parked in self-refresh.
	s.Poke(base+ddrss.Ctl169, 0x0f0f0000|0x4f<<ddrss.Ctl169LPStateShift)
	s.Poke(base+ddrss.PI150, 1<<ddrss.PI150DRAMInitEnBit)
	s.Poke(base+ddrss.Ctl21, 1<<ddrss.Ctl21PhyIndepInitBit)

	var cmdSent, acked bool
	var intReads, lpReads int
	s.OnWrite(base+ddrss.Ctl160, func(_, val uint32) uint32 {
		if val&(1<<ddrss.Ctl160LPCmdEntryBit) != 0 {
			cmdSent = true
		}
		return val
	})
	s.OnRead(base+ddrss.Ctl345, func(stored uint32) uint32 {
		if !cmdSent || acked || s.opts.LPIntAfter < 0 {
			return stored
		}
		intReads++
		if intReads > s.opts.LPIntAfter {
			return stored | 1<<ddrss.Ctl345IntStatusLowPowerBit
		}
		return stored
	})
	s.OnWrite(base+ddrss.Ctl353, func(_, val uint32) uint32 {
		if val&(1<<ddrss.Ctl353IntAckLowPowerBit) != 0 {
			acked = true
		}
		// Acks are write-one-to-clear.
		return 0
	})
	s.OnRead(base+ddrss.Ctl169, func(stored uint32) uint32 {
		if !acked || s.opts.LPIdleAfter < 0 {
			return stored
		}
		lpReads++
		if lpReads > s.opts.LPIdleAfter {
			return stored&^(ddrss.Ctl169LPStateWidth<<ddrss.Ctl169LPStateShift) | ddrss.Ctl169LPStateIdle<<ddrss.Ctl169LPStateShift
		}
		return stored
	})

	pm := b.WakeCtrl.Addr(b.WakeCtrl.DDRPMCtrl)
	s.OnRead(pm, func(stored uint32) uint32 {
		if s.opts.RetentionNeverLatches {
			return stored &^ mmio.Bit(ddrss.PMCtrlDataRetLDBit)
		}
		return stored
	})
}

// RetentionReleased reports whether the DDR retention field and strobe are
// both clear.
func (s *SoC) RetentionReleased() bool {
	b := s.opts.Board
	return s.Peek(b.WakeCtrl.Addr(b.WakeCtrl.DDRPMCtrl))&(mmio.Bit(ddrss.PMCtrlDataRetLDBit)|ddrss.PMCtrlRetentionWidth) == 0
}

// IsolationReleased reports whether the IO isolation controls were cleared.
func (s *SoC) IsolationReleased() bool {
	w := s.opts.Board.WakeCtrl
	iso := s.opts.Board.Isolation
	io0 := s.Peek(w.Addr(w.PMCtrlIO0))
	return io0&(mmio.Bit(iso.IsoCtrlBit)|mmio.Bit(iso.GlobalWUENBit)) == 0 &&
		s.Peek(w.Addr(w.DeepSleepCtrl)) == 0 && s.Peek(w.Addr(w.PMCtrlIOGlb)) == 0
}
