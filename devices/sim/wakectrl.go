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

import "github.com/google/lpm-resume/internal/mmio"

func (s *SoC) installWakeCtrl() {
	b := s.opts.Board
	w := b.WakeCtrl
	iso := b.Isolation
	ctrl, stat1 := w.Addr(w.CANUARTWakeCtrl), w.Addr(w.CANUARTWakeStat1)

	if s.opts.IOMode {
		s.Poke(stat1, mmio.Bit(iso.IOModeBit))
		s.Poke(w.Addr(w.PMCtrlIO0), 0xff010000|mmio.Bit(iso.IsoCtrlBit)|mmio.Bit(iso.GlobalWUENBit)|0xffff)
		s.Poke(w.Addr(w.PMCtrlIOGlb), 1)
		s.Poke(w.Addr(w.DeepSleepCtrl), 1)
	}
	if s.opts.OffModeMagic {
		s.Poke(w.Addr(w.CANUARTWakeOffModeStat), iso.OffModeMagic)
	}
	if s.opts.PMICMarker && b.PMIC.ScratchAddr != 0 {
		s.Poke(b.PMIC.ScratchAddr, b.PMIC.Magic)
	}
	s.Poke(w.Addr(w.DDRPMCtrl), mmio.GenMask(3, 0))

	le := mmio.Bit(iso.LoadEnableBit)
	magic := iso.Magic << iso.MagicShift
	latched := false
	s.OnWrite(ctrl, func(prev, val uint32) uint32 {
		// The latch loads on the falling edge of load enable with the magic
		// word still in place.
		if prev&le != 0 && val&le == 0 && val&^le == magic {
			latched = true
		}
		return val
	})

	reads := 0
	s.OnRead(stat1, func(stored uint32) uint32 {
		if !latched || s.opts.IsolationDropAfter < 0 {
			return stored
		}
		reads++
		if reads > s.opts.IsolationDropAfter {
			return stored &^ mmio.Bit(iso.IOModeBit)
		}
		return stored
	})
}
