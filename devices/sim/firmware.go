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
	"github.com/golang/glog"
	"github.com/google/lpm-resume/internal/mmio"
	"github.com/google/lpm-resume/internal/tisci"
)

// installFirmware models system firmware behind the secure proxy.
func (s *SoC) installFirmware() {
	c := s.opts.Board.TISCI
	txData := c.TargetData + uint32(c.TxThread)*tisci.ThreadStride
	rxData := c.TargetData + uint32(c.RxThread)*tisci.ThreadStride
	txStatus := c.RT + uint32(c.TxThread)*tisci.ThreadStride + tisci.RTStatus
	rxStatus := c.RT + uint32(c.RxThread)*tisci.ThreadStride + tisci.RTStatus

	s.Poke(txStatus, 1)
	s.Poke(c.SCFG+uint32(c.RxThread)*tisci.ThreadStride+tisci.SCFGThreadCtrl, mmio.Bit(tisci.SCFGDirection))

	s.OnWrite(txData+tisci.DataEnd, func(_, val uint32) uint32 {
		req, err := tisci.ParseContextRestoreRequest(s.PeekBlock(txData+tisci.DataStart, tisci.MaxMessage))
		if err != nil {
			glog.Warningf("sim: firmware dropped bad request: %v", err)
			return val
		}
		addr := uint64(req.CtxHi)<<32 | uint64(req.CtxLo)
		s.Restores = append(s.Restores, addr)
		glog.V(1).Infof("sim: firmware restore request type=0x%04x seq=%d ctx=0x%x", req.Type, req.Seq, addr)

		if s.opts.Firmware == FirmwareSilent {
			return val
		}
		resp := tisci.Header{Type: req.Type, Host: req.Host, Seq: req.Seq}
		if s.opts.Firmware == FirmwareAck {
			resp.Flags = tisci.FlagAck
		}
		b := make([]byte, tisci.MaxMessage)
		resp.Put(b)
		s.PokeBlock(rxData+tisci.DataStart, b)
		s.Poke(rxStatus, 1)
		return val
	})
	s.OnRead(rxData+tisci.DataEnd, func(stored uint32) uint32 {
		s.Poke(rxStatus, 0)
		return stored
	})
}
