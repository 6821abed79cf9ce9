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

package tisci

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/lpm-resume/internal/config"
	"github.com/google/lpm-resume/internal/mmio"
	"github.com/google/lpm-resume/internal/poll"
)

// Secure proxy register layout.
const (
	ThreadStride = 0x1000

	DataStart = 0x04
	DataEnd   = 0x3c
	// MaxMessage is the largest message a single proxy transfer carries.
	MaxMessage = DataEnd - DataStart + 4

	RTStatus       = 0x00
	RTStatusError  = 31
	RTStatusCount  = 0
	RTStatusCntMsk = 0xff

	SCFGThreadCtrl = 0x1000
	SCFGDirection  = 31
)

var (
	// ErrThread is returned when a proxy thread reports an error or has the
	// wrong direction.
	ErrThread = errors.New("secure proxy thread error")
	// ErrTooLong is returned for messages larger than MaxMessage.
	ErrTooLong = errors.New("message too long for secure proxy")
)

// SecureProxy is a Transport over a pair of K3 secure proxy threads.
type SecureProxy struct {
	bus      mmio.Bus
	clk      poll.Clock
	cfg      config.TISCI
	interval time.Duration
}

// NewSecureProxy returns a SecureProxy using the threads described by board.
func NewSecureProxy(bus mmio.Bus, clk poll.Clock, board config.Board) *SecureProxy {
	return &SecureProxy{bus: bus, clk: clk, cfg: board.TISCI, interval: board.PollInterval}
}

func (p *SecureProxy) data(thread int) uint32 {
	return p.cfg.TargetData + uint32(thread)*ThreadStride
}

func (p *SecureProxy) status(thread int) uint32 {
	return p.cfg.RT + uint32(thread)*ThreadStride + RTStatus
}

// Probe checks the direction of both threads and that neither is in error.
func (p *SecureProxy) Probe() error {
	for _, t := range []struct {
		thread int
		rx     bool
	}{{p.cfg.TxThread, false}, {p.cfg.RxThread, true}} {
		ctrl := p.cfg.SCFG + uint32(t.thread)*ThreadStride + SCFGThreadCtrl
		if mmio.IsSet(p.bus, ctrl, SCFGDirection) != t.rx {
			return fmt.Errorf("%w: thread %d has the wrong direction (ctrl 0x%08x)", ErrThread, t.thread, p.bus.Read32(ctrl))
		}
		if err := p.check(t.thread); err != nil {
			return err
		}
	}
	return nil
}

func (p *SecureProxy) check(thread int) error {
	if mmio.IsSet(p.bus, p.status(thread), RTStatusError) {
		return fmt.Errorf("%w: thread %d status 0x%08x", ErrThread, thread, p.bus.Read32(p.status(thread)))
	}
	return nil
}

func (p *SecureProxy) wait(thread int) error {
	if err := p.check(thread); err != nil {
		return err
	}
	return poll.Until(p.clk, p.cfg.Timeout, p.interval, func() bool {
		return mmio.Field(p.bus, p.status(thread), RTStatusCount, RTStatusCntMsk) != 0
	})
}

// Send implements Transport. The message is padded with zeros up to the
// last data register, whose write completes the transfer.
func (p *SecureProxy) Send(msg []byte) error {
	if len(msg) > MaxMessage {
		return fmt.Errorf("%w: %d bytes", ErrTooLong, len(msg))
	}
	if err := p.wait(p.cfg.TxThread); err != nil {
		return fmt.Errorf("tx thread %d: %w", p.cfg.TxThread, err)
	}
	buf := make([]byte, MaxMessage)
	copy(buf, msg)
	mmio.WriteBlock(p.bus, p.data(p.cfg.TxThread)+DataStart, buf)
	return nil
}

// Recv implements Transport. It always drains the full data window so the
// final register read releases the thread.
func (p *SecureProxy) Recv() ([]byte, error) {
	if err := p.wait(p.cfg.RxThread); err != nil {
		return nil, fmt.Errorf("rx thread %d: %w", p.cfg.RxThread, err)
	}
	return mmio.ReadBlock(p.bus, p.data(p.cfg.RxThread)+DataStart, MaxMessage), nil
}
