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

// Package tisci implements the subset of the TI System Control Interface
// needed to hand the secure context back to system firmware on resume.
package tisci

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/golang/glog"
	"github.com/google/lpm-resume/internal/config"
)

const (
	// MsgMinContextRestore asks system firmware to restore its context from
	// DDR.
	MsgMinContextRestore uint16 = 0x0308

	// FlagAckOnProcessed requests a response once the message was handled.
	FlagAckOnProcessed uint32 = 1 << 1
	// FlagAck is set in a response that reports success.
	FlagAck uint32 = 1 << 1

	// HeaderSize is the encoded size of Header.
	HeaderSize = 8
	// ContextRestoreSize is the encoded size of ContextRestoreRequest.
	ContextRestoreSize = HeaderSize + 8
)

var (
	// ErrShortMessage is returned when a message is too small to decode.
	ErrShortMessage = errors.New("tisci: short message")
	// ErrNack is returned when firmware does not acknowledge a request.
	ErrNack = errors.New("tisci: request not acknowledged")
	// ErrSequence is returned when a response does not match the request.
	ErrSequence = errors.New("tisci: response sequence mismatch")
)

// Header is the common TI-SCI message header.
type Header struct {
	Type  uint16
	Host  uint8
	Seq   uint8
	Flags uint32
}

// Put encodes h into the first HeaderSize bytes of b.
func (h Header) Put(b []byte) {
	binary.LittleEndian.PutUint16(b[0:], h.Type)
	b[2] = h.Host
	b[3] = h.Seq
	binary.LittleEndian.PutUint32(b[4:], h.Flags)
}

// ParseHeader decodes the header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrShortMessage, len(b))
	}
	return Header{
		Type:  binary.LittleEndian.Uint16(b[0:]),
		Host:  b[2],
		Seq:   b[3],
		Flags: binary.LittleEndian.Uint32(b[4:]),
	}, nil
}

// ContextRestoreRequest carries the address of the saved firmware context.
type ContextRestoreRequest struct {
	Header
	CtxLo uint32
	CtxHi uint32
}

// Marshal encodes the request.
func (r ContextRestoreRequest) Marshal() []byte {
	b := make([]byte, ContextRestoreSize)
	r.Header.Put(b)
	binary.LittleEndian.PutUint32(b[8:], r.CtxLo)
	binary.LittleEndian.PutUint32(b[12:], r.CtxHi)
	return b
}

// ParseContextRestoreRequest decodes a request, as firmware would.
func ParseContextRestoreRequest(b []byte) (ContextRestoreRequest, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return ContextRestoreRequest{}, err
	}
	if len(b) < ContextRestoreSize {
		return ContextRestoreRequest{}, fmt.Errorf("%w: %d bytes", ErrShortMessage, len(b))
	}
	return ContextRestoreRequest{
		Header: h,
		CtxLo:  binary.LittleEndian.Uint32(b[8:]),
		CtxHi:  binary.LittleEndian.Uint32(b[12:]),
	}, nil
}

// Transport moves whole messages to and from system firmware.
type Transport interface {
	// Send posts a request.
	Send(msg []byte) error
	// Recv waits for the next response.
	Recv() ([]byte, error)
}

// Client issues TI-SCI requests over a Transport.
type Client struct {
	t       Transport
	host    uint8
	msgType uint16
	seq     uint8
}

// NewClient returns a client for the configured context restore ABI.
func NewClient(t Transport, cfg config.TISCI) *Client {
	mt := cfg.MsgType
	if mt == 0 && cfg.Op == config.MinContextRestore {
		mt = MsgMinContextRestore
	}
	return &Client{t: t, host: cfg.Host, msgType: mt}
}

// RestoreContext asks system firmware to restore its context from addr and
// waits for the acknowledgement.
func (c *Client) RestoreContext(addr uint64) error {
	c.seq++
	req := ContextRestoreRequest{
		Header: Header{
			Type:  c.msgType,
			Host:  c.host,
			Seq:   c.seq,
			Flags: FlagAckOnProcessed,
		},
		CtxLo: uint32(addr),
		CtxHi: uint32(addr >> 32),
	}
	glog.V(2).Infof("tisci: type=0x%04x seq=%d ctx=0x%08x%08x", req.Type, req.Seq, req.CtxHi, req.CtxLo)
	if err := c.t.Send(req.Marshal()); err != nil {
		return fmt.Errorf("failed to send message 0x%04x: %w", req.Type, err)
	}
	resp, err := c.t.Recv()
	if err != nil {
		return fmt.Errorf("failed to receive response to 0x%04x: %w", req.Type, err)
	}
	h, err := ParseHeader(resp)
	if err != nil {
		return err
	}
	if h.Seq != req.Seq {
		return fmt.Errorf("%w: got %d, want %d", ErrSequence, h.Seq, req.Seq)
	}
	if h.Flags&FlagAck == 0 {
		return fmt.Errorf("%w: message 0x%04x flags 0x%08x", ErrNack, h.Type, h.Flags)
	}
	return nil
}
