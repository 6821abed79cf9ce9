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

//go:generate mockgen -write_package_comment=false -self_package github.com/google/lpm-resume/internal/tisci -package tisci -destination mock_transport_test.go github.com/google/lpm-resume/internal/tisci Transport

package tisci

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/lpm-resume/internal/config"
)

func response(seq uint8, flags uint32) []byte {
	b := make([]byte, HeaderSize)
	Header{Type: MsgMinContextRestore, Host: 35, Seq: seq, Flags: flags}.Put(b)
	return b
}

func TestContextRestoreRequestMarshal(t *testing.T) {
	req := ContextRestoreRequest{
		Header: Header{Type: 0x0308, Host: 35, Seq: 7, Flags: FlagAckOnProcessed},
		CtxLo:  0x89abcdef,
		CtxHi:  0x00000001,
	}
	want := []byte{
		0x08, 0x03, 35, 7, 0x02, 0, 0, 0,
		0xef, 0xcd, 0xab, 0x89, 0x01, 0, 0, 0,
	}
	got := req.Marshal()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Marshal (-want +got):\n%s", diff)
	}
	back, err := ParseContextRestoreRequest(got)
	if err != nil {
		t.Fatalf("ParseContextRestoreRequest() = %v", err)
	}
	if back != req {
		t.Errorf("ParseContextRestoreRequest() = %+v, want %+v", back, req)
	}
}

func TestParseShort(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 7)); !errors.Is(err, ErrShortMessage) {
		t.Errorf("ParseHeader(7 bytes) = %v, want %v", err, ErrShortMessage)
	}
	if _, err := ParseContextRestoreRequest(make([]byte, 12)); !errors.Is(err, ErrShortMessage) {
		t.Errorf("ParseContextRestoreRequest(12 bytes) = %v, want %v", err, ErrShortMessage)
	}
}

func TestRestoreContext(t *testing.T) {
	for _, test := range []struct {
		desc    string
		cfg     config.TISCI
		resp    []byte
		recvErr error
		wantReq ContextRestoreRequest
		wantErr error
	}{
		{
			desc: "acked",
			cfg:  config.TISCI{Host: 35, Op: config.MinContextRestore},
			resp: response(1, FlagAck),
			wantReq: ContextRestoreRequest{
				Header: Header{Type: MsgMinContextRestore, Host: 35, Seq: 1, Flags: FlagAckOnProcessed},
				CtxLo:  0x9e800000,
				CtxHi:  0x1,
			},
		}, {
			desc: "restore_context uses configured type",
			cfg:  config.TISCI{Host: 12, Op: config.RestoreContext, MsgType: 0x030a},
			resp: response(1, FlagAck),
			wantReq: ContextRestoreRequest{
				Header: Header{Type: 0x030a, Host: 12, Seq: 1, Flags: FlagAckOnProcessed},
				CtxLo:  0x9e800000,
				CtxHi:  0x1,
			},
		}, {
			desc:    "nack",
			cfg:     config.TISCI{Host: 35, Op: config.MinContextRestore},
			resp:    response(1, 0),
			wantErr: ErrNack,
		}, {
			desc:    "sequence mismatch",
			cfg:     config.TISCI{Host: 35, Op: config.MinContextRestore},
			resp:    response(9, FlagAck),
			wantErr: ErrSequence,
		}, {
			desc:    "short response",
			cfg:     config.TISCI{Host: 35, Op: config.MinContextRestore},
			resp:    []byte{1, 2, 3},
			wantErr: ErrShortMessage,
		}, {
			desc:    "transport failure",
			cfg:     config.TISCI{Host: 35, Op: config.MinContextRestore},
			recvErr: ErrThread,
			wantErr: ErrThread,
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			tr := NewMockTransport(ctrl)

			var sent []byte
			tr.EXPECT().Send(gomock.Any()).DoAndReturn(func(b []byte) error {
				sent = b
				return nil
			})
			tr.EXPECT().Recv().Return(test.resp, test.recvErr)

			err := NewClient(tr, test.cfg).RestoreContext(0x1_9e800000)
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("RestoreContext() = %v, want %v", err, test.wantErr)
			}
			if test.wantErr != nil {
				return
			}
			got, err := ParseContextRestoreRequest(sent)
			if err != nil {
				t.Fatalf("sent message: %v", err)
			}
			if diff := cmp.Diff(test.wantReq, got); diff != "" {
				t.Errorf("sent request (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRestoreContextSendFailureSkipsRecv(t *testing.T) {
	ctrl := gomock.NewController(t)
	tr := NewMockTransport(ctrl)
	tr.EXPECT().Send(gomock.Any()).Return(ErrTooLong)

	err := NewClient(tr, config.TISCI{Op: config.MinContextRestore}).RestoreContext(0x80000000)
	if !errors.Is(err, ErrTooLong) {
		t.Errorf("RestoreContext() = %v, want %v", err, ErrTooLong)
	}
}
