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

package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestExampleConfig(t *testing.T) {
	b, err := Load("example_board_config.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := b.Name, "am62x-sk"; got != want {
		t.Errorf("Name = %q, want %q", got, want)
	}
	if got, want := b.PMIC.ScratchAddr, uint32(0x2b1f0030); got != want {
		t.Errorf("PMIC.ScratchAddr = %#x, want %#x", got, want)
	}
	if got, want := b.PollInterval, 10*time.Microsecond; got != want {
		t.Errorf("PollInterval = %v, want %v", got, want)
	}
	// Omitted fields keep their defaults.
	if got, want := b.WakeCtrl.CANUARTWakeStat1, Default().WakeCtrl.CANUARTWakeStat1; got != want {
		t.Errorf("CANUARTWakeStat1 = %#x, want default %#x", got, want)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	b, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Name != Default().Name {
		t.Errorf("Load(\"\") did not return the defaults")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatal("Load expected error, but got none")
	}
}

func TestParseInvalid(t *testing.T) {
	for _, test := range []struct {
		desc    string
		yaml    string
		wantErr string
	}{
		{
			desc:    "zero wake base",
			yaml:    "WakeCtrl:\n  Base: 0\n",
			wantErr: "WakeCtrl.Base",
		}, {
			desc:    "zero ddr base",
			yaml:    "DDRSS:\n  CtlCfgBase: 0\n",
			wantErr: "DDRSS.CtlCfgBase",
		}, {
			desc:    "negative timeout",
			yaml:    "DDRSS:\n  LPTimeout: -1s\n",
			wantErr: "DDRSS.LPTimeout",
		}, {
			desc:    "load enable inside magic",
			yaml:    "Isolation:\n  LoadEnableBit: 1\n",
			wantErr: "LoadEnableBit",
		}, {
			desc:    "unknown op",
			yaml:    "TISCI:\n  Op: guess\n",
			wantErr: "TISCI.Op",
		}, {
			desc:    "restore_context without message type",
			yaml:    "TISCI:\n  Op: restore_context\n",
			wantErr: "TISCI.MsgType",
		}, {
			desc:    "unaligned jump alignment",
			yaml:    "Metadata:\n  JumpAlign: 3\n",
			wantErr: "JumpAlign",
		}, {
			desc:    "negative region index",
			yaml:    "Metadata:\n  RegionIndex: -1\n",
			wantErr: "RegionIndex",
		}, {
			desc:    "garbage",
			yaml:    "WakeCtrl: [",
			wantErr: "yaml",
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			b := Default()
			err := Parse([]byte(test.yaml), &b)
			if err == nil {
				t.Fatal("Parse expected error, but got none")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Parse() = %v, want error containing %q", err, test.wantErr)
			}
		})
	}
}

func TestLoadWritesThrough(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "board-*.yaml")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.WriteString("TISCI:\n  Op: restore_context\n  MsgType: 0x30a\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()

	b, err := Load(f.Name())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.TISCI.Op != RestoreContext || b.TISCI.MsgType != 0x30a {
		t.Errorf("TISCI = %+v, want restore_context/0x30a", b.TISCI)
	}
}

func TestAddr(t *testing.T) {
	w := Default().WakeCtrl
	if got, want := w.Addr(w.DDRPMCtrl), uint32(0x430080d0); got != want {
		t.Errorf("DDR PMCTRL = %#x, want %#x", got, want)
	}
}
