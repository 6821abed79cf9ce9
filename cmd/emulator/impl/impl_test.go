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

package impl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/lpm-resume/internal/halt"
	"github.com/google/lpm-resume/internal/handoff"
	"github.com/google/lpm-resume/internal/wake"
)

type halted struct{ reason string }

type jumped struct{ entry uint32 }

func runScenario(t *testing.T, opts EmulatorOpts) (r wake.Reason, j *jumped, h *halted, err error) {
	t.Helper()
	defer func() {
		switch v := recover().(type) {
		case nil:
		case jumped:
			j = &v
		case halted:
			h = &v
		default:
			panic(v)
		}
	}()
	r, err = Run(opts,
		handoff.JumperFunc(func(e uint32) { panic(jumped{e}) }),
		halt.Func(func(s string) { panic(halted{s}) }))
	return r, nil, nil, err
}

func TestRunScenarios(t *testing.T) {
	for _, test := range []struct {
		scenario  string
		wantJump  bool
		wantHalt  string
		wantCold  bool
		boardYAML string
	}{
		{scenario: "cold", wantCold: true},
		{scenario: "ioddr", wantJump: true},
		{scenario: "ioddr-resumed", wantJump: true},
		{scenario: "pmic", wantJump: true},
		{scenario: "iso-timeout", wantJump: true},
		{scenario: "restore-fail", wantHalt: "Failed to restore context"},
		{scenario: "ioddr", wantJump: true, boardYAML: "Name: test-board\nPollInterval: 1ms\n"},
	} {
		t.Run(test.scenario, func(t *testing.T) {
			opts := EmulatorOpts{Scenario: test.scenario}
			if test.boardYAML != "" {
				opts.BoardPath = filepath.Join(t.TempDir(), "board.yaml")
				if err := os.WriteFile(opts.BoardPath, []byte(test.boardYAML), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			r, j, h, err := runScenario(t, opts)
			if err != nil {
				t.Fatalf("Run() = %v", err)
			}
			switch {
			case test.wantCold:
				if j != nil || h != nil || r != wake.ColdBoot {
					t.Errorf("Run() = %v (jump %v, halt %v), want %v", r, j, h, wake.ColdBoot)
				}
			case test.wantJump:
				if j == nil || j.entry != 0x9db00000 {
					t.Errorf("Run() jump = %v (halt %v), want jump to 0x9db00000", j, h)
				}
			default:
				if h == nil || !strings.Contains(h.reason, test.wantHalt) {
					t.Errorf("Run() halt = %v (jump %v), want %q", h, j, test.wantHalt)
				}
			}
		})
	}
}

func TestOptionsErrors(t *testing.T) {
	if _, err := Options(EmulatorOpts{Scenario: "bananas"}); err == nil || !strings.Contains(err.Error(), "unknown scenario") {
		t.Errorf("Options(bananas) = %v, want unknown scenario error", err)
	}
	if _, err := Options(EmulatorOpts{Scenario: "cold", BoardPath: "/does/not/exist.yaml"}); err == nil {
		t.Error("Options() with missing board config = nil error")
	}
}

func TestScenarioNamesSorted(t *testing.T) {
	names := strings.Split(ScenarioNames(), ", ")
	if len(names) != len(scenarios) {
		t.Fatalf("ScenarioNames() has %d names, want %d", len(names), len(scenarios))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("ScenarioNames() not sorted: %q before %q", names[i-1], names[i])
		}
	}
}

func TestNextStage(t *testing.T) {
	if err := NextStage(EmulatorOpts{}, 0x9db00000)(); err != nil {
		t.Errorf("NextStage() without module = %v", err)
	}
	if err := NextStage(EmulatorOpts{NextStageWasm: "/does/not/exist.wasm"}, 0x9db00000)(); err == nil {
		t.Error("NextStage() with missing module = nil error")
	}
	bad := filepath.Join(t.TempDir(), "bad.wasm")
	if err := os.WriteFile(bad, []byte("not wasm"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NextStage(EmulatorOpts{NextStageWasm: bad}, 0x9db00000)(); err == nil {
		t.Error("NextStage() with invalid module = nil error")
	}
}
