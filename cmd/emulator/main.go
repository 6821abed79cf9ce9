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

// emulator runs the resume path against a simulated AM62x.
//
// The simulated SoC wakes up in the state named by --scenario, and the real
// classifier, sequencers and handoff drive it. On a resume the handoff boots
// the optional WebAssembly next stage in place of the DM firmware.
//
// Usage:
//
//	go run ./cmd/emulator --logtostderr --scenario=ioddr --next_stage_wasm=/tmp/dm.wasm
package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/google/lpm-resume/cmd/emulator/impl"
)

var (
	scenario  = flag.String("scenario", "ioddr", "Wake-up scenario to simulate, one of: "+impl.ScenarioNames())
	boardPath = flag.String("config", "", "Path to a board description YAML overlaying the AM62x defaults")
	wasmPath  = flag.String("next_stage_wasm", "", "Path to a WebAssembly module booted in place of the restored firmware")
	entry     = flag.String("next_stage_entry", "main", "Exported function of the next stage to run")
	realtime  = flag.Bool("realtime", false, "Spin on the host clock rather than simulated time")
)

func main() {
	flag.Parse()

	if err := impl.Main(impl.EmulatorOpts{
		Scenario:       *scenario,
		BoardPath:      *boardPath,
		NextStageWasm:  *wasmPath,
		NextStageEntry: *entry,
		Realtime:       *realtime,
	}); err != nil {
		glog.Exitf("emulator: %v", err)
	}
}
