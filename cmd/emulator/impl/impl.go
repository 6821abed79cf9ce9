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

// Package impl is the implementation of the resume emulator.
package impl

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/google/lpm-resume/devices/sim"
	"github.com/google/lpm-resume/internal/config"
	"github.com/google/lpm-resume/internal/halt"
	"github.com/google/lpm-resume/internal/handoff"
	"github.com/google/lpm-resume/internal/poll"
	"github.com/google/lpm-resume/internal/resume"
	"github.com/google/lpm-resume/internal/tisci"
	"github.com/google/lpm-resume/internal/wake"
)

// EmulatorOpts encapsulates the parameters for running the emulator.
type EmulatorOpts struct {
	Scenario       string
	BoardPath      string
	NextStageWasm  string
	NextStageEntry string
	Realtime       bool
}

var scenarios = map[string]func(o *sim.Options){
	"cold": func(o *sim.Options) {
		o.IOMode = false
	},
	"ioddr": func(o *sim.Options) {},
	"ioddr-resumed": func(o *sim.Options) {
		o.OffModeMagic = true
	},
	"pmic": func(o *sim.Options) {
		o.IOMode = false
		o.PMICMarker = true
	},
	"iso-timeout": func(o *sim.Options) {
		o.IsolationDropAfter = sim.Never
	},
	"lp-timeout": func(o *sim.Options) {
		o.LPIntAfter = sim.Never
	},
	"idle-timeout": func(o *sim.Options) {
		o.LPIdleAfter = sim.Never
	},
	"retention-timeout": func(o *sim.Options) {
		o.RetentionNeverLatches = true
	},
	"restore-fail": func(o *sim.Options) {
		o.Firmware = sim.FirmwareNack
	},
}

// ScenarioNames lists the known scenarios.
func ScenarioNames() string {
	var n []string
	for k := range scenarios {
		n = append(n, k)
	}
	sort.Strings(n)
	return strings.Join(n, ", ")
}

// Main is the entry point for the emulator. It returns only on a cold boot
// or a setup error; a resume ends the process.
func Main(opts EmulatorOpts) error {
	j := handoff.JumperFunc(func(entry uint32) {
		if err := NextStage(opts, entry)(); err != nil {
			glog.Exitf("next stage: %v", err)
		}
		glog.Flush()
		os.Exit(0)
	})
	h := halt.Func(func(reason string) {
		glog.Exitf("resume: fatal: %s", reason)
	})

	r, err := Run(opts, j, h)
	if err != nil {
		return err
	}
	glog.Infof("%v: continuing normal boot", r)
	return nil
}

// Run builds the simulated SoC for opts.Scenario and runs the resume
// pipeline on it with the given jumper and halter.
func Run(opts EmulatorOpts, j handoff.Jumper, h halt.Halter) (wake.Reason, error) {
	o, err := Options(opts)
	if err != nil {
		return wake.ColdBoot, err
	}
	glog.Info("----RESET----")
	glog.Infof("Simulating %q on %s", opts.Scenario, o.Board.Name)
	soc := sim.New(o)

	var clk poll.Clock = poll.NewManualClock()
	if opts.Realtime {
		clk = poll.SystemClock{}
	}
	proxy := tisci.NewSecureProxy(soc, clk, o.Board)
	if err := proxy.Probe(); err != nil {
		return wake.ColdBoot, fmt.Errorf("secure proxy: %w", err)
	}
	restorer := tisci.NewClient(proxy, o.Board.TISCI)
	return resume.Build(soc, clk, o.Board, restorer, j, h).Run(), nil
}

// Options returns the simulator options for opts.
func Options(opts EmulatorOpts) (sim.Options, error) {
	mod, ok := scenarios[opts.Scenario]
	if !ok {
		return sim.Options{}, fmt.Errorf("unknown scenario %q, want one of: %s", opts.Scenario, ScenarioNames())
	}
	o := sim.DefaultOptions()
	if opts.BoardPath != "" {
		b, err := config.Load(opts.BoardPath)
		if err != nil {
			return sim.Options{}, fmt.Errorf("failed to load board config: %w", err)
		}
		if b.PMIC.ScratchAddr == 0 {
			b.PMIC.ScratchAddr = sim.PMICScratch
		}
		o.Board = b
	}
	mod(&o)
	return o, nil
}
