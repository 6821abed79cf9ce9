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

//go:build tamago && arm

// resume is the bare-metal entry of the AM62x wake-up core, a Cortex-R5F
// (ARMv7-R). It decides whether the SoC is resuming from IO+DDR retention
// and, if so, brings DDR out of retention, restores the system firmware
// context and jumps into the DM firmware recorded before suspend.
package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/google/lpm-resume/internal/config"
	"github.com/google/lpm-resume/internal/halt"
	"github.com/google/lpm-resume/internal/handoff"
	"github.com/google/lpm-resume/internal/mmio"
	"github.com/google/lpm-resume/internal/poll"
	"github.com/google/lpm-resume/internal/resume"
	"github.com/google/lpm-resume/internal/tisci"
)

func init() {
	// There is no filesystem for glog files, stderr reaches the console.
	flag.Set("logtostderr", "true")
}

func main() {
	flag.Parse()

	board := config.Default()
	if err := board.Validate(); err != nil {
		panic(err)
	}

	bus := mmio.Hardware{}
	clk := poll.SystemClock{}

	proxy := tisci.NewSecureProxy(bus, clk, board)
	if err := proxy.Probe(); err != nil {
		glog.Warningf("secure proxy: %v", err)
	}

	p := resume.Build(bus, clk, board, tisci.NewClient(proxy, board.TISCI), handoff.JumperFunc(boot), halt.Panic{})
	r := p.Run()
	glog.Infof("resume: %v, handing back to the cold boot flow", r)
	glog.Flush()
}
