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
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/perlin-network/life/exec"
	wasm_validation "github.com/perlin-network/life/wasm-validation"
)

// Chain represents the next stage in the boot process.
type Chain func() error

// NextStage returns the next stage entered at entry. Without a WebAssembly
// module the next stage only reports where it was entered.
func NextStage(opts EmulatorOpts, entry uint32) Chain {
	return func() error {
		glog.Infof("----NEXT STAGE @ 0x%08x----", entry)
		if opts.NextStageWasm == "" {
			return nil
		}
		input, err := os.ReadFile(opts.NextStageWasm)
		if err != nil {
			return fmt.Errorf("failed to read next stage: %w", err)
		}
		return bootWasm(opts.NextStageEntry, entry, input)
	}
}

// resolver defines the imports available to the next stage.
type resolver struct {
	entry uint32
}

// ResolveFunc defines a set of import functions that may be called within a
// WebAssembly module.
func (r *resolver) ResolveFunc(module, field string) exec.FunctionImport {
	switch module {
	case "env":
		switch field {
		case "__life_log":
			return func(vm *exec.VirtualMachine) int64 {
				ptr := int(uint32(vm.GetCurrentFrame().Locals[0]))
				msgLen := int(uint32(vm.GetCurrentFrame().Locals[1]))
				glog.Infof("[dm] %s", vm.Memory[ptr:ptr+msgLen])
				return 0
			}
		case "print":
			return func(vm *exec.VirtualMachine) int64 {
				ptr := int(uint32(vm.GetCurrentFrame().Locals[0]))
				n := 0
				for vm.Memory[ptr+n] != 0 {
					n++
				}
				glog.Infof("[dm] %s", vm.Memory[ptr:ptr+n])
				return 0
			}
		case "print_i64":
			return func(vm *exec.VirtualMachine) int64 {
				glog.Infof("[dm] %d", vm.GetCurrentFrame().Locals[0])
				return 0
			}
		default:
			panic(fmt.Errorf("unknown field: %s", field))
		}
	default:
		panic(fmt.Errorf("unknown module: %s", module))
	}
}

// ResolveGlobal defines a set of global variables for use within a
// WebAssembly module.
func (r *resolver) ResolveGlobal(module, field string) int64 {
	switch module {
	case "env":
		switch field {
		case "lpm_entry":
			return int64(r.entry)
		default:
			panic(fmt.Errorf("unknown field: %s", field))
		}
	default:
		panic(fmt.Errorf("unknown module: %s", module))
	}
}

// bootWasm runs the function named entryPoint in input, falling back to the
// first function when the export is missing.
func bootWasm(entryPoint string, entry uint32, input []byte) error {
	if err := wasm_validation.ValidateWasm(input); err != nil {
		return err
	}

	vm, err := exec.NewVirtualMachine(input, exec.VMConfig{
		DefaultMemoryPages: 128,
		DefaultTableSize:   65536,
	}, &resolver{entry: entry}, nil)
	if err != nil {
		return err
	}

	entryID, ok := vm.GetFunctionExport(entryPoint)
	if !ok {
		glog.Warningf("Entry function %s not found; starting from 0.", entryPoint)
		entryID = 0
	}

	start := time.Now()
	if vm.Module.Base.Start != nil {
		if _, err := vm.Run(int(vm.Module.Base.Start.Index)); err != nil {
			vm.PrintStackTrace()
			return err
		}
	}
	ret, err := vm.Run(entryID)
	if err != nil {
		vm.PrintStackTrace()
		return err
	}
	glog.Infof("next stage returned %d after %v", ret, time.Since(start))
	return nil
}
