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
	"bytes"
	"fmt"

	"github.com/u-root/u-root/pkg/dt"
)

// AM62Tree returns the part of the AM62x device tree that publishes the DM
// core's reserved memory. The second memory-region of the core starts at
// base.
func AM62Tree(base uint64) *dt.Node {
	return dt.NewNode("", dt.WithChildren(
		dt.NewNode("reserved-memory", dt.WithChildren(
			dt.NewNode("r5f-dma-memory@9da00000", dt.WithProperty(
				dt.PropertyRegion("reg", 0x9da00000, 0x100000),
				dt.PropertyU32("phandle", 0x21),
			)),
			dt.NewNode("r5f-memory@9db00000", dt.WithProperty(
				dt.PropertyRegion("reg", base, 0xc00000),
				dt.PropertyU32("phandle", 0x22),
			)),
		)),
		dt.NewNode("bus@f0000", dt.WithChildren(
			dt.NewNode("bus@b00000", dt.WithChildren(
				dt.NewNode("temperature-sensor@b00000", dt.WithProperty(
					dt.PropertyString("compatible", "ti,j7200-vtm"),
				)),
				dt.NewNode("r5f@78000000", dt.WithProperty(
					dt.Property{Name: "compatible", Value: []byte("ti,am62-r5f\x00ti,k3-r5f\x00")},
					dt.PropertyU32Array("memory-region", []uint32{0x21, 0x22}),
				)),
			)),
		)),
	))
}

// EncodeFDT flattens root into a version 17 device tree blob with an empty
// memory reservation map.
func EncodeFDT(root *dt.Node) []byte {
	fdt := &dt.FDT{
		Header: dt.Header{
			Magic:           dt.Magic,
			Version:         17,
			LastCompVersion: 16,
		},
		RootNode: root,
	}
	var b bytes.Buffer
	if _, err := fdt.Write(&b); err != nil {
		panic(fmt.Sprintf("sim: encoding device tree: %v", err))
	}
	return b.Bytes()
}
