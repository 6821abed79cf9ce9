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

// Package dtmeta finds the LpmMetadata address through the device tree
// handed over by the previous boot stage.
package dtmeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/golang/glog"
	"github.com/google/lpm-resume/internal/config"
	"github.com/google/lpm-resume/internal/mmio"
	"github.com/u-root/u-root/pkg/dt"
)

// maxBlob bounds the size read from an untrusted header.
const maxBlob = 1 << 20

var (
	// ErrNotFound is returned when a node or property in the lookup chain is
	// missing.
	ErrNotFound = errors.New("dtmeta: not found")
	// ErrRange is returned when the metadata address does not fit in 32 bits.
	ErrRange = errors.New("dtmeta: address out of range")
	// ErrBlob is returned for a malformed device tree blob header.
	ErrBlob = errors.New("dtmeta: bad device tree blob")
)

// ReadBlob copies the flattened device tree at addr, sized by its header.
func ReadBlob(bus mmio.Bus, addr uint32) ([]byte, error) {
	hdr := mmio.ReadBlock(bus, addr, 8)
	if m := binary.BigEndian.Uint32(hdr); m != dt.Magic {
		return nil, fmt.Errorf("%w: magic 0x%08x at 0x%08x", ErrBlob, m, addr)
	}
	size := binary.BigEndian.Uint32(hdr[4:])
	if size < 8 || size > maxBlob {
		return nil, fmt.Errorf("%w: totalsize %d", ErrBlob, size)
	}
	return mmio.ReadBlock(bus, addr, int(size)), nil
}

// Load reads the device tree at the configured address and returns the
// metadata address it describes.
func Load(bus mmio.Bus, cfg config.Metadata) (uint32, error) {
	blob, err := ReadBlob(bus, cfg.DTBAddr)
	if err != nil {
		return 0, err
	}
	fdt, err := dt.ReadFDT(bytes.NewReader(blob))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBlob, err)
	}
	return Locate(fdt.RootNode, cfg)
}

// Locate walks from root to the core node named by cfg, follows its
// memory-region reference and returns the region base plus cfg.Offset.
func Locate(root *dt.Node, cfg config.Metadata) (uint32, error) {
	bus, err := walk(root, cfg.BusPath)
	if err != nil {
		return 0, err
	}
	i, ok := bus.FindFirstMatchingChildIndex(func(n *dt.Node) bool {
		return compatible(n, cfg.Compatible)
	})
	if !ok {
		return 0, fmt.Errorf("%w: no %q node under %s", ErrNotFound, cfg.Compatible, cfg.BusPath)
	}
	core := bus.Children[i]

	ph, err := phandleAt(core, "memory-region", cfg.RegionIndex)
	if err != nil {
		return 0, err
	}
	region, ok := root.Find(func(n *dt.Node) bool {
		for _, name := range []string{"phandle", "linux,phandle"} {
			if p, ok := n.LookProperty(name); ok {
				if v, err := p.AsPHandle(); err == nil && v == ph {
					return true
				}
			}
		}
		return false
	})
	if !ok {
		return 0, fmt.Errorf("%w: phandle %d", ErrNotFound, ph)
	}

	base, err := regBase(region)
	if err != nil {
		return 0, err
	}
	if base > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %s base 0x%x", ErrRange, region.Name, base)
	}
	addr := base + uint64(cfg.Offset)
	if addr > math.MaxUint32 {
		return 0, fmt.Errorf("%w: metadata at 0x%x", ErrRange, addr)
	}
	glog.V(1).Infof("dtmeta: %s -> %s base 0x%08x, metadata at 0x%08x", core.Name, region.Name, base, addr)
	return uint32(addr), nil
}

func walk(root *dt.Node, path string) (*dt.Node, error) {
	n := root
	for _, name := range strings.Split(strings.Trim(path, "/"), "/") {
		if name == "" {
			continue
		}
		next, ok := n.LookupChildByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s (at %q)", ErrNotFound, path, name)
		}
		n = next
	}
	return n, nil
}

// compatible matches want against each entry of the node's compatible list.
// Property.AsStringList is not used: in this dt release it indexes past the
// final terminator.
func compatible(n *dt.Node, want string) bool {
	p, ok := n.LookProperty("compatible")
	if !ok {
		return false
	}
	v, err := p.AsPropEncodedArray()
	if err != nil {
		return false
	}
	for _, c := range strings.Split(strings.TrimRight(string(v), "\x00"), "\x00") {
		if c == want {
			return true
		}
	}
	return false
}

// phandleAt returns the idx'th cell of a phandle list property.
func phandleAt(n *dt.Node, name string, idx int) (dt.PHandle, error) {
	p, ok := n.LookProperty(name)
	if !ok || idx < 0 || len(p.Value) < 4*(idx+1) {
		return 0, fmt.Errorf("%w: %s has no %s %d", ErrNotFound, n.Name, name, idx)
	}
	cell := dt.Property{Name: name, Value: p.Value[4*idx : 4*idx+4]}
	return cell.AsPHandle()
}

// regBase returns the start of the first reg entry, for one or two address
// cells.
func regBase(n *dt.Node) (uint64, error) {
	p, ok := n.LookProperty("reg")
	if !ok {
		return 0, fmt.Errorf("%w: %s has no reg", ErrNotFound, n.Name)
	}
	if r, err := p.AsRegion(); err == nil {
		return r.Start, nil
	}
	if v, err := p.AsU64(); err == nil {
		return v, nil
	}
	if v, err := p.AsU32(); err == nil {
		return uint64(v), nil
	}
	return 0, fmt.Errorf("%w: %s reg is %d bytes", ErrNotFound, n.Name, len(p.Value))
}
