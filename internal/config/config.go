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

// Package config describes the SoC registers, constants and timeouts used by
// the resume path. Defaults describe the AM62x; other boards overlay a YAML
// file on top of them.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// WakeCtrl describes the always-on wake-up control MMR block.
type WakeCtrl struct {
	// Base is the physical base address of the block.
	Base uint32 `yaml:"Base"`
	// CANUARTWakeCtrl is the offset of the magic word control register.
	CANUARTWakeCtrl uint32 `yaml:"CANUARTWakeCtrl"`
	// CANUARTWakeStat1 is the offset of the status register holding IO mode.
	CANUARTWakeStat1 uint32 `yaml:"CANUARTWakeStat1"`
	// CANUARTWakeOffModeStat is the offset of the register holding the
	// "already released" magic pattern.
	CANUARTWakeOffModeStat uint32 `yaml:"CANUARTWakeOffModeStat"`
	// PMCtrlIO0 is the offset of the per-domain IO power control register.
	PMCtrlIO0 uint32 `yaml:"PMCtrlIO0"`
	// PMCtrlIOGlb is the offset of the global IO daisy-chain control register.
	PMCtrlIOGlb uint32 `yaml:"PMCtrlIOGlb"`
	// DeepSleepCtrl is the offset of the deep-sleep control register.
	DeepSleepCtrl uint32 `yaml:"DeepSleepCtrl"`
	// DDRPMCtrl is the offset of the DDR16SS power control register.
	DDRPMCtrl uint32 `yaml:"DDRPMCtrl"`
}

// Isolation holds the constants of the IO isolation magic-word handshake.
type Isolation struct {
	// Magic is written into the control register, shifted by MagicShift.
	Magic      uint32 `yaml:"Magic"`
	MagicShift int    `yaml:"MagicShift"`
	// LoadEnableBit is the bit position of the edge-triggered load enable.
	LoadEnableBit int `yaml:"LoadEnableBit"`
	// IOModeBit is the status bit which reads 1 while IO isolation is active.
	IOModeBit int `yaml:"IOModeBit"`
	// OffModeMagic is the value of the off-mode status register once the
	// handshake has already been completed.
	OffModeMagic uint32 `yaml:"OffModeMagic"`
	// IO0WriteMask selects the writable bits of PMCtrlIO0.
	IO0WriteMask uint32 `yaml:"IO0WriteMask"`
	// IsoCtrlBit and GlobalWUENBit are bit positions in PMCtrlIO0.
	IsoCtrlBit    int `yaml:"IsoCtrlBit"`
	GlobalWUENBit int `yaml:"GlobalWUENBit"`
	// Timeout bounds the wait for IO mode to drop.
	Timeout time.Duration `yaml:"Timeout"`
}

// DDRSS describes the DDR subsystem controller and its retention control.
type DDRSS struct {
	// CtlCfgBase is the base of the controller configuration registers.
	CtlCfgBase uint32 `yaml:"CtlCfgBase"`
	// LPTimeout bounds the low-power command and LP_STATE waits.
	LPTimeout time.Duration `yaml:"LPTimeout"`
	// RetentionTimeout bounds the retention latch wait.
	RetentionTimeout time.Duration `yaml:"RetentionTimeout"`
}

// PMIC describes the optional companion power-management chip marker.
type PMIC struct {
	// ScratchAddr is the MMIO address of the scratch register. Zero disables
	// the check.
	ScratchAddr uint32 `yaml:"ScratchAddr"`
	// Magic is the marker written before suspend.
	Magic uint32 `yaml:"Magic"`
}

// Slot describes the pre-BSS word that carries the wake classification
// between boot stages.
type Slot struct {
	// Addr is the SRAM address of the slot. Zero disables it.
	Addr uint32 `yaml:"Addr"`
}

// Metadata describes where and how LpmMetadata is found.
type Metadata struct {
	// Offset is added to the reserved memory base read from the device tree.
	Offset uint32 `yaml:"Offset"`
	// BigEndian selects the byte order of the 64-bit fields.
	BigEndian bool `yaml:"BigEndian"`
	// BusPath is the device tree path of the bus holding the core node.
	BusPath string `yaml:"BusPath"`
	// Compatible identifies the core node under BusPath.
	Compatible string `yaml:"Compatible"`
	// RegionIndex selects the memory-region phandle to use.
	RegionIndex int `yaml:"RegionIndex"`
	// DTBAddr is where the boot stage device tree blob lives in memory.
	DTBAddr uint32 `yaml:"DTBAddr"`
	// JumpAlign is the required alignment of the stored jump address.
	JumpAlign uint32 `yaml:"JumpAlign"`
}

// ContextRestoreOp selects the firmware ABI variant used to restore context.
type ContextRestoreOp string

const (
	// MinContextRestore selects the min_context_restore operation.
	MinContextRestore ContextRestoreOp = "min_context_restore"
	// RestoreContext selects the restore_context operation.
	RestoreContext ContextRestoreOp = "restore_context"
)

// TISCI describes the secure proxy used to reach system firmware.
type TISCI struct {
	// TargetData, RT and SCFG are the secure proxy region bases.
	TargetData uint32 `yaml:"TargetData"`
	RT         uint32 `yaml:"RT"`
	SCFG       uint32 `yaml:"SCFG"`
	// TxThread and RxThread are the proxy thread numbers.
	TxThread int `yaml:"TxThread"`
	RxThread int `yaml:"RxThread"`
	// Host is the TI-SCI host ID of this core.
	Host uint8 `yaml:"Host"`
	// Op selects the context restore ABI.
	Op ContextRestoreOp `yaml:"Op"`
	// MsgType overrides the message type for Op when non-zero.
	MsgType uint16 `yaml:"MsgType"`
	// Timeout bounds each proxy send and receive.
	Timeout time.Duration `yaml:"Timeout"`
}

// Board is the full description of a target.
type Board struct {
	Name      string    `yaml:"Name"`
	WakeCtrl  WakeCtrl  `yaml:"WakeCtrl"`
	Isolation Isolation `yaml:"Isolation"`
	DDRSS     DDRSS     `yaml:"DDRSS"`
	PMIC      PMIC      `yaml:"PMIC"`
	Slot      Slot      `yaml:"Slot"`
	Metadata  Metadata  `yaml:"Metadata"`
	TISCI     TISCI     `yaml:"TISCI"`
	// PollInterval is the spin period between register polls.
	PollInterval time.Duration `yaml:"PollInterval"`
}

// Default returns the AM62x description.
func Default() Board {
	return Board{
		Name: "am62x",
		WakeCtrl: WakeCtrl{
			Base:                   0x43000000,
			CANUARTWakeCtrl:        0x18300,
			CANUARTWakeStat1:       0x1830c,
			CANUARTWakeOffModeStat: 0x18318,
			PMCtrlIO0:              0x18084,
			PMCtrlIOGlb:            0x1809c,
			DeepSleepCtrl:          0x18160,
			DDRPMCtrl:              0x80d0,
		},
		Isolation: Isolation{
			Magic:         0x555555,
			MagicShift:    1,
			LoadEnableBit: 0,
			IOModeBit:     0,
			OffModeMagic:  0x555555,
			IO0WriteMask:  0x0101ffff,
			IsoCtrlBit:    24,
			GlobalWUENBit: 16,
			Timeout:       10 * time.Millisecond,
		},
		DDRSS: DDRSS{
			CtlCfgBase:       0x0f308000,
			LPTimeout:        5000 * time.Millisecond,
			RetentionTimeout: 5000 * time.Millisecond,
		},
		PMIC: PMIC{
			Magic: 0xba,
		},
		Slot: Slot{
			Addr: 0x43c3fff8,
		},
		Metadata: Metadata{
			Offset:      0x108000,
			BusPath:     "/bus@f0000/bus@b00000",
			Compatible:  "ti,am62-r5f",
			RegionIndex: 1,
			DTBAddr:     0x82000000,
			JumpAlign:   4,
		},
		TISCI: TISCI{
			TargetData: 0x4d000000,
			RT:         0x4a600000,
			SCFG:       0x4a400000,
			TxThread:   1,
			RxThread:   0,
			Host:       35,
			Op:         MinContextRestore,
			Timeout:    1000 * time.Millisecond,
		},
		PollInterval: 10 * time.Microsecond,
	}
}

// Load reads a YAML board description from path and overlays it on Default.
func Load(path string) (Board, error) {
	b := Default()
	if path == "" {
		return b, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Board{}, fmt.Errorf("failed to read board config %q: %w", path, err)
	}
	if err := Parse(raw, &b); err != nil {
		return Board{}, fmt.Errorf("failed to parse board config %q: %w", path, err)
	}
	return b, nil
}

// Parse overlays the YAML document in raw on b and validates the result.
func Parse(raw []byte, b *Board) error {
	if err := yaml.Unmarshal(raw, b); err != nil {
		return err
	}
	return b.Validate()
}

// Validate checks that the description is usable.
func (b Board) Validate() error {
	if b.WakeCtrl.Base == 0 {
		return errors.New("missing field: WakeCtrl.Base")
	}
	if b.DDRSS.CtlCfgBase == 0 {
		return errors.New("missing field: DDRSS.CtlCfgBase")
	}
	if b.Isolation.Magic == 0 {
		return errors.New("missing field: Isolation.Magic")
	}
	if (b.Isolation.Magic<<b.Isolation.MagicShift)&(1<<b.Isolation.LoadEnableBit) != 0 {
		return fmt.Errorf("invalid Isolation.LoadEnableBit %d: overlaps the shifted magic word", b.Isolation.LoadEnableBit)
	}
	for name, d := range map[string]time.Duration{
		"Isolation.Timeout":      b.Isolation.Timeout,
		"DDRSS.LPTimeout":        b.DDRSS.LPTimeout,
		"DDRSS.RetentionTimeout": b.DDRSS.RetentionTimeout,
		"TISCI.Timeout":          b.TISCI.Timeout,
	} {
		if d <= 0 {
			return fmt.Errorf("invalid %s: %v", name, d)
		}
	}
	if b.Metadata.RegionIndex < 0 {
		return fmt.Errorf("invalid Metadata.RegionIndex %d: negative", b.Metadata.RegionIndex)
	}
	if b.Metadata.JumpAlign != 0 && b.Metadata.JumpAlign&(b.Metadata.JumpAlign-1) != 0 {
		return fmt.Errorf("invalid Metadata.JumpAlign %d: not a power of two", b.Metadata.JumpAlign)
	}
	switch b.TISCI.Op {
	case MinContextRestore:
	case RestoreContext:
		if b.TISCI.MsgType == 0 {
			return errors.New("missing field: TISCI.MsgType (required for restore_context)")
		}
	default:
		return fmt.Errorf("unknown TISCI.Op %q", b.TISCI.Op)
	}
	if b.PollInterval <= 0 {
		return fmt.Errorf("invalid PollInterval: %v", b.PollInterval)
	}
	return nil
}

// Addr returns the absolute address of a wake control register offset.
func (w WakeCtrl) Addr(off uint32) uint32 {
	return w.Base + off
}
