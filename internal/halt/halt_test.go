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

package halt

import (
	"strings"
	"testing"
)

func recoverString(t *testing.T, f func()) (msg string) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic, but got none")
		}
		msg, _ = r.(string)
	}()
	f()
	return ""
}

func TestPanic(t *testing.T) {
	msg := recoverString(t, func() { Panic{}.Halt("ddr gone") })
	if msg != "ddr gone" {
		t.Errorf("panic = %q, want %q", msg, "ddr gone")
	}
}

func TestFuncNeverReturns(t *testing.T) {
	var got string
	msg := recoverString(t, func() {
		Func(func(r string) { got = r }).Halt("boom")
	})
	if got != "boom" {
		t.Errorf("Func received %q, want %q", got, "boom")
	}
	if !strings.Contains(msg, "returned") {
		t.Errorf("panic = %q, want mention of returning halter", msg)
	}
}

func TestHaltf(t *testing.T) {
	var got string
	recoverString(t, func() {
		Haltf(Func(func(r string) { got = r }), "reg %#08x", 0x40)
	})
	if got != "reg 0x00000040" {
		t.Errorf("Haltf reason = %q", got)
	}
}
