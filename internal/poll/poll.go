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

// Package poll implements bounded busy-wait polling against a monotonic clock.
//
// There is nothing to yield to during early boot, so waiting is done by
// spinning. The deadline arithmetic is delegated to backoff with a constant
// interval and a spinning timer.
package poll

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrTimeout is returned when a condition did not hold before the deadline.
var ErrTimeout = errors.New("timed out")

// errNotReady signals another poll round to backoff.
var errNotReady = errors.New("condition not met")

// Clock is a monotonic time source which can also busy-wait.
type Clock interface {
	backoff.Clock
	// Spin busy-waits for at least d.
	Spin(d time.Duration)
}

// SystemClock is the runtime's monotonic clock.
type SystemClock struct{}

// Now implements backoff.Clock.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Spin implements Clock.
func (SystemClock) Spin(d time.Duration) {
	for start := time.Now(); time.Since(start) < d; {
	}
}

// ManualClock only advances when spun or explicitly advanced.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a clock starting at an arbitrary fixed instant.
func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Unix(0, 0)}
}

// Now implements backoff.Clock.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Spin implements Clock by advancing the clock by d.
func (c *ManualClock) Spin(d time.Duration) {
	c.Advance(d)
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// spinTimer implements backoff.Timer by spinning on a Clock.
type spinTimer struct {
	clk Clock
	c   chan time.Time
}

func (t *spinTimer) Start(d time.Duration) {
	t.clk.Spin(d)
	t.c = make(chan time.Time, 1)
	t.c <- t.clk.Now()
}

func (t *spinTimer) Stop() {}

func (t *spinTimer) C() <-chan time.Time {
	return t.c
}

// Until evaluates cond every interval until it returns true, or until timeout
// has elapsed on clk. The first evaluation happens immediately.
//
// ErrTimeout is returned if cond never held.
func Until(clk Clock, timeout, interval time.Duration, cond func() bool) error {
	if interval <= 0 || interval > timeout {
		interval = timeout
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxInterval = interval
	b.Multiplier = 1
	b.RandomizationFactor = 0
	b.MaxElapsedTime = timeout
	b.Clock = clk
	b.Reset()

	op := func() error {
		if cond() {
			return nil
		}
		return errNotReady
	}
	if err := backoff.RetryNotifyWithTimer(op, b, nil, &spinTimer{clk: clk}); err != nil {
		return fmt.Errorf("after %v: %w", timeout, ErrTimeout)
	}
	return nil
}

// UntilSet waits for the bits in mask to be set in the value returned by read.
func UntilSet(clk Clock, timeout, interval time.Duration, read func() uint32, mask uint32) error {
	return Until(clk, timeout, interval, func() bool { return read()&mask == mask })
}

// UntilClear waits for the bits in mask to be clear in the value returned by read.
func UntilClear(clk Clock, timeout, interval time.Duration, read func() uint32, mask uint32) error {
	return Until(clk, timeout, interval, func() bool { return read()&mask == 0 })
}
