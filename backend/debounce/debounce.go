// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package debounce provides a cancellable timer abstraction, a trailing-edge
// debouncer built on it, and a request sequence used to discard stale
// responses.
package debounce

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the callback
	// already fired or was already stopped.
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock schedules callbacks with time.AfterFunc.
type RealClock struct{}

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// FakeClock is a Clock that only moves when Advance is called. Due callbacks
// run synchronously on the caller's goroutine, in deadline order.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	timers map[int]*fakeTimer
}

type fakeTimer struct {
	clock *FakeClock
	id    int
	when  time.Time
	f     func()
}

// NewFakeClock returns a FakeClock starting at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start, timers: make(map[int]*fakeTimer)}
}

// Now returns the clock's current time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	t := &fakeTimer{clock: c, id: c.nextID, when: c.now.Add(d), f: f}
	c.timers[t.id] = t
	return t
}

// Pending returns the number of scheduled callbacks that have not fired.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Advance moves the clock forward by d and runs every callback that became
// due. Callbacks may schedule new timers; those also run if they fall within
// the new time.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*fakeTimer
		for _, t := range c.timers {
			if !t.when.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			if target.After(c.now) {
				c.now = target
			}
			c.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].when.Equal(due[j].when) {
				return due[i].id < due[j].id
			}
			return due[i].when.Before(due[j].when)
		})
		next := due[0]
		delete(c.timers, next.id)
		if next.when.After(c.now) {
			c.now = next.when
		}
		c.mu.Unlock()

		next.f()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if _, ok := t.clock.timers[t.id]; !ok {
		return false
	}
	delete(t.clock.timers, t.id)
	return true
}

// Debouncer runs the last task handed to Trigger once Delay has passed
// without another Trigger.
type Debouncer struct {
	Clock Clock
	Delay time.Duration

	mu      sync.Mutex
	pending Timer
}

// Trigger cancels any scheduled task and schedules f.
func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Stop()
	}
	clock := d.Clock
	if clock == nil {
		clock = RealClock{}
	}
	d.pending = clock.AfterFunc(d.Delay, f)
}

// Cancel drops the scheduled task, if any. It reports whether a task was
// actually cancelled.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return false
	}
	stopped := d.pending.Stop()
	d.pending = nil
	return stopped
}

// Sequence hands out increasing tickets. Only the most recent ticket is
// current.
type Sequence struct {
	n atomic.Uint64
}

// Next issues a new ticket.
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// Current reports whether ticket is still the latest one issued.
func (s *Sequence) Current(ticket uint64) bool {
	return s.n.Load() == ticket
}

// Invalidate makes every outstanding ticket stale.
func (s *Sequence) Invalidate() {
	s.n.Add(1)
}

// Last returns the most recent ticket value.
func (s *Sequence) Last() uint64 {
	return s.n.Load()
}
