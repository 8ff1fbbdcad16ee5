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

package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestFakeClock(t *testing.T) {
	c := NewFakeClock(time.Unix(0, 0))
	var order []int
	c.AfterFunc(20*time.Millisecond, func() { order = append(order, 2) })
	c.AfterFunc(10*time.Millisecond, func() { order = append(order, 1) })
	stopped := c.AfterFunc(15*time.Millisecond, func() { order = append(order, 99) })
	if !stopped.Stop() {
		t.Fatal("Stop() = false, want true")
	}
	if stopped.Stop() {
		t.Fatal("second Stop() = true, want false")
	}

	c.Advance(5 * time.Millisecond)
	if len(order) != 0 {
		t.Fatalf("fired early: %v", order)
	}
	c.Advance(15 * time.Millisecond)
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order = %v, want [1 2]", order)
	}
	if got, want := c.Now(), time.Unix(0, 0).Add(20*time.Millisecond); !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}

func TestFakeClockNestedSchedule(t *testing.T) {
	c := NewFakeClock(time.Unix(0, 0))
	fired := 0
	c.AfterFunc(10*time.Millisecond, func() {
		fired++
		c.AfterFunc(10*time.Millisecond, func() { fired++ })
	})
	c.Advance(15 * time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	c.Advance(5 * time.Millisecond)
	if fired != 2 {
		t.Fatalf("fired = %d, want 2", fired)
	}
}

func TestDebouncer(t *testing.T) {
	tests := []struct {
		name    string
		steps   []time.Duration // gap before each trigger
		settle  time.Duration
		wantRun []int
	}{
		{"single", []time.Duration{0}, 300 * time.Millisecond, []int{0}},
		{"burst collapses", []time.Duration{0, 100 * time.Millisecond, 100 * time.Millisecond}, 300 * time.Millisecond, []int{2}},
		{"spaced out", []time.Duration{0, 400 * time.Millisecond}, 300 * time.Millisecond, []int{0, 1}},
		{"not yet", []time.Duration{0}, 299 * time.Millisecond, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewFakeClock(time.Unix(0, 0))
			d := &Debouncer{Clock: c, Delay: 300 * time.Millisecond}
			var ran []int
			for i, gap := range tc.steps {
				c.Advance(gap)
				d.Trigger(func() { ran = append(ran, i) })
			}
			c.Advance(tc.settle)
			if len(ran) != len(tc.wantRun) {
				t.Fatalf("ran = %v, want %v", ran, tc.wantRun)
			}
			for i := range ran {
				if ran[i] != tc.wantRun[i] {
					t.Fatalf("ran = %v, want %v", ran, tc.wantRun)
				}
			}
		})
	}
}

func TestDebouncerCancel(t *testing.T) {
	c := NewFakeClock(time.Unix(0, 0))
	d := &Debouncer{Clock: c, Delay: time.Second}
	var n atomic.Int32
	d.Trigger(func() { n.Add(1) })
	if !d.Cancel() {
		t.Fatal("Cancel() = false, want true")
	}
	if d.Cancel() {
		t.Fatal("Cancel() on idle debouncer = true")
	}
	c.Advance(2 * time.Second)
	if n.Load() != 0 {
		t.Fatalf("cancelled task ran %d times", n.Load())
	}
	if c.Pending() != 0 {
		t.Fatalf("Pending() = %d, want 0", c.Pending())
	}
}

func TestSequence(t *testing.T) {
	var s Sequence
	a := s.Next()
	if !s.Current(a) {
		t.Fatal("first ticket not current")
	}
	b := s.Next()
	if s.Current(a) || !s.Current(b) {
		t.Fatalf("after Next: Current(a)=%v Current(b)=%v", s.Current(a), s.Current(b))
	}
	s.Invalidate()
	if s.Current(b) {
		t.Fatal("ticket survived Invalidate")
	}
	if c := s.Next(); c <= b {
		t.Fatalf("tickets not increasing: %d <= %d", c, b)
	}
}
