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

package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ttbt-io/hoopdash/backend/debounce"
)

// DefaultDelay is the quiet period before a lookup is sent.
const DefaultDelay = 300 * time.Millisecond

// LookupFunc queries the remote source for term. It returns the decoded
// results and the HTTP status. A non-nil error means the request never
// completed.
type LookupFunc[T any] func(ctx context.Context, term string) ([]T, int, error)

// Config configures a Box.
type Config[T any] struct {
	Name   string
	Lookup LookupFunc[T]
	// Label is the text shown for an item, and the text the query becomes
	// after the item is selected.
	Label func(T) string

	Delay time.Duration
	Clock debounce.Clock

	// Context bounds every lookup. Defaults to context.Background().
	Context context.Context

	OnChange func(State[T])
	OnSelect func(T)

	// RestoreOnDismiss reverts the query to the selected item's label when
	// the dropdown is dismissed.
	RestoreOnDismiss bool
	// ClearOnSelect empties the query after a selection instead of showing
	// the label.
	ClearOnSelect bool
}

// State is a snapshot of a Box.
type State[T any] struct {
	Name     string
	Seq      uint64
	Query    string
	Results  []T
	Open     bool
	Loading  bool
	Selected *T
}

// Box is a debounced search-and-select control. It owns the query text, the
// result list, the dropdown flag and the committed selection.
type Box[T any] struct {
	cfg    Config[T]
	ctx    context.Context
	cancel context.CancelFunc

	deb debounce.Debouncer
	seq debounce.Sequence

	mu       sync.Mutex
	query    string
	results  []T
	open     bool
	loading  bool
	selected *T
	closed   bool
}

// NewBox creates a Box.
func NewBox[T any](cfg Config[T]) *Box[T] {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = debounce.RealClock{}
	}
	if cfg.Label == nil {
		cfg.Label = func(v T) string { return fmt.Sprint(v) }
	}
	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Box[T]{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		deb:    debounce.Debouncer{Clock: cfg.Clock, Delay: cfg.Delay},
	}
}

// Name returns the box name.
func (b *Box[T]) Name() string {
	return b.cfg.Name
}

// Input records a keystroke. A blank search term clears the results right
// away and drops any lookup still in flight. Otherwise a lookup is scheduled
// once the input has been quiet for the configured delay.
func (b *Box[T]) Input(q string) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.query = q
	b.open = true
	term := strings.TrimSpace(Parse(q).Term())
	if term == "" {
		b.deb.Cancel()
		b.seq.Invalidate()
		b.results = nil
		b.loading = false
	} else {
		b.deb.Trigger(func() { b.fetch(term) })
	}
	st := b.snapshotLocked()
	b.mu.Unlock()
	b.notify(st)
}

func (b *Box[T]) fetch(term string) {
	b.mu.Lock()
	// The query may have changed since the timer fired.
	if b.closed || strings.TrimSpace(Parse(b.query).Term()) != term {
		b.mu.Unlock()
		return
	}
	ticket := b.seq.Next()
	b.loading = true
	st := b.snapshotLocked()
	b.mu.Unlock()
	b.notify(st)

	results, status, err := b.cfg.Lookup(b.ctx, term)

	b.mu.Lock()
	if b.closed || !b.seq.Current(ticket) {
		b.mu.Unlock()
		return
	}
	b.loading = false
	switch {
	case err != nil:
		log.Printf("[SEARCH] %s: lookup %q failed: %v", b.cfg.Name, term, err)
	case status != http.StatusOK:
		log.Printf("[SEARCH] %s: lookup %q returned status %d", b.cfg.Name, term, status)
	default:
		b.results = results
	}
	st = b.snapshotLocked()
	b.mu.Unlock()
	b.notify(st)
}

// Focus opens the dropdown.
func (b *Box[T]) Focus() {
	b.mu.Lock()
	b.open = true
	st := b.snapshotLocked()
	b.mu.Unlock()
	b.notify(st)
}

// Dismiss closes the dropdown. The committed selection is never cleared.
func (b *Box[T]) Dismiss() {
	b.mu.Lock()
	b.open = false
	if b.cfg.RestoreOnDismiss {
		b.query = ""
		if b.selected != nil {
			b.query = b.cfg.Label(*b.selected)
		}
	}
	st := b.snapshotLocked()
	b.mu.Unlock()
	b.notify(st)
}

// ErrResultsChanged is returned by SelectMatch when the i-th result is no
// longer the item the caller saw.
var ErrResultsChanged = errors.New("search: results changed")

// Select commits the i-th result.
func (b *Box[T]) Select(i int) (T, error) {
	return b.SelectMatch(i, nil)
}

// SelectMatch commits the i-th result if match accepts it. A nil match
// accepts any item.
func (b *Box[T]) SelectMatch(i int, match func(T) bool) (T, error) {
	var zero T
	b.mu.Lock()
	if i < 0 || i >= len(b.results) {
		n := len(b.results)
		b.mu.Unlock()
		return zero, fmt.Errorf("search %s: index %d out of range [0,%d)", b.cfg.Name, i, n)
	}
	item := b.results[i]
	if match != nil && !match(item) {
		b.mu.Unlock()
		return zero, fmt.Errorf("search %s: index %d: %w", b.cfg.Name, i, ErrResultsChanged)
	}
	b.commitLocked(item)
	b.deb.Cancel()
	b.seq.Invalidate()
	b.loading = false
	st := b.snapshotLocked()
	b.mu.Unlock()

	if b.cfg.OnSelect != nil {
		b.cfg.OnSelect(item)
	}
	b.notify(st)
	return item, nil
}

// Preset sets the selection without calling OnSelect, e.g. when restoring a
// previously saved choice.
func (b *Box[T]) Preset(item T) {
	b.mu.Lock()
	b.commitLocked(item)
	b.mu.Unlock()
}

func (b *Box[T]) commitLocked(item T) {
	b.selected = &item
	b.open = false
	if b.cfg.ClearOnSelect {
		b.query = ""
	} else {
		b.query = b.cfg.Label(item)
	}
}

// Filters returns the key:value filters typed into the query.
func (b *Box[T]) Filters() []Filter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Parse(b.query).Filters
}

// State returns a snapshot.
func (b *Box[T]) State() State[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Close cancels any pending or in-flight lookup. A closed box ignores input.
func (b *Box[T]) Close() {
	b.mu.Lock()
	b.closed = true
	b.deb.Cancel()
	b.seq.Invalidate()
	b.mu.Unlock()
	b.cancel()
}

func (b *Box[T]) snapshotLocked() State[T] {
	st := State[T]{
		Name:    b.cfg.Name,
		Seq:     b.seq.Last(),
		Query:   b.query,
		Open:    b.open,
		Loading: b.loading,
	}
	if len(b.results) > 0 {
		st.Results = append([]T(nil), b.results...)
	}
	if b.selected != nil {
		sel := *b.selected
		st.Selected = &sel
	}
	return st
}

func (b *Box[T]) notify(st State[T]) {
	if b.cfg.OnChange != nil {
		b.cfg.OnChange(st)
	}
}
