// Package ledger holds the ordered list of assets owned by one session.
//
// Records enter only through Add, which enforces the asset entry rules, so a
// ledger never contains an invalid asset. Removal is positional: the caller
// names the zero-based position it saw and the exact name it expects there.
package ledger

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"aurum/internal/core"
)

type Ledger struct {
	mu    sync.Mutex
	items []core.Asset
}

// New returns a ledger holding a copy of seed, in order.
func New(seed []core.Asset) *Ledger {
	items := make([]core.Asset, len(seed))
	copy(items, seed)
	return &Ledger{items: items}
}

// NewSeeded returns a ledger preloaded with core.SeedAssets.
func NewSeeded() *Ledger {
	return New(core.SeedAssets())
}

// Add appends a to the end of the ledger and returns the new length, so a
// lands at position size-1. Duplicates are accepted.
func (l *Ledger) Add(a core.Asset) (size int, err error) {
	if err := a.Validate(); err != nil {
		return 0, fmt.Errorf("add asset %q: %w", a.Name, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, a)
	return len(l.items), nil
}

// Remove deletes the asset at position if, and only if, its name is exactly
// name (case-sensitive). Any mismatch yields core.ErrNotFound and leaves the
// ledger untouched. The second result is the length after removal.
func (l *Ledger) Remove(position int, name string) (core.Asset, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if position < 0 || position >= len(l.items) {
		return core.Asset{}, len(l.items), fmt.Errorf("remove position %d of %d: %w", position, len(l.items), core.ErrNotFound)
	}
	removed := l.items[position]
	if removed.Name != name {
		return core.Asset{}, len(l.items), fmt.Errorf("remove %q at position %d (found %q): %w", name, position, removed.Name, core.ErrNotFound)
	}

	l.items = slices.Delete(l.items, position, position+1)
	return removed, len(l.items), nil
}

// List returns a snapshot of the ledger in insertion order.
func (l *Ledger) List() []core.Asset {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Asset, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of assets.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Entry pairs an asset with its position in the snapshot it came from.
type Entry struct {
	Position int
	Asset    core.Asset
}

// Search filters snapshot by a case-insensitive substring of name or
// category. Positions refer to snapshot so results can drive Remove.
// An empty query matches everything.
func Search(snapshot []core.Asset, query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Entry, 0, len(snapshot))
	for i, a := range snapshot {
		if q == "" ||
			strings.Contains(strings.ToLower(a.Name), q) ||
			strings.Contains(strings.ToLower(a.Category), q) {
			out = append(out, Entry{Position: i, Asset: a})
		}
	}
	return out
}
