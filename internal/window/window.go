// Package window maintains the forward-sliding in-memory buffer of loaded
// items positioned over the full catalog.
package window

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hpx/cull/internal/loader"
	"github.com/hpx/cull/internal/media"
)

// Manager owns the review window: an ordered sequence of loaded items whose
// index 0 is always the next item to review.
//
// Two positions track progress over the catalog. The cursor is the global
// index of the first window item, advanced by the ledger when a front-slot
// decision lands. The scan pointer is the next catalog index that has never
// been requested; it advances on every fill, including past items that were
// skipped as unavailable, so no catalog index is requested twice.
type Manager struct {
	catalog      media.Catalog
	loader       *loader.Loader
	prefetch     int
	lowWater     int
	allowNetwork bool

	items  []*media.Loaded
	cursor int
	scan   int
}

// New creates an empty window manager. Call Initialize before use.
func New(catalog media.Catalog, l *loader.Loader, prefetch, lowWater int, allowNetwork bool) *Manager {
	if prefetch < 1 {
		prefetch = 1
	}
	if lowWater < 0 {
		lowWater = 0
	}
	return &Manager{
		catalog:      catalog,
		loader:       l,
		prefetch:     prefetch,
		lowWater:     lowWater,
		allowNetwork: allowNetwork,
	}
}

// Initialize positions the window at startIndex and performs the first fill.
// startIndex is clamped to [0, catalog size]; at the upper bound the window
// stays empty (session already complete).
func (m *Manager) Initialize(ctx context.Context, startIndex int) error {
	total := m.catalog.Count()
	if startIndex < 0 {
		startIndex = 0
	}
	if startIndex > total {
		startIndex = total
	}

	m.items = nil
	m.cursor = startIndex
	m.scan = startIndex

	if startIndex == total {
		return nil
	}
	return m.fill(ctx)
}

// RefillIfNeeded appends the next batch when fewer than the low-watermark of
// buffered items remain ahead of displayedIndex and the catalog is not
// exhausted. Identifiers already resident are dropped, which absorbs
// out-of-order completions and overlapping refills.
func (m *Manager) RefillIfNeeded(ctx context.Context, displayedIndex int) error {
	if len(m.items)-displayedIndex > m.lowWater {
		return nil
	}
	if m.scan >= m.catalog.Count() {
		return nil
	}
	return m.fill(ctx)
}

// fill requests up to prefetch catalog indices starting at the scan pointer.
// Loads run concurrently; results are appended in catalog order. Failed loads
// (unavailable, timeout, corrupt) leave no window slot and are not retried;
// the scan pointer advances past them regardless.
func (m *Manager) fill(ctx context.Context) error {
	total := m.catalog.Count()
	n := m.prefetch
	if m.scan+n > total {
		n = total - m.scan
	}
	if n <= 0 {
		return nil
	}

	results := make([]*media.Loaded, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.prefetch)

	for i := 0; i < n; i++ {
		idx := m.scan + i
		slot := i
		g.Go(func() error {
			item, err := m.catalog.ItemAt(idx)
			if err != nil {
				return nil // treated as unavailable
			}
			loaded, err := m.loader.Resolve(gctx, item, media.SizeHint{}, m.allowNetwork)
			if err != nil {
				return nil // load failures are local; the slot stays empty
			}
			results[slot] = loaded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	m.scan += n
	for _, ld := range results {
		if ld == nil {
			continue
		}
		if m.contains(ld.Item.ID) {
			continue
		}
		m.items = append(m.items, ld)
	}
	return nil
}

// ConsumeFront removes and returns the item at index 0, or nil when the
// window is empty. It does not advance the cursor; cursor movement is tied
// to recording the decision, not to consuming the slot.
func (m *Manager) ConsumeFront() *media.Loaded {
	if len(m.items) == 0 {
		return nil
	}
	front := m.items[0]
	m.items = m.items[1:]
	return front
}

// RemoveAt removes and returns the item at pos, or nil if pos is out of range.
func (m *Manager) RemoveAt(pos int) *media.Loaded {
	if pos < 0 || pos >= len(m.items) {
		return nil
	}
	it := m.items[pos]
	m.items = append(m.items[:pos], m.items[pos+1:]...)
	return it
}

// InsertAt reinserts an item at pos, clamping pos into [0, len]. Used by undo
// to restore a rejected item to its recorded position. A duplicate identifier
// is a no-op.
func (m *Manager) InsertAt(pos int, it *media.Loaded) {
	if it == nil || m.contains(it.Item.ID) {
		return
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(m.items) {
		pos = len(m.items)
	}
	m.items = append(m.items, nil)
	copy(m.items[pos+1:], m.items[pos:])
	m.items[pos] = it
}

// Front returns the item at index 0 without removing it, or nil.
func (m *Manager) Front() *media.Loaded {
	if len(m.items) == 0 {
		return nil
	}
	return m.items[0]
}

// At returns the item at pos without removing it, or nil.
func (m *Manager) At(pos int) *media.Loaded {
	if pos < 0 || pos >= len(m.items) {
		return nil
	}
	return m.items[pos]
}

// Len returns the number of resident items.
func (m *Manager) Len() int {
	return len(m.items)
}

// Cursor returns the global catalog index of the first window item.
func (m *Manager) Cursor() int {
	return m.cursor
}

// AdvanceCursor moves the cursor forward by one. Called by the ledger when a
// decision at window position 0 is recorded.
func (m *Manager) AdvanceCursor() {
	m.cursor++
}

// CatalogSize returns the total number of items in the backing catalog.
func (m *Manager) CatalogSize() int {
	return m.catalog.Count()
}

// Exhausted reports whether both the window and the unscanned catalog tail
// are empty, the terminal review state.
func (m *Manager) Exhausted() bool {
	return len(m.items) == 0 && m.scan >= m.catalog.Count()
}

func (m *Manager) contains(id string) bool {
	for _, it := range m.items {
		if it.Item.ID == id {
			return true
		}
	}
	return false
}
