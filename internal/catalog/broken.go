package catalog

import (
	"sort"
	"sync"
)

// BrokenSet holds ids hidden after a playback failure. It only grows.
type BrokenSet struct {
	mu      sync.RWMutex
	ids     map[string]struct{}
	version uint64
}

func NewBrokenSet() *BrokenSet {
	return &BrokenSet{ids: make(map[string]struct{})}
}

// Add marks id as broken and reports whether it was newly added.
func (b *BrokenSet) Add(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.ids[id]; ok {
		return false
	}
	b.ids[id] = struct{}{}
	b.version++
	return true
}

func (b *BrokenSet) Has(id string) bool {
	if b == nil {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.ids[id]
	return ok
}

func (b *BrokenSet) Len() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ids)
}

// Version changes on every successful Add.
func (b *BrokenSet) Version() uint64 {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

func (b *BrokenSet) IDs() []string {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.ids))
	for id := range b.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
