package catalog

import (
	"sync"

	"github.com/samber/lo"
)

// Catalog is the immutable, ordered list of media items.
type Catalog struct {
	items []MediaItem
	byID  map[string]int

	mu   sync.Mutex
	memo *filterMemo
}

type filterMemo struct {
	sel     Selector
	query   string
	broken  *BrokenSet
	version uint64
	result  []MediaItem
}

func New(items []MediaItem) *Catalog {
	c := &Catalog{
		items: make([]MediaItem, len(items)),
		byID:  make(map[string]int, len(items)),
	}
	for i, item := range items {
		c.items[i] = item.clone()
		c.byID[item.ID] = i
	}
	return c
}

func (c *Catalog) Len() int {
	return len(c.items)
}

// Items returns a copy of the full catalog in order.
func (c *Catalog) Items() []MediaItem {
	return lo.Map(c.items, func(item MediaItem, _ int) MediaItem {
		return item.clone()
	})
}

func (c *Catalog) Get(id string) (MediaItem, bool) {
	i, ok := c.byID[id]
	if !ok {
		return MediaItem{}, false
	}
	return c.items[i].clone(), true
}

// Filter returns the visible items for the selector and query in catalog order.
// Ids in broken are always excluded. The last result is reused when the inputs
// and the broken set version are unchanged.
func (c *Catalog) Filter(sel Selector, query string, broken *BrokenSet) []MediaItem {
	version := broken.Version()

	c.mu.Lock()
	defer c.mu.Unlock()

	if m := c.memo; m != nil && m.sel == sel && m.query == query && m.broken == broken && m.version == version {
		return copyItems(m.result)
	}

	result := lo.Filter(c.items, func(item MediaItem, _ int) bool {
		return !broken.Has(item.ID) && Match(item, sel, query)
	})
	c.memo = &filterMemo{
		sel:     sel,
		query:   query,
		broken:  broken,
		version: version,
		result:  result,
	}

	return copyItems(result)
}

func copyItems(items []MediaItem) []MediaItem {
	out := make([]MediaItem, len(items))
	for i, item := range items {
		out[i] = item.clone()
	}
	return out
}
