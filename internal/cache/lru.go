package cache

import (
	"container/list"
	"sync"
)

// LRU is a thread-safe cache bounded by entry count and by total weight.
type LRU[V any] struct {
	capacity  int
	maxWeight int64
	weigh     func(V) int64

	mu     sync.Mutex
	weight int64
	items  map[string]*list.Element
	order  *list.List
	hits   uint64
	misses uint64
}

type entry[V any] struct {
	key    string
	value  V
	weight int64
}

// New creates a cache holding at most capacity entries whose weights sum to at
// most maxWeight. A nil weigh counts every entry as 1.
func New[V any](capacity int, maxWeight int64, weigh func(V) int64) *LRU[V] {
	if weigh == nil {
		weigh = func(V) int64 { return 1 }
	}
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU[V]{
		capacity:  capacity,
		maxWeight: maxWeight,
		weigh:     weigh,
		items:     make(map[string]*list.Element),
		order:     list.New(),
	}
}

// NewBytes is an LRU of raw bodies weighted by their length.
func NewBytes(capacity int, maxBytes int64) *LRU[[]byte] {
	return New(capacity, maxBytes, func(b []byte) int64 { return int64(len(b)) })
}

func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		c.hits++
		return elem.Value.(*entry[V]).value, true
	}
	c.misses++
	var zero V
	return zero, false
}

// Set adds or replaces key. Values heavier than the whole cache are dropped.
func (c *LRU[V]) Set(key string, value V) {
	w := c.weigh(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if w > c.maxWeight {
		if elem, ok := c.items[key]; ok {
			c.removeElement(elem)
		}
		return
	}

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[V])
		c.weight += w - e.weight
		e.value = value
		e.weight = w
		c.order.MoveToFront(elem)
		c.evict(elem)
		return
	}

	for c.order.Len() >= c.capacity || (c.weight+w > c.maxWeight && c.order.Len() > 0) {
		c.removeElement(c.order.Back())
	}

	elem := c.order.PushFront(&entry[V]{key: key, value: value, weight: w})
	c.items[key] = elem
	c.weight += w
}

func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRU[V]) Weight() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}

// Stats returns hit and miss counts since creation.
func (c *LRU[V]) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// evict trims the oldest entries other than keep until the weight fits again.
func (c *LRU[V]) evict(keep *list.Element) {
	for c.weight > c.maxWeight {
		oldest := c.order.Back()
		if oldest == nil || oldest == keep {
			return
		}
		c.removeElement(oldest)
	}
}

func (c *LRU[V]) removeElement(elem *list.Element) {
	e := elem.Value.(*entry[V])
	c.order.Remove(elem)
	delete(c.items, e.key)
	c.weight -= e.weight
}
