package inventory

import (
	"iter"
	"sync"
)

// Collection is an insertion-ordered set of items keyed by product URL.
// The first item added for a URL wins.
type Collection struct {
	mu    sync.RWMutex
	items []Item
	seen  map[string]struct{}
}

// NewCollection creates an empty collection
func NewCollection() *Collection {
	return &Collection{seen: make(map[string]struct{})}
}

// Add appends item unless an item with the same product URL is present.
// It reports whether the item was added.
func (c *Collection) Add(item Item) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item.ProductURL != "" {
		if _, dup := c.seen[item.ProductURL]; dup {
			return false
		}
		c.seen[item.ProductURL] = struct{}{}
	}
	c.items = append(c.items, item)
	return true
}

// AddAll adds items in order and returns how many were new
func (c *Collection) AddAll(items []Item) int {
	added := 0
	for _, item := range items {
		if c.Add(item) {
			added++
		}
	}
	return added
}

// Contains reports whether an item with productURL is present
func (c *Collection) Contains(productURL string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.seen[productURL]
	return ok
}

// Len returns the number of items
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Items returns a copy of the items in insertion order
func (c *Collection) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Item(nil), c.items...)
}

// All iterates over the items in insertion order
func (c *Collection) All() iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for _, item := range c.Items() {
			if !yield(item) {
				return
			}
		}
	}
}
