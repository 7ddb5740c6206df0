package loader

import (
	"container/list"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheBytes bounds the content a loader keeps in memory.
const DefaultCacheBytes = 32 << 20

// Cache memoizes loaded content by key, evicting the least recently used
// entries once the total size exceeds its byte budget. Concurrent loads of
// the same key share one call.
type Cache struct {
	maxBytes int
	size     int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	mu       sync.Mutex
	group    singleflight.Group
}

type cacheEntry struct {
	key   string
	value []byte
}

func NewCache() *Cache {
	return NewCacheSize(DefaultCacheBytes)
}

// NewCacheSize returns a cache holding at most maxBytes of content. A
// non-positive budget disables retention; concurrent loads are still shared.
func NewCacheSize(maxBytes int) *Cache {
	return &Cache{
		maxBytes: maxBytes,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached content for key or calls load once to fill it.
// Failed loads are not cached, and content larger than the budget is
// returned without being kept.
func (c *Cache) Get(key string, load func() ([]byte, error)) ([]byte, error) {
	if b, ok := c.lookup(key); ok {
		return b, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		if b, ok := c.lookup(key); ok {
			return b, nil
		}

		b, err := load()
		if err != nil {
			return nil, err
		}
		c.store(key, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// Len reports the number of entries held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Size reports the bytes held.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *Cache) lookup(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

func (c *Cache) store(key string, b []byte) {
	if c.maxBytes <= 0 || len(b) > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.size -= len(el.Value.(*cacheEntry).value)
		el.Value.(*cacheEntry).value = b
		c.size += len(b)
		c.order.MoveToFront(el)
	} else {
		c.entries[key] = c.order.PushFront(&cacheEntry{key: key, value: b})
		c.size += len(b)
	}

	for c.size > c.maxBytes {
		oldest := c.order.Back()
		e := oldest.Value.(*cacheEntry)
		c.order.Remove(oldest)
		delete(c.entries, e.key)
		c.size -= len(e.value)
	}
}
