package cache

import (
	"sync"
	"time"
)

// item is a cached value with its expiry
type item struct {
	data      interface{}
	expiresAt time.Time
}

// Cache is a small in-memory TTL cache. Expired entries are dropped lazily
// on read.
type Cache struct {
	items map[string]*item
	mutex sync.RWMutex
}

// New creates an empty cache
func New() *Cache {
	return &Cache{
		items: make(map[string]*item),
	}
}

// Get retrieves a value. An expired entry is removed and reported missing.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	it, exists := c.items[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Now().After(it.expiresAt) {
		c.mutex.Lock()
		delete(c.items, key)
		c.mutex.Unlock()
		return nil, false
	}

	return it.data, true
}

// Set stores a value with a TTL
func (c *Cache) Set(key string, data interface{}, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &item{
		data:      data,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes a value
func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
}

// Clear removes everything
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[string]*item)
}
