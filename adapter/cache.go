package adapter

import (
	"fmt"
	"sync"

	"github.com/hupe1980/contexa/core"
)

// Cache maps agent ids to converted vendor objects. Converters own one each;
// there is no package-level cache and no eviction.
//
// The zero value is ready to use. A Cache must not be copied after first use.
type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// NewCache returns an empty cache.
func NewCache[V any]() *Cache[V] {
	return &Cache[V]{items: make(map[string]V)}
}

// Get returns the value stored for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.items[key]
	return v, ok
}

// Put stores v under key, replacing any previous value.
func (c *Cache[V]) Put(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.items == nil {
		c.items = make(map[string]V)
	}
	c.items[key] = v
}

// GetOrCreate returns the cached value for key or builds, stores and returns
// a new one. create runs under the write lock, so concurrent callers for the
// same key convert once. hit reports whether the value came from the cache.
func (c *Cache[V]) GetOrCreate(key string, create func() (V, error)) (v V, hit bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.items[key]; ok {
		return v, true, nil
	}

	v, err = create()
	if err != nil {
		var zero V
		return zero, false, err
	}

	if c.items == nil {
		c.items = make(map[string]V)
	}
	c.items[key] = v

	return v, false, nil
}

// Delete drops key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// AgentKey is the cache key for a: its ID, or its pointer identity when the
// agent was built without one. Distinct unnamed agents never share a slot.
func AgentKey(a *core.Agent) string {
	if a.ID != "" {
		return a.ID
	}
	return fmt.Sprintf("ptr:%p", a)
}
