package platform

import (
	"slices"
	"sync"

	"github.com/ekisa-team/synadapt/internal/backend"
	"github.com/ekisa-team/synadapt/internal/metrics"
	"github.com/ekisa-team/synadapt/internal/ur"
)

// Cache maps native platform handles to their canonical Platform.
//
// GetOrCreate is the only way to construct a Platform. Construction queries
// the adapter for the platform backend while the cache lock is held; that is
// the only native call made under it.
type Cache struct {
	mu      sync.Mutex
	items   []*Platform
	metrics *metrics.Metrics
}

// NewCache returns an empty cache.
func NewCache(m *metrics.Metrics) *Cache {
	return &Cache{metrics: m}
}

// GetOrCreate returns the Platform for handle, creating it on behalf of
// adapter if the handle has not been seen before.
func (c *Cache) GetOrCreate(handle ur.PlatformHandle, adapter *backend.Adapter) *Platform {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.items {
		if p.handle == handle {
			c.metrics.CacheLookup(true)
			return p
		}
	}

	p := newPlatform(handle, adapter)
	c.items = append(c.items, p)
	c.metrics.CacheLookup(false)
	return p
}

// All returns the cached platforms in creation order.
func (c *Cache) All() []*Platform {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.items)
}

// Len returns the number of cached platforms.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// Clear drops every cached platform and returns how many there were.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.items)
	c.items = nil
	return n
}
