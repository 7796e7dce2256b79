// Package cache stores per-address execution results with category-scoped
// eviction.
package cache

import (
	"sync"
	"time"

	"github.com/dd0wney/cyberdna/pkg/metrics"
	"github.com/dd0wney/cyberdna/pkg/workflow"
)

// Locator resolves coordinates and categories for cached addresses.
// *legend.Legend satisfies it.
type Locator interface {
	CoordinateOrOrigin(addr workflow.Address) workflow.Coordinate
	CategoryOf(addr workflow.Address) (string, bool)
}

// Entry is one cached result
type Entry struct {
	Result     any                 `json:"result"`
	Timestamp  time.Time           `json:"timestamp"`
	Coordinate workflow.Coordinate `json:"coordinates"`
}

// Cache is a mutex-guarded result cache keyed by address. Entries never
// expire; they leave only through EvictCategory, Delete or Reset.
type Cache struct {
	mu      sync.RWMutex
	entries map[workflow.Address]Entry
	locator Locator
	metrics *metrics.Registry
	now     func() time.Time
}

// New creates a cache resolving addresses through locator
func New(locator Locator, reg *metrics.Registry) *Cache {
	return &Cache{
		entries: make(map[workflow.Address]Entry),
		locator: locator,
		metrics: reg,
		now:     time.Now,
	}
}

// SetLocator swaps the locator after a legend rebuild. Existing entries
// keep the coordinate captured when they were stored.
func (c *Cache) SetLocator(locator Locator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locator = locator
}

// Put stores result for addr, replacing any previous entry
func (c *Cache) Put(addr workflow.Address, result any) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	coord := workflow.Origin
	if c.locator != nil {
		coord = c.locator.CoordinateOrOrigin(addr)
	}
	entry := Entry{
		Result:     result,
		Timestamp:  c.now(),
		Coordinate: coord,
	}
	c.entries[addr] = entry
	c.metrics.SetCacheEntries(len(c.entries))
	return entry
}

// Get returns the cached entry for addr. A miss means "recompute".
func (c *Cache) Get(addr workflow.Address) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[addr]
	c.mu.RUnlock()

	c.metrics.RecordCacheLookup(ok)
	return entry, ok
}

// Delete removes a single entry
func (c *Cache) Delete(addr workflow.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[addr]; !ok {
		return false
	}
	delete(c.entries, addr)
	c.metrics.SetCacheEntries(len(c.entries))
	return true
}

// EvictCategory removes every entry whose address the locator maps to
// category. Addresses the locator cannot resolve are kept.
func (c *Cache) EvictCategory(category string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.locator == nil {
		return 0
	}

	removed := 0
	for addr := range c.entries {
		if cat, ok := c.locator.CategoryOf(addr); ok && cat == category {
			delete(c.entries, addr)
			removed++
		}
	}

	c.metrics.RecordCacheEviction(category, removed)
	c.metrics.SetCacheEntries(len(c.entries))
	return removed
}

// Reset drops all entries
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[workflow.Address]Entry)
	c.metrics.SetCacheEntries(0)
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Addresses returns the cached addresses in no particular order
func (c *Cache) Addresses() []workflow.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]workflow.Address, 0, len(c.entries))
	for addr := range c.entries {
		out = append(out, addr)
	}
	return out
}
