package cache

import (
	"context"
	"sync"
)

// MemoryCache is a process-local Cache. Get hands back the stored payload
// slice itself, not a copy.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry)}
}

func (c *MemoryCache) Get(_ context.Context, url string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[url]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (c *MemoryCache) Set(_ context.Context, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.URL] = entry
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, url)
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
