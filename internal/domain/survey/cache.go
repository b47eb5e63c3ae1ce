package survey

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// TableCache holds loaded tables keyed by source identity. Population runs at
// most once per key at a time; concurrent callers share the in-flight load.
type TableCache struct {
	mu     sync.RWMutex
	tables map[string]*Table
	group  singleflight.Group
}

// NewTableCache constructs an empty cache.
func NewTableCache() *TableCache {
	return &TableCache{tables: make(map[string]*Table)}
}

// Get returns the cached table for key or runs load to populate it.
func (c *TableCache) Get(ctx context.Context, key string, load func(context.Context) (*Table, error)) (*Table, error) {
	if t, ok := c.lookup(key); ok {
		return t, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if t, ok := c.lookup(key); ok {
			return t, nil
		}
		t, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.tables[key] = t
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// Invalidate drops the cached table so the next Get reloads it.
func (c *TableCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.tables, key)
	c.mu.Unlock()
	c.group.Forget(key)
}

// Len reports how many tables are cached.
func (c *TableCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

func (c *TableCache) lookup(key string) (*Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[key]
	return t, ok
}
