package cache

import (
	"context"
	"strconv"
	"sync"
)

// MemoryCache is an in-process CounterCache for tests and single-node runs.
type MemoryCache struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{values: make(map[string]string)}
}

// Incr increments the key, treating an absent key as zero.
func (c *MemoryCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := strconv.ParseInt(c.values[key], 10, 64)
	if err != nil && c.values[key] != "" {
		return 0, err
	}
	n++
	c.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

// Get reads a key; an absent key is not an error.
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.values[key]
	return val, ok, nil
}

// Set writes the key unconditionally.
func (c *MemoryCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

// SetNX writes only when the key is absent.
func (c *MemoryCache) SetNX(_ context.Context, key, value string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = value
	return true, nil
}
