package embedding

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a bounded LRU of embeddings keyed by the exact input text.
// A nil *Cache is a valid, always-missing cache.
type Cache struct {
	lru *lru.Cache[string, []float32]
}

// NewCache creates a cache holding up to size entries. size <= 0 disables caching.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Get returns a copy of the cached embedding for text.
func (c *Cache) Get(text string) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.lru.Get(text)
	if !ok {
		return nil, false
	}
	return append([]float32(nil), v...), true
}

// Set stores a copy of vec for text, evicting the least recently used entry when full.
func (c *Cache) Set(text string, vec []float32) {
	if c == nil {
		return
	}
	c.lru.Add(text, append([]float32(nil), vec...))
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
