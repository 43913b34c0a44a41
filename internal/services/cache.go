package services

import (
	"log"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TieredCache is a two-level read cache for list queries: a small fast layer
// with a short TTL backed by a larger layer with a longer TTL. A hit that
// lands only in L2 refreshes L1. Both layers are last-write-wins with no
// cross-tier transaction; a bounded staleness window is accepted.
type TieredCache struct {
	l1 *expirable.LRU[string, interface{}]
	l2 *expirable.LRU[string, interface{}]
}

// NewTieredCache sizes both layers and binds each layer's TTL.
func NewTieredCache(l1Size int, l1TTL time.Duration, l2Size int, l2TTL time.Duration) *TieredCache {
	return &TieredCache{
		l1: expirable.NewLRU[string, interface{}](l1Size, nil, l1TTL),
		l2: expirable.NewLRU[string, interface{}](l2Size, nil, l2TTL),
	}
}

// GetOrSet returns the cached value for key, or invokes factory, stores the
// result in both layers and returns it. A factory error is returned without
// caching anything.
func (c *TieredCache) GetOrSet(key string, factory func() (interface{}, error)) (interface{}, error) {
	if val, ok := c.l1.Get(key); ok {
		return val, nil
	}
	if val, ok := c.l2.Get(key); ok {
		c.l1.Add(key, val)
		return val, nil
	}

	val, err := factory()
	if err != nil {
		return nil, err
	}
	c.l1.Add(key, val)
	c.l2.Add(key, val)
	return val, nil
}

// Invalidate drops a single key from both layers.
func (c *TieredCache) Invalidate(key string) {
	c.l1.Remove(key)
	c.l2.Remove(key)
}

// InvalidatePrefix drops every key with the given prefix from both layers.
// Used when the underlying set changes (upload, delete, move).
func (c *TieredCache) InvalidatePrefix(prefix string) {
	removed := 0
	for _, layer := range []*expirable.LRU[string, interface{}]{c.l1, c.l2} {
		for _, key := range layer.Keys() {
			if strings.HasPrefix(key, prefix) {
				layer.Remove(key)
				removed++
			}
		}
	}
	if removed > 0 {
		log.Printf("[CACHE] invalidated %d entries with prefix %s", removed, prefix)
	}
}
