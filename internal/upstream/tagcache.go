package upstream

import "sync"

// TagCache is a tag-scoped read cache. Every cached response belongs to one
// tag; invalidating the tag drops all of its entries, forcing the next read
// to hit the backend. Entries have no TTL; a mutation is the only thing
// that can make cached portfolio data stale.
type TagCache struct {
	mu   sync.RWMutex
	tags map[string]map[string]*Envelope
}

// NewTagCache creates an empty cache.
func NewTagCache() *TagCache {
	return &TagCache{tags: make(map[string]map[string]*Envelope)}
}

// Get returns the cached envelope for key under tag.
func (c *TagCache) Get(tag, key string) (*Envelope, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entries, ok := c.tags[tag]
	if !ok {
		return nil, false
	}
	env, ok := entries[key]
	return env, ok
}

// Set stores env for key under tag.
func (c *TagCache) Set(tag, key string, env *Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, ok := c.tags[tag]
	if !ok {
		entries = make(map[string]*Envelope)
		c.tags[tag] = entries
	}
	entries[key] = env
}

// Invalidate drops every entry under tag.
func (c *TagCache) Invalidate(tag string) {
	c.mu.Lock()
	delete(c.tags, tag)
	c.mu.Unlock()
}
