package service

import (
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache holds computed balance results keyed by (kind, groupID,
// ledgerVersion). Because the ledger version is part of the key, an entry can
// never be served for a ledger state newer than the one it was computed from;
// explicit invalidation on settlement commit just reclaims the memory early.
type Cache struct {
	entries *gocache.Cache
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{entries: gocache.New(ttl, 2*ttl)}
}

func cacheKey(kind, groupID string, version int64) string {
	return fmt.Sprintf("%s:%s:%d", kind, groupID, version)
}

// Get returns the cached value for the exact (kind, group, version) triple.
// A nil Cache never hits.
func (c *Cache) Get(kind, groupID string, version int64) (any, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(cacheKey(kind, groupID, version))
}

// Set stores a computed value for the triple.
func (c *Cache) Set(kind, groupID string, version int64, value any) {
	if c == nil {
		return
	}
	c.entries.SetDefault(cacheKey(kind, groupID, version), value)
}

// InvalidateGroup drops every cached entry for the group, all kinds and
// versions. Called after a ledger write is durable.
func (c *Cache) InvalidateGroup(groupID string) {
	if c == nil {
		return
	}
	for key := range c.entries.Items() {
		parts := strings.SplitN(key, ":", 3)
		if len(parts) == 3 && parts[1] == groupID {
			c.entries.Delete(key)
		}
	}
}
