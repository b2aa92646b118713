package cache

import (
	"fmt"
	"sync"

	"github.com/vgccalc/vgccalc/pkg/core"
)

// Latest stands in for the month in keys of the newest snapshot.
const Latest = "latest"

// SnapshotCache keeps loaded usage snapshots by format, month and rating
// cutoff. Refreshing usage must Reset it.
type SnapshotCache struct {
	mu        sync.RWMutex
	snapshots map[string]core.UsageSnapshot
}

// NewSnapshotCache creates a new SnapshotCache
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{
		snapshots: make(map[string]core.UsageSnapshot),
	}
}

// SnapshotKey builds the cache key for a format, month and rating cutoff.
func SnapshotKey(format, month string, elo int) string {
	return fmt.Sprintf("%s/%s/%d", format, month, elo)
}

// Get retrieves a snapshot by key
func (c *SnapshotCache) Get(key string) (core.UsageSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.snapshots[key]
	return s, ok
}

// Set stores a snapshot by key
func (c *SnapshotCache) Set(key string, s core.UsageSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[key] = s
}

// Delete removes a snapshot by key
func (c *SnapshotCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, key)
}

// Len is the number of cached snapshots.
func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshots)
}

// Reset clears the cache
func (c *SnapshotCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = make(map[string]core.UsageSnapshot)
}
