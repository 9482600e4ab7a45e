// Package statusapi exposes a read-only HTTP view of every managed
// server's state. It is explicitly not part of the supervisor core: the
// core publishes snapshots to a small mutex-guarded cache after each event
// it processes (see supervisor.Supervisor.SetSnapshotPublisher), and this
// package only ever reads that cache, never the core's own
// PerServerState.
package statusapi

import (
	"sync"
	"time"

	"github.com/opswarden/warden/internal/supervisor"
)

// Cache holds the most recent snapshot published by the supervisor actor.
type Cache struct {
	mu        sync.RWMutex
	snapshot  map[string]supervisor.Snapshot
	updatedAt time.Time
}

func NewCache() *Cache {
	return &Cache{snapshot: make(map[string]supervisor.Snapshot)}
}

// Publish replaces the cached snapshot. Intended to be wired in as the
// supervisor's snapshot publisher callback.
func (c *Cache) Publish(snap map[string]supervisor.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = snap
	c.updatedAt = time.Now()
}

// Get returns a copy of the cached snapshot and when it was published.
func (c *Cache) Get() (map[string]supervisor.Snapshot, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]supervisor.Snapshot, len(c.snapshot))
	for k, v := range c.snapshot {
		out[k] = v
	}
	return out, c.updatedAt
}
