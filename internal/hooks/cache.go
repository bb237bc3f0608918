// ABOUTME: Memoises discovery results per hook type and directory set
// ABOUTME: No TTL; callers invalidate after changing anything under the hook dirs

package hooks

import (
	"context"
	"strings"
	"sync"
)

// DiscoveryCache wraps a Discovery with a result cache.
type DiscoveryCache struct {
	discovery *Discovery

	mu      sync.Mutex
	entries map[string][]HookFileRef
	gen     uint64
}

// NewDiscoveryCache creates an empty cache over d.
func NewDiscoveryCache(d *Discovery) *DiscoveryCache {
	return &DiscoveryCache{
		discovery: d,
		entries:   make(map[string][]HookFileRef),
	}
}

// Discovery returns the wrapped Discovery.
func (c *DiscoveryCache) Discovery() *Discovery { return c.discovery }

// Find returns the enabled hook files for t, discovering on a miss.
// The key includes the directory set, so a change in workspace roots is
// a miss rather than a stale hit.
func (c *DiscoveryCache) Find(ctx context.Context, t HookType) ([]HookFileRef, error) {
	locs, err := c.discovery.Locations(ctx)
	if err != nil {
		return nil, err
	}
	key := cacheKey(t, locs)

	c.mu.Lock()
	if refs, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return cloneRefs(refs), nil
	}
	gen := c.gen
	c.mu.Unlock()

	refs := c.discovery.discoverIn(locs, t)

	c.mu.Lock()
	// An invalidation during the scan means refs may predate it.
	if c.gen == gen {
		c.entries[key] = refs
	}
	c.mu.Unlock()

	return cloneRefs(refs), nil
}

// InvalidateAll drops every cached result.
func (c *DiscoveryCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]HookFileRef)
	c.gen++
}

// Len returns the number of cached entries.
func (c *DiscoveryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(t HookType, locs []Location) string {
	var b strings.Builder
	b.WriteString(string(t))
	for _, l := range locs {
		b.WriteByte(0)
		b.WriteString(l.Dir)
	}
	return b.String()
}

func cloneRefs(refs []HookFileRef) []HookFileRef {
	if refs == nil {
		return nil
	}
	out := make([]HookFileRef, len(refs))
	copy(out, refs)
	return out
}
