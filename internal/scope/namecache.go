package scope

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// NameCache resolves compartment OCIDs to display names for presentation.
type NameCache struct {
	mu     sync.RWMutex
	cache  map[string]string
	dir    Directory
	log    zerolog.Logger
	hits   int64
	misses int64
}

// NewNameCache creates a cache backed by dir. A nil dir makes the cache lookup-only.
func NewNameCache(dir Directory, log zerolog.Logger) *NameCache {
	return &NameCache{
		cache: make(map[string]string),
		dir:   dir,
		log:   log,
	}
}

// Preload stores the names of already resolved scopes.
func (c *NameCache) Preload(scopes []Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range scopes {
		if s.ID != "" && s.Name != "" {
			c.cache[s.ID] = s.Name
		}
	}
	c.log.Debug().Int("entries", len(c.cache)).Msg("preloaded compartment names")
}

// Name returns the cached name, looking it up on a miss.
func (c *NameCache) Name(ctx context.Context, id string) string {
	c.mu.RLock()
	if name, ok := c.cache[id]; ok {
		c.mu.RUnlock()
		c.count(true)
		return name
	}
	c.mu.RUnlock()
	c.count(false)

	name := c.fetch(ctx, id)

	c.mu.Lock()
	c.cache[id] = name
	c.mu.Unlock()

	return name
}

func (c *NameCache) fetch(ctx context.Context, id string) string {
	if id == "" || IsTenancy(id) {
		return "root"
	}
	if c.dir == nil {
		return ShortOCID(id)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s, err := c.dir.GetCompartment(ctx, id)
	if err != nil || s.Name == "" {
		c.log.Debug().Err(err).Str("scope", id).Msg("compartment name lookup failed")
		return ShortOCID(id)
	}
	return s.Name
}

func (c *NameCache) count(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

// Stats returns the number of entries and the hit rate of lookups so far.
func (c *NameCache) Stats() (entries int, hitRate float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries = len(c.cache)
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return entries, hitRate
}

// ShortOCID keeps the last eight characters of an OCID for display.
func ShortOCID(ocid string) string {
	if len(ocid) <= 8 {
		return ocid
	}
	return fmt.Sprintf("ocid-...%s", ocid[len(ocid)-8:])
}
