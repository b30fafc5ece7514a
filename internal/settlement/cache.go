package settlement

import (
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osse101/DCM_Go/internal/domain"
)

// cachedView wraps a scenario view with version metadata for cache invalidation
type cachedView struct {
	Version  string
	View     *domain.ScenarioView
	CachedAt time.Time
}

// viewCache keeps recently settled scenarios keyed by scenario ID. Stored
// scenarios never change, so entries only leave on delete, expiry or eviction.
type viewCache struct {
	lru *expirable.LRU[string, *cachedView]
}

func newViewCache(size int, ttl time.Duration) *viewCache {
	return &viewCache{
		lru: expirable.NewLRU[string, *cachedView](size, nil, ttl),
	}
}

// Get returns a copy of the cached view. Entries written under another schema
// version are dropped.
func (c *viewCache) Get(id string) (*domain.ScenarioView, bool) {
	entry, found := c.lru.Get(id)
	if !found {
		return nil, false
	}
	if entry.Version != CacheSchemaVersion {
		c.lru.Remove(id)
		return nil, false
	}
	return cloneView(entry.View), true
}

// Set stores a private copy of view
func (c *viewCache) Set(view *domain.ScenarioView) {
	c.lru.Add(view.ID, &cachedView{
		Version:  CacheSchemaVersion,
		View:     cloneView(view),
		CachedAt: time.Now(),
	})
}

func (c *viewCache) Invalidate(id string) {
	c.lru.Remove(id)
}

func (c *viewCache) Len() int {
	return c.lru.Len()
}

func cloneView(v *domain.ScenarioView) *domain.ScenarioView {
	out := *v
	out.Participants = slices.Clone(v.Participants)
	if v.Settlement != nil {
		s := *v.Settlement
		s.Results = slices.Clone(v.Settlement.Results)
		out.Settlement = &s
	}
	return &out
}
