package catalog

import (
	"sync"
	"time"
)

// ConceptSource supplies the concept list a ConceptCache serves.
type ConceptSource interface {
	Concepts() []Concept
}

// ConceptCache resolves concept slugs from a snapshot of a ConceptSource that
// is refreshed once ttl has elapsed or after Invalidate. The cache is owned by
// its caller; there is no package-level instance.
type ConceptCache struct {
	src ConceptSource
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	bySlug   map[string]Concept
	loadedAt time.Time
}

// NewConceptCache creates a cache over src. A non-positive ttl never expires.
func NewConceptCache(src ConceptSource, ttl time.Duration) *ConceptCache {
	return &ConceptCache{src: src, ttl: ttl, now: time.Now}
}

// ResolveConcept returns the concept for slug. A nil cache resolves nothing.
func (c *ConceptCache) ResolveConcept(slug string) (Concept, bool) {
	if c == nil {
		return Concept{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked()
	cc, ok := c.bySlug[slug]
	return cc, ok
}

// ConceptCount returns the number of concepts known to the source.
func (c *ConceptCache) ConceptCount() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshLocked()
	return len(c.bySlug)
}

// Invalidate drops the snapshot so the next lookup reloads it.
func (c *ConceptCache) Invalidate() {
	c.mu.Lock()
	c.bySlug = nil
	c.mu.Unlock()
}

func (c *ConceptCache) refreshLocked() {
	now := c.now()
	if c.bySlug != nil && (c.ttl <= 0 || now.Sub(c.loadedAt) < c.ttl) {
		return
	}
	concepts := c.src.Concepts()
	c.bySlug = make(map[string]Concept, len(concepts))
	for _, cc := range concepts {
		c.bySlug[cc.Slug] = cc
	}
	c.loadedAt = now
}

// ResolveConcept lets a Catalog serve directly as a resolver. A nil Catalog
// resolves nothing.
func (c *Catalog) ResolveConcept(slug string) (Concept, bool) {
	if c == nil {
		return Concept{}, false
	}
	return c.Concept(slug)
}

// ConceptCount returns the number of concepts in the catalog.
func (c *Catalog) ConceptCount() int {
	if c == nil {
		return 0
	}
	return len(c.concepts)
}
