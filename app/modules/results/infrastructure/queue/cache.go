package resultsqueue

import (
	"context"
	"fmt"

	resultsdomain "github.com/Black-And-White-Club/live-results/app/modules/results/domain"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of competition documents kept in memory.
const DefaultCacheSize = 20

// Loader reads a competition document from storage.
type Loader func(ctx context.Context, competitionID string) (*resultsdomain.Competition, error)

// CompetitionCache keeps the most recently used competition documents.
// Cached documents are never modified in place; mutations clone, and the
// result replaces the entry with Put.
type CompetitionCache struct {
	entries *lru.Cache[string, *resultsdomain.Competition]
	loads   singleflight.Group
	load    Loader
	metrics Metrics
}

// NewCompetitionCache creates a cache holding up to size documents.
func NewCompetitionCache(size int, load Loader, metrics Metrics) (*CompetitionCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c := &CompetitionCache{load: load, metrics: metrics}
	entries, err := lru.NewWithEvict(size, func(string, *resultsdomain.Competition) {
		if c.metrics != nil {
			c.metrics.RecordCacheEviction()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create competition cache: %w", err)
	}
	c.entries = entries
	return c, nil
}

// Get returns the cached document, loading it on a miss. Concurrent misses
// for the same id share one storage read.
func (c *CompetitionCache) Get(ctx context.Context, competitionID string) (*resultsdomain.Competition, error) {
	if comp, ok := c.entries.Get(competitionID); ok {
		c.recordHit()
		return comp, nil
	}
	c.recordMiss()

	v, err, _ := c.loads.Do(competitionID, func() (any, error) {
		comp, err := c.load(context.WithoutCancel(ctx), competitionID)
		if err != nil {
			return nil, err
		}
		// Someone may have stored a newer document while we were reading.
		if found, _ := c.entries.ContainsOrAdd(competitionID, comp); found {
			if existing, ok := c.entries.Peek(competitionID); ok {
				return existing, nil
			}
		}
		return comp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*resultsdomain.Competition), nil
}

// Put stores a document as the most recently used entry.
func (c *CompetitionCache) Put(competitionID string, comp *resultsdomain.Competition) {
	c.entries.Add(competitionID, comp)
}

// Remove drops a document from the cache.
func (c *CompetitionCache) Remove(competitionID string) {
	c.entries.Remove(competitionID)
}

// Keys returns the cached ids from least to most recently used.
func (c *CompetitionCache) Keys() []string {
	return c.entries.Keys()
}

func (c *CompetitionCache) Len() int {
	return c.entries.Len()
}

func (c *CompetitionCache) recordHit() {
	if c.metrics != nil {
		c.metrics.RecordCacheHit()
	}
}

func (c *CompetitionCache) recordMiss() {
	if c.metrics != nil {
		c.metrics.RecordCacheMiss()
	}
}
