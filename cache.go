package shapesheet

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultQueryCacheSize is the capacity used by NewQueryCache when size <= 0.
const DefaultQueryCacheSize = 128

// QueryCache keeps built query shapes keyed by a stable descriptor so that a
// query is declared once and executed many times. It is an explicit object:
// create one per process or module and pass it where it is needed.
//
// Queries are sealed before they are published, so every query handed out by
// the cache is safe for concurrent read-only use. QueryCache itself is safe
// for concurrent use; concurrent misses on one key build the query once.
type QueryCache struct {
	queries *lru.Cache[string, *CellQuery]
	group   singleflight.Group
}

// NewQueryCache creates a cache holding at most size query shapes.
func NewQueryCache(size int) (*QueryCache, error) {
	if size <= 0 {
		size = DefaultQueryCacheSize
	}
	queries, err := lru.New[string, *CellQuery](size)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}
	return &QueryCache{queries: queries}, nil
}

// Get returns the query cached under key, building and sealing it on a miss.
// A nil cache builds a fresh sealed query on every call.
func (c *QueryCache) Get(key string, build func() (*CellQuery, error)) (*CellQuery, error) {
	if c == nil {
		return buildSealed(build)
	}
	if q, ok := c.queries.Get(key); ok {
		return q, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if q, ok := c.queries.Get(key); ok {
			return q, nil
		}
		q, err := buildSealed(build)
		if err != nil {
			return nil, err
		}
		c.queries.Add(key, q)
		return q, nil
	})
	if err != nil {
		return nil, fmt.Errorf("build query %q: %w", key, err)
	}
	return v.(*CellQuery), nil
}

// Len returns the number of cached query shapes.
func (c *QueryCache) Len() int {
	if c == nil {
		return 0
	}
	return c.queries.Len()
}

// Purge drops every cached query shape.
func (c *QueryCache) Purge() {
	if c != nil {
		c.queries.Purge()
	}
}

func buildSealed(build func() (*CellQuery, error)) (*CellQuery, error) {
	q, err := build()
	if err != nil {
		return nil, err
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	q.Seal()
	return q, nil
}
