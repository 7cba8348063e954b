package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/i474232898/surfcast/internal/forecast"
	"github.com/i474232898/surfcast/internal/observability"
)

// CachedResolver wraps a GeoResolver with an in-memory LRU cache.
type CachedResolver struct {
	inner   forecast.GeoResolver
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedResolver creates a cache decorator around a resolver.
func NewCachedResolver(inner forecast.GeoResolver, maxEntries int, metrics *observability.Metrics) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedResolver) Resolve(ctx context.Context, query string) (forecast.Place, error) {
	key := "resolve:" + normalizeQuery(query)
	if places, ok := c.lookup(key); ok {
		return places[0], nil
	}
	place, err := c.inner.Resolve(ctx, query)
	if err != nil {
		// Not found is not cached so a newly indexed place can be found later.
		return place, err
	}
	c.cache.put(key, []forecast.Place{place})
	return place, nil
}

func (c *CachedResolver) Suggest(ctx context.Context, query string, limit int) ([]forecast.Place, error) {
	if strings.TrimSpace(query) == "" {
		return []forecast.Place{}, nil
	}
	key := fmt.Sprintf("suggest:%d:%s", limit, normalizeQuery(query))
	if places, ok := c.lookup(key); ok {
		return places, nil
	}
	places, err := c.inner.Suggest(ctx, query, limit)
	if err != nil {
		return places, err
	}
	if len(places) > 0 {
		c.cache.put(key, places)
	}
	return places, nil
}

func (c *CachedResolver) lookup(key string) ([]forecast.Place, bool) {
	places, ok := c.cache.get(key)
	if c.metrics != nil {
		result := "miss"
		if ok {
			result = "hit"
		}
		c.metrics.GeocodeCache.WithLabelValues(result).Inc()
	}
	return places, ok
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

// lruCache is a simple thread-safe LRU cache of place lists.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []forecast.Place
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]forecast.Place, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return append([]forecast.Place(nil), e.value...), true
}

func (c *lruCache) put(key string, value []forecast.Place) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value = append([]forecast.Place(nil), value...)
	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlink(c.tail)
}
