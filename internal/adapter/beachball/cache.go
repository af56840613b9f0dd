package beachball

import (
	"fmt"
	"sync"

	"github.com/couchcryptid/quake-data-kml/internal/domain"
	"github.com/couchcryptid/quake-data-kml/internal/observability"
)

// CachedRenderer wraps a Renderer with an in-memory LRU cache. Serve-mode
// rebuilds re-render the entire catalog, and most solutions are unchanged
// between rebuilds, so cached PNGs short-circuit the rasterizer.
type CachedRenderer struct {
	inner   domain.Renderer
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedRenderer creates a cache decorator around a renderer.
// Metrics may be nil.
func NewCachedRenderer(inner domain.Renderer, maxEntries int, metrics *observability.Metrics) *CachedRenderer {
	return &CachedRenderer{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// RenderMechanism implements domain.Renderer. Cached images are shared;
// callers must not mutate the returned bytes.
func (c *CachedRenderer) RenderMechanism(mech domain.FocalMechanism, fault domain.FaultType) ([]byte, error) {
	key := fmt.Sprintf("%g/%g/%g|%s", mech.Plane1.Strike, mech.Plane1.Dip, mech.Plane1.Rake, fault)
	if img, ok := c.cache.get(key); ok {
		c.observeCache("hit")
		return img, nil
	}
	c.observeCache("miss")

	img, err := c.inner.RenderMechanism(mech, fault)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, img)
	return img, nil
}

func (c *CachedRenderer) observeCache(result string) {
	if c.metrics != nil {
		c.metrics.RenderCache.WithLabelValues(result).Inc()
	}
}

// lruCache is a simple thread-safe LRU cache for encoded images.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []byte
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

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

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
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

func (c *lruCache) remove(e *entry) {
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
	c.remove(c.tail)
}
