package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"
)

// DefaultCapacity is used when a non-positive capacity is supplied.
const DefaultCapacity = 1000

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// Cache is a thread-safe, string-keyed map with a fixed TTL per entry and a
// bounded capacity. Expiry is checked lazily on read; when the capacity is
// exceeded the least recently used entry is evicted.
type Cache[V any] struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	clock    clock.Clock
	items    map[string]*list.Element
	eviction *list.List
	onEvict  func(key string, value V)
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClock replaces the wall clock, mostly for tests.
func WithClock[V any](clk clock.Clock) Option[V] {
	return func(c *Cache[V]) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithCapacity sets the maximum number of entries.
func WithCapacity[V any](n int) Option[V] {
	return func(c *Cache[V]) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithEvictCallback registers a function called for every entry that leaves
// the cache because of capacity pressure or expiry. Explicit removals do not
// trigger it. fn runs with the cache lock held and must not call back into
// the cache.
func WithEvictCallback[V any](fn func(key string, value V)) Option[V] {
	return func(c *Cache[V]) { c.onEvict = fn }
}

// New creates a cache whose entries live for ttl after insertion.
// It panics on a non-positive ttl.
func New[V any](ttl time.Duration, opts ...Option[V]) *Cache[V] {
	if ttl <= 0 {
		panic("cache: ttl must be positive")
	}
	c := &Cache[V]{
		ttl:      ttl,
		capacity: DefaultCapacity,
		clock:    clock.WallClock,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a live value and marks it as recently used.
// An expired entry is removed and reported as absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[V])
	if !c.clock.Now().Before(e.expiresAt) {
		c.removeElement(elem, true)
		return zero, false
	}
	c.eviction.MoveToFront(elem)
	return e.value, true
}

// Put inserts or replaces the value for key and restarts its TTL.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(c.ttl)
	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[V])
		e.value = value
		e.expiresAt = expiresAt
		c.eviction.MoveToFront(elem)
		return
	}

	c.items[key] = c.eviction.PushFront(&entry[V]{key: key, value: value, expiresAt: expiresAt})
	if c.eviction.Len() > c.capacity {
		if oldest := c.eviction.Back(); oldest != nil {
			c.removeElement(oldest, true)
		}
	}
}

// Remove deletes key and returns the value it held, expired or not.
func (c *Cache[V]) Remove(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem, false)
		return elem.Value.(*entry[V]).value, true
	}
	var zero V
	return zero, false
}

// RemovePrefix deletes every key starting with prefix and returns how many
// entries were dropped. An empty prefix clears the cache.
func (c *Cache[V]) RemovePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, elem := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.removeElement(elem, false)
			n++
		}
	}
	return n
}

// Len reports the number of stored entries, including expired ones that
// have not been collected yet.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

// Sweep removes every expired entry and returns how many were dropped.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	n := 0
	for elem := c.eviction.Back(); elem != nil; {
		prev := elem.Prev()
		if !now.Before(elem.Value.(*entry[V]).expiresAt) {
			c.removeElement(elem, true)
			n++
		}
		elem = prev
	}
	return n
}

// Must be called with lock held.
func (c *Cache[V]) removeElement(elem *list.Element, evicted bool) {
	c.eviction.Remove(elem)
	e := elem.Value.(*entry[V])
	delete(c.items, e.key)
	if evicted && c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
}
