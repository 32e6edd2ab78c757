package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// Option adjusts a Cache at construction.
type Option func(*Cache)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

type mark struct {
	key  string
	seen time.Time
}

// Cache remembers refresh trigger IDs that were already handled so that a
// redelivered Kafka message does not start a second generation run.
type Cache struct {
	mu       sync.Mutex
	index    map[string]*list.Element
	lru      *list.List
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewCache creates a cache bounded by capacity entries, each kept for ttl.
func NewCache(capacity int, ttl time.Duration, opts ...Option) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := &Cache{
		index:    make(map[string]*list.Element, capacity),
		lru:      list.New(),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsSeen reports whether key was marked inside the ttl window. It does not
// mark the key.
func (c *Cache) IsSeen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if !ok {
		return false
	}
	return c.now().Sub(el.Value.(mark).seen) <= c.ttl
}

// MarkSeen records key as handled. Marking an existing key refreshes it.
func (c *Cache) MarkSeen(key string) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		el.Value = mark{key: key, seen: now}
		c.lru.MoveToBack(el)
	} else {
		c.index[key] = c.lru.PushBack(mark{key: key, seen: now})
	}
	c.evict(now)
}

// Len returns the number of remembered keys, expired ones included until
// the next MarkSeen.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *Cache) evict(now time.Time) {
	cutoff := now.Add(-c.ttl)
	for front := c.lru.Front(); front != nil; front = c.lru.Front() {
		m := front.Value.(mark)
		if c.lru.Len() <= c.capacity && !m.seen.Before(cutoff) {
			return
		}
		c.lru.Remove(front)
		delete(c.index, m.key)
	}
}
