// Package cache implements the merged-result cache: a TTL + LRU map with
// single-flight coalescing so one fingerprint never has two concurrent
// upstream fan-outs.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/seekerlab/deepsearch/internal/domain/search/result"
)

// Entry is one cached merged result set. Entries are immutable after
// insertion; recomputation replaces the entry instead of editing it.
type Entry struct {
	Fingerprint  string
	Results      []result.Merged
	SourceErrors map[string]string
	Succeeded    []string
	CreatedAt    time.Time
	TTL          time.Duration
}

// ComputeFunc produces a fresh entry on a cache miss.
type ComputeFunc func(ctx context.Context) (*Entry, error)

// Default cache settings.
const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 1024
)

// Cache is a capacity-bounded read-through cache with request coalescing.
type Cache struct {
	mu       sync.Mutex
	elements map[string]*list.Element
	lru      *list.List // front = most recently used

	group      singleflight.Group
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// Option configures the cache.
type Option func(*Cache)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache. Non-positive ttl or maxEntries fall back to defaults.
func New(ttl time.Duration, maxEntries int, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c := &Cache{
		elements:   map[string]*list.Element{},
		lru:        list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type lruItem struct {
	key   string
	entry *Entry
}

type flightResult struct {
	entry     *Entry
	fromCache bool
}

// GetOrCompute returns the cached entry for key, computing it at most once
// across concurrent callers. The second return value reports whether an
// existing entry was served. An expired entry counts as a miss and triggers
// exactly one coalesced recomputation.
//
// compute runs detached from the caller's cancellation: if the caller goes
// away mid-flight the fan-out still completes and populates the cache for
// the other waiters, but the abandoned caller gets ctx.Err().
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) (*Entry, bool, error) {
	if e, ok := c.lookup(key); ok {
		return e, true, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// A previous flight may have stored the entry while we queued.
		if e, ok := c.lookup(key); ok {
			return flightResult{entry: e, fromCache: true}, nil
		}
		e, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.store(key, e)
		return flightResult{entry: e, fromCache: false}, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		fr := res.Val.(flightResult)
		return fr.entry, fr.fromCache, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Invalidate drops the entry for key, if present.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.elements[key]; ok {
		c.lru.Remove(el)
		delete(c.elements, key)
	}
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.elements)
}

func (c *Cache) lookup(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.elements[key]
	if !ok {
		return nil, false
	}
	item := el.Value.(*lruItem)
	if c.now().Sub(item.entry.CreatedAt) >= item.entry.TTL {
		c.lru.Remove(el)
		delete(c.elements, key)
		return nil, false
	}
	c.lru.MoveToFront(el)
	return item.entry, true
}

func (c *Cache) store(key string, e *Entry) {
	e.Fingerprint = key
	e.CreatedAt = c.now()
	e.TTL = c.ttl

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.elements[key]; ok {
		el.Value = &lruItem{key: key, entry: e}
		c.lru.MoveToFront(el)
		return
	}
	c.elements[key] = c.lru.PushFront(&lruItem{key: key, entry: e})

	for len(c.elements) > c.maxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.lru.Remove(oldest)
		delete(c.elements, oldest.Value.(*lruItem).key)
	}
}
