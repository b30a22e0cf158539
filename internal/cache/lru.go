package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entry 包装缓存数据、写入时的代数和过期时间
type entry[V any] struct {
	value     V
	gen       Generation
	expiresAt time.Time
}

// LRU is the in-process backend: a bounded LRU with per-entry expiry and one
// atomic generation counter per region.
type LRU[V any] struct {
	entries *lru.Cache[string, entry[V]]
	ttl     TTLPolicy
	opts    options

	mu   sync.RWMutex
	gens map[Region]*atomic.Uint64
}

var _ Cache[int] = (*LRU[int])(nil)

func NewLRU[V any](size int, ttl TTLPolicy, opts ...Option) (*LRU[V], error) {
	l, err := lru.New[string, entry[V]](size)
	if err != nil {
		return nil, fmt.Errorf("cache: create lru: %w", err)
	}
	return &LRU[V]{
		entries: l,
		ttl:     ttl,
		opts:    buildOptions(opts),
		gens:    make(map[Region]*atomic.Uint64),
	}, nil
}

// counter returns the generation counter of region, creating it on first use.
func (c *LRU[V]) counter(region Region) *atomic.Uint64 {
	c.mu.RLock()
	g, ok := c.gens[region]
	c.mu.RUnlock()
	if ok {
		return g
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok = c.gens[region]; !ok {
		g = new(atomic.Uint64)
		c.gens[region] = g
	}
	return g
}

// Get 获取缓存，不存在、已过期或代数落后时视为未命中
func (c *LRU[V]) Get(_ context.Context, key Key) (V, bool) {
	var zero V
	kind := string(key.Region.Kind())
	k := key.String()

	e, ok := c.entries.Get(k)
	if !ok {
		c.opts.metrics.Miss(kind)
		return zero, false
	}
	if c.opts.clock.Now().After(e.expiresAt) || e.gen < Generation(c.counter(key.Region).Load()) {
		c.entries.Remove(k)
		c.opts.metrics.Miss(kind)
		return zero, false
	}
	c.opts.metrics.Hit(kind)
	return e.value, true
}

func (c *LRU[V]) Generation(_ context.Context, region Region) Generation {
	return Generation(c.counter(region).Load())
}

// Put 写入缓存。gen 落后于区域当前代数时直接丢弃
func (c *LRU[V]) Put(_ context.Context, key Key, value V, gen Generation) {
	if gen < Generation(c.counter(key.Region).Load()) {
		c.opts.metrics.Dropped(string(key.Region.Kind()))
		return
	}
	// An invalidation landing between the check and the Add leaves an entry
	// with an old generation; Get treats it as a miss.
	c.entries.Add(key.String(), entry[V]{
		value:     value,
		gen:       gen,
		expiresAt: c.opts.clock.Now().Add(c.ttl.For(key.Region)),
	})
}

// InvalidateRegion bumps the region generation, then sweeps its keys.
func (c *LRU[V]) InvalidateRegion(_ context.Context, region Region) error {
	c.counter(region).Add(1)

	prefix := string(region) + "|"
	for _, k := range c.entries.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.entries.Remove(k)
		}
	}
	c.opts.metrics.Invalidated(string(region.Kind()))
	return nil
}

func (c *LRU[V]) Len() int { return c.entries.Len() }
