// Package cache stores rendered pages keyed by region. Every region carries a
// generation counter: invalidating a region bumps it, and a Put made with a
// generation read before the bump is discarded. Readers that raced a write
// therefore can never re-populate a region with pre-write data.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"movierama/internal/metrics"
	"movierama/internal/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type RegionKind string

const (
	KindAllItems RegionKind = "AllItems"
	KindByOwner  RegionKind = "ByOwner"
	KindProfile  RegionKind = "Profile"
)

// Region names a group of keys that is invalidated as a unit, e.g.
// "AllItems", "ByOwner:7" or "Profile:7".
type Region string

func RegionAllItems() Region { return Region(KindAllItems) }

func RegionByOwner(ownerID uint) Region {
	return Region(string(KindByOwner) + ":" + strconv.FormatUint(uint64(ownerID), 10))
}

func RegionProfile(userID uint) Region {
	return Region(string(KindProfile) + ":" + strconv.FormatUint(uint64(userID), 10))
}

// RegionFor returns the listing region of a scope.
func RegionFor(scope models.Scope) Region {
	if scope.ByOwner() {
		return RegionByOwner(scope.OwnerID)
	}
	return RegionAllItems()
}

func (r Region) Kind() RegionKind {
	kind, _, _ := strings.Cut(string(r), ":")
	return RegionKind(kind)
}

// Key identifies one cached value inside a region.
type Key struct {
	Region Region
	ID     string
}

func (k Key) String() string { return string(k.Region) + "|" + k.ID }

// PageKey builds the key of one listing page. Requests must already be
// normalised so equivalent requests map to the same key.
func PageKey(region Region, page, size int, sort models.SortKey, dir models.Direction, viewerID uint) Key {
	viewer := "anon"
	if viewerID != 0 {
		viewer = strconv.FormatUint(uint64(viewerID), 10)
	}
	return Key{
		Region: region,
		ID:     fmt.Sprintf("p=%d:s=%d:sort=%s:%s:v=%s", page, size, sort, dir, viewer),
	}
}

func ProfileKey(userID uint) Key {
	return Key{Region: RegionProfile(userID), ID: "summary"}
}

type Generation uint64

// Cache is implemented by LRU and Redis. Backend failures never surface from
// Get or Put: a failed Get is a miss and a failed Put is skipped.
type Cache[V any] interface {
	Get(ctx context.Context, key Key) (V, bool)
	// Generation must be read before loading the value that will be Put.
	Generation(ctx context.Context, region Region) Generation
	Put(ctx context.Context, key Key, value V, gen Generation)
	InvalidateRegion(ctx context.Context, region Region) error
}

// TTLPolicy assigns entry lifetimes per region kind.
type TTLPolicy struct {
	List    time.Duration
	Profile time.Duration
}

func DefaultTTL() TTLPolicy {
	return TTLPolicy{List: 10 * time.Minute, Profile: 30 * time.Minute}
}

func (p TTLPolicy) For(region Region) time.Duration {
	if region.Kind() == KindProfile {
		return p.Profile
	}
	return p.List
}

type options struct {
	clock   clockwork.Clock
	metrics *metrics.CacheMetrics
	log     *zap.Logger
	prefix  string
}

type Option func(*options)

func WithClock(c clockwork.Clock) Option { return func(o *options) { o.clock = c } }

func WithMetrics(m *metrics.CacheMetrics) Option { return func(o *options) { o.metrics = m } }

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

// WithPrefix namespaces Redis keys. Ignored by the LRU backend.
func WithPrefix(p string) Option { return func(o *options) { o.prefix = p } }

func buildOptions(opts []Option) options {
	o := options{
		clock:  clockwork.NewRealClock(),
		log:    zap.NewNop(),
		prefix: "movierama",
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
