package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// putScript stores ARGV[1] under KEYS[1] unless the region generation in
// KEYS[2] has moved past ARGV[2]. Returns 1 when stored.
var putScript = goredis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[2]) < current then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

type envelope struct {
	Gen  Generation      `json:"gen"`
	Data json.RawMessage `json:"data"`
}

// Redis is the shared backend used when several server processes must see
// the same invalidations. Values are stored as JSON. The region name is a
// hash tag so an entry and its generation always live in the same slot.
type Redis[V any] struct {
	client goredis.UniversalClient
	ttl    TTLPolicy
	opts   options
}

var _ Cache[int] = (*Redis[int])(nil)

func NewRedis[V any](client goredis.UniversalClient, ttl TTLPolicy, opts ...Option) *Redis[V] {
	return &Redis[V]{client: client, ttl: ttl, opts: buildOptions(opts)}
}

func (c *Redis[V]) genKey(region Region) string {
	return c.opts.prefix + ":gen:{" + string(region) + "}"
}

func (c *Redis[V]) entryKey(key Key) string {
	return c.opts.prefix + ":cache:{" + string(key.Region) + "}|" + key.ID
}

func (c *Redis[V]) Get(ctx context.Context, key Key) (V, bool) {
	var zero V
	kind := string(key.Region.Kind())

	vals, err := c.client.MGet(ctx, c.entryKey(key), c.genKey(key.Region)).Result()
	if err != nil {
		c.fail("get", err)
		c.opts.metrics.Miss(kind)
		return zero, false
	}
	raw, ok := vals[0].(string)
	if !ok {
		c.opts.metrics.Miss(kind)
		return zero, false
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		c.fail("decode", err)
		c.opts.metrics.Miss(kind)
		return zero, false
	}
	if env.Gen < parseGeneration(vals[1]) {
		c.opts.metrics.Miss(kind)
		return zero, false
	}

	var v V
	if err := json.Unmarshal(env.Data, &v); err != nil {
		c.fail("decode", err)
		c.opts.metrics.Miss(kind)
		return zero, false
	}
	c.opts.metrics.Hit(kind)
	return v, true
}

// Generation returns 0 when the counter was never bumped or cannot be read.
// A Put made under 0 is still rejected once the region has been invalidated.
func (c *Redis[V]) Generation(ctx context.Context, region Region) Generation {
	n, err := c.client.Get(ctx, c.genKey(region)).Uint64()
	if errors.Is(err, goredis.Nil) {
		return 0
	}
	if err != nil {
		c.fail("generation", err)
		return 0
	}
	return Generation(n)
}

func (c *Redis[V]) Put(ctx context.Context, key Key, value V, gen Generation) {
	data, err := json.Marshal(value)
	if err != nil {
		c.fail("encode", err)
		return
	}
	payload, err := json.Marshal(envelope{Gen: gen, Data: data})
	if err != nil {
		c.fail("encode", err)
		return
	}

	ttl := c.ttl.For(key.Region).Milliseconds()
	stored, err := putScript.Run(ctx, c.client,
		[]string{c.entryKey(key), c.genKey(key.Region)},
		string(payload), uint64(gen), ttl,
	).Int()
	if err != nil {
		c.fail("put", err)
		return
	}
	if stored == 0 {
		c.opts.metrics.Dropped(string(key.Region.Kind()))
	}
}

// InvalidateRegion bumps the generation first. Entries that survive a failed
// sweep are still rejected by Get because their generation is behind.
func (c *Redis[V]) InvalidateRegion(ctx context.Context, region Region) error {
	if err := c.client.Incr(ctx, c.genKey(region)).Err(); err != nil {
		c.fail("invalidate", err)
		return fmt.Errorf("cache: bump generation of %s: %w", region, err)
	}
	c.opts.metrics.Invalidated(string(region.Kind()))

	pattern := c.opts.prefix + ":cache:{" + string(region) + "}|*"
	// SCAN only walks the node it is sent to; a cluster is swept per master.
	if cc, ok := c.client.(*goredis.ClusterClient); ok {
		return cc.ForEachMaster(ctx, func(ctx context.Context, node *goredis.Client) error {
			return sweep(ctx, node, region, pattern)
		})
	}
	return sweep(ctx, c.client, region, pattern)
}

func sweep(ctx context.Context, client goredis.Cmdable, region Region, pattern string) error {
	iter := client.Scan(ctx, 0, pattern, 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := client.Unlink(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("cache: sweep %s: %w", region, err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache: sweep %s: %w", region, err)
	}
	if len(batch) > 0 {
		if err := client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("cache: sweep %s: %w", region, err)
		}
	}
	return nil
}

func (c *Redis[V]) fail(op string, err error) {
	c.opts.metrics.Error(op)
	c.opts.log.Warn("page cache backend error", zap.String("op", op), zap.Error(err))
}

func parseGeneration(v any) Generation {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return Generation(n)
}
