package layout

import (
	"context"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/matzehuels/erdflow/pkg/cache"
	"github.com/matzehuels/erdflow/pkg/observability"
)

// DefaultCacheTTL is how long cached layouts live when Cached.TTL is zero.
const DefaultCacheTTL = 24 * time.Hour

// Cached memoizes an engine. Results are msgpack-encoded and stored under a
// key derived from the engine name, the config and a hash of the graph, so
// any change in node sizes or edges is a miss.
//
// Cache failures never fail a layout: a read error is a miss and a write
// error is ignored.
type Cached struct {
	Engine Engine
	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration
}

// NewCached wraps e with c using the default keyer and TTL.
func NewCached(e Engine, c cache.Cache) *Cached {
	return &Cached{Engine: e, Cache: c, Keyer: cache.NewDefaultKeyer(), TTL: DefaultCacheTTL}
}

// Name implements [Engine] and returns the wrapped engine's name.
func (c *Cached) Name() string { return c.Engine.Name() }

// Layout implements [Engine].
func (c *Cached) Layout(ctx context.Context, g Graph, cfg Config) (Result, error) {
	cfg.SetDefaults()
	key, err := c.key(g, cfg)
	if err != nil {
		return c.Engine.Layout(ctx, g, cfg)
	}

	if data, ok, err := c.Cache.Get(ctx, key); err == nil && ok {
		var res Result
		if msgpack.Unmarshal(data, &res) == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			res.Cached = true
			return res, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	res, err := c.Engine.Layout(ctx, g, cfg)
	if err != nil {
		return Result{}, err
	}
	if data, err := msgpack.Marshal(&res); err == nil {
		ttl := c.TTL
		if ttl == 0 {
			ttl = DefaultCacheTTL
		}
		if c.Cache.Set(ctx, key, data, ttl) == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return res, nil
}

func (c *Cached) key(g Graph, cfg Config) (string, error) {
	data, err := msgpack.Marshal(&g)
	if err != nil {
		return "", err
	}
	keyer := c.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return keyer.LayoutKey(cache.Hash(data), cache.LayoutKeyOpts{
		Engine:  c.Engine.Name(),
		RankDir: string(cfg.RankDir),
		NodeSep: cfg.NodeSep,
		RankSep: cfg.RankSep,
		EdgeSep: cfg.EdgeSep,
		Passes:  cfg.Passes,
		Margin:  cfg.Margin,
	}), nil
}
