package ratetable

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/warp/policy-engine/policy"
)

// DefaultCacheTTL is used when NewCached gets a non-positive ttl.
const DefaultCacheTTL = 10 * time.Minute

// Cached memoizes lookups of another Source. Misses are not cached so a
// band added later becomes visible without a flush.
type Cached struct {
	src   Source
	cache *cache.Cache
}

func NewCached(src Source, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{src: src, cache: cache.New(ttl, 2*ttl)}
}

// With returns a view that shares this cache but loads misses from src, so
// a lookup inside a store transaction reads through that transaction.
func (c *Cached) With(src Source) *Cached {
	return &Cached{src: src, cache: c.cache}
}

// Invalidate drops every cached lookup. Call after changing the underlying tables.
func (c *Cached) Invalidate() {
	c.cache.Flush()
}

func lookup[T any](c *Cached, key string, load func() (T, error)) (T, error) {
	if v, found := c.cache.Get(key); found {
		return v.(T), nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.cache.Set(key, v, cache.DefaultExpiration)
	return v, nil
}

func (c *Cached) Mortality(ctx context.Context, age int) (MortalityRate, error) {
	return lookup(c, fmt.Sprintf("mortality:%d", age), func() (MortalityRate, error) {
		return c.src.Mortality(ctx, age)
	})
}

func (c *Cached) DurationFactor(ctx context.Context, t policy.Type, years int) (DurationFactor, error) {
	return lookup(c, fmt.Sprintf("duration:%s:%d", t, years), func() (DurationFactor, error) {
		return c.src.DurationFactor(ctx, t, years)
	})
}

func (c *Cached) GSVRate(ctx context.Context, productCode string, years int) (GSVRate, error) {
	return lookup(c, fmt.Sprintf("gsv:%s:%d", productCode, years), func() (GSVRate, error) {
		return c.src.GSVRate(ctx, productCode, years)
	})
}

func (c *Cached) SSVConfig(ctx context.Context, productCode string, years int) (SSVConfig, error) {
	return lookup(c, fmt.Sprintf("ssv:%s:%d", productCode, years), func() (SSVConfig, error) {
		return c.src.SSVConfig(ctx, productCode, years)
	})
}

func (c *Cached) BonusRate(ctx context.Context, productCode string, termYears int) (BonusRate, error) {
	return lookup(c, fmt.Sprintf("bonus:%s:%d", productCode, termYears), func() (BonusRate, error) {
		return c.src.BonusRate(ctx, productCode, termYears)
	})
}
