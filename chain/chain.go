// Package chain implements the ordered, populate-on-hit cache chain
// described in spec.md §4.E. It deliberately diverges from
// agentuity-go-common/cache's composite-cache idea (a flat list tried in
// order with no write-back) by populating every earlier tier on a hit, the
// way a CPU cache hierarchy or a read-through CDN does.
package chain

import (
	"context"
	"time"

	"github.com/rungalileo/gcache/key"
	"github.com/rungalileo/gcache/tier"
)

// Chain is an ordered sequence of tiers, queried front-to-back on read.
type Chain struct {
	tiers []tier.Tier
}

// New builds a Chain. Order matters: spec.md fixes it as (LOCAL, REMOTE).
func New(tiers ...tier.Tier) *Chain {
	return &Chain{tiers: tiers}
}

// Result is the outcome of a single chain Read.
type Result struct {
	Value        any
	Found        bool
	HitLayer     key.Layer
	MissedLayers []key.Layer
}

// Read asks each participating tier in order. On the first hit, it
// populates every earlier participating tier with its configured TTL and
// returns. Tiers for which participating[layer] is false are skipped
// entirely — they are neither hit nor counted as a miss, since the
// controller already excluded them from this call via config/ramp.
func (c *Chain) Read(ctx context.Context, k key.Key, participating map[key.Layer]bool, ttls map[key.Layer]time.Duration, trackForInvalidation bool) Result {
	var missed []key.Layer
	for i, t := range c.tiers {
		layer := t.Layer()
		if !participating[layer] {
			continue
		}
		value, found := t.Get(ctx, k, trackForInvalidation)
		if found {
			for j := 0; j < i; j++ {
				earlier := c.tiers[j]
				earlierLayer := earlier.Layer()
				if participating[earlierLayer] {
					_ = earlier.Set(ctx, k, value, ttls[earlierLayer], trackForInvalidation)
				}
			}
			return Result{Value: value, Found: true, HitLayer: layer, MissedLayers: missed}
		}
		missed = append(missed, layer)
	}
	return Result{Found: false, MissedLayers: missed}
}

// WriteAll stores value in every participating tier, used after a total
// miss runs the fallback. Each tier's Set failure is its own concern
// (tier/remote is fail-open; tier/local never fails) — WriteAll doesn't
// stop on the first error.
func (c *Chain) WriteAll(ctx context.Context, k key.Key, value any, participating map[key.Layer]bool, ttls map[key.Layer]time.Duration, trackForInvalidation bool) {
	for _, t := range c.tiers {
		layer := t.Layer()
		if participating[layer] {
			_ = t.Set(ctx, k, value, ttls[layer], trackForInvalidation)
		}
	}
}

// Tiers exposes the underlying ordered tiers, mainly for Clear/Flushall
// callers that need to reach every tier rather than go through Read/WriteAll.
func (c *Chain) Tiers() []tier.Tier { return c.tiers }
