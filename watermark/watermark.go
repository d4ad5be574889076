// Package watermark implements invalidation as a thin projection over the
// shared tier: writing a watermark never deletes anything, it only raises
// the bar a subsequent read's envelope timestamp must clear. Grounded on
// spec.md §4.G; there is no teacher analogue since agilira-balios has no
// invalidation concept at all (its cache only expires entries by TTL).
package watermark

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rungalileo/gcache/metrics"
	"github.com/rungalileo/gcache/tier"
)

// Writer is the subset of the shared tier's surface the watermark engine
// needs. tier/remote.Tier satisfies it; a deployment with no shared tier
// configured passes a nil Writer and Invalidate becomes a no-op, since
// there is nothing to shadow without a shared tier.
type Writer interface {
	WriteWatermark(ctx context.Context, keyType, id string, bufferMS int64) error
}

// Engine is the watermark projection over a cache chain's two tiers.
type Engine struct {
	local   tier.Tier
	shared  tier.Tier
	writer  Writer
	metrics metrics.Facade
}

// New constructs a watermark Engine. shared and writer are typically backed
// by the same *remote.Tier; they're accepted separately so this package
// never needs to import tier/remote directly.
func New(local, shared tier.Tier, writer Writer, m metrics.Facade) *Engine {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Engine{local: local, shared: shared, writer: writer, metrics: m}
}

// Invalidate writes a watermark for (keyType, id) so every shared-tier
// envelope encoding that entity — regardless of use case or args — reads
// as a miss on its next access, for descriptors with TrackForInvalidation
// set. bufferMS extends the invalidation horizon into the future to cover
// writes already in flight when Invalidate is called.
func (e *Engine) Invalidate(ctx context.Context, keyType, id string, bufferMS int64) error {
	if e.writer == nil {
		return nil
	}
	if err := e.writer.WriteWatermark(ctx, keyType, id, bufferMS); err != nil {
		return err
	}
	e.metrics.Invalidation(keyType)
	return nil
}

// Flushall clears both tiers outright, concurrently. Unlike Invalidate, it
// removes entries rather than shadowing them.
func (e *Engine) Flushall(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.local.Clear(gctx) })
	g.Go(func() error { return e.shared.Clear(gctx) })
	return g.Wait()
}
