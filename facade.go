package gcache

import (
	"context"

	"github.com/rungalileo/gcache/internal/scope"
	"github.com/rungalileo/gcache/key"
)

// Enable returns a context in which the cache-enable scope is active (or
// explicitly inactive, if active is false). Nesting is LIFO for free:
// derive a child scope, use it for a sub-tree of calls, then resume using
// the parent context to restore the enclosing scope — spec.md §5.
func Enable(ctx context.Context, active bool) context.Context {
	return scope.WithEnabled(ctx, active)
}

// Invalidate writes a watermark for (keyType, id), so every tracked
// shared-tier envelope encoding that entity reads as a miss on its next
// access, regardless of use case or args. bufferMS extends the
// invalidation horizon to cover writes already in flight.
func (c *Cache) Invalidate(ctx context.Context, keyType, id string, bufferMS int64) error {
	return c.watermark.Invalidate(ctx, keyType, id, bufferMS)
}

// InvalidateAsync runs Invalidate on a new goroutine, returning a
// single-value channel with its result.
func (c *Cache) InvalidateAsync(ctx context.Context, keyType, id string, bufferMS int64) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- c.Invalidate(ctx, keyType, id, bufferMS) }()
	return ch
}

// Flushall clears both tiers outright.
func (c *Cache) Flushall(ctx context.Context) error {
	return c.watermark.Flushall(ctx)
}

// FlushallAsync runs Flushall on a new goroutine, returning a single-value
// channel with its result.
func (c *Cache) FlushallAsync(ctx context.Context) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- c.Flushall(ctx) }()
	return ch
}

// Remove deletes k directly from both tiers, at the caller's risk — unlike
// Invalidate, this targets one specific (use_case, args) combination rather
// than every entry for k's entity.
func (c *Cache) Remove(ctx context.Context, k key.Key) (bool, error) {
	removedLocal, _ := c.localTier.Delete(ctx, k)
	if c.remoteTier == nil {
		return removedLocal, nil
	}
	removedRemote, err := c.remoteTier.Delete(ctx, k)
	return removedLocal || removedRemote, err
}

// RemoveAsync runs Remove on a new goroutine, returning a single-value
// channel with its result.
func (c *Cache) RemoveAsync(ctx context.Context, k key.Key) <-chan RemoveResult {
	ch := make(chan RemoveResult, 1)
	go func() {
		removed, err := c.Remove(ctx, k)
		ch <- RemoveResult{Removed: removed, Err: err}
	}()
	return ch
}

// RemoveResult is RemoveAsync's channel element, since Go channels carry
// one value and Remove returns two.
type RemoveResult struct {
	Removed bool
	Err     error
}
