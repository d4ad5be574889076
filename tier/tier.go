// Package tier defines the common Tier interface implemented by the
// process-local tier (tier/local), the shared network tier (tier/remote),
// and the no-op placeholder tier used when no shared-tier client is
// configured at all.
package tier

import (
	"context"
	"time"

	"github.com/rungalileo/gcache/key"
)

// Tier is one layer of the cache chain. Every method must be safe for
// concurrent use. trackForInvalidation is threaded through even to tiers
// that ignore it (the local tier) so the chain can call every tier
// uniformly.
type Tier interface {
	// Layer identifies which layer this Tier implements.
	Layer() key.Layer

	// Get returns the cached value for k, if present and not stale.
	Get(ctx context.Context, k key.Key, trackForInvalidation bool) (value any, found bool)

	// Set stores value for k with the given TTL.
	Set(ctx context.Context, k key.Key, value any, ttl time.Duration, trackForInvalidation bool) error

	// Delete removes k, reporting whether it was present.
	Delete(ctx context.Context, k key.Key) (removed bool, err error)

	// Clear removes every entry this tier holds.
	Clear(ctx context.Context) error
}

// Noop is a Tier that never stores anything, used in place of the shared
// tier when no network client is configured — grounded on the original
// implementation's NoopCache, which always falls through.
type Noop struct{ layer key.Layer }

// NewNoop returns a Noop tier reporting the given layer.
func NewNoop(layer key.Layer) Noop { return Noop{layer: layer} }

func (n Noop) Layer() key.Layer { return n.layer }

func (Noop) Get(ctx context.Context, k key.Key, trackForInvalidation bool) (any, bool) {
	return nil, false
}

func (Noop) Set(ctx context.Context, k key.Key, value any, ttl time.Duration, trackForInvalidation bool) error {
	return nil
}

func (Noop) Delete(ctx context.Context, k key.Key) (bool, error) { return false, nil }

func (Noop) Clear(ctx context.Context) error { return nil }

var _ Tier = Noop{}
