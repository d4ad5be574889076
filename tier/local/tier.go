// Package local implements the process-local cache tier: a bounded,
// TTL-indexed, expiry-and-recency-evicting cache per use case, lazily
// created on first use.
//
// The lock-free open-addressed table is grounded on agilira-balios's
// cache.go; this package generalizes it from "one cache for the whole
// process" to "one engine per use case", mirroring the original Python
// implementation's LocalCache, which keeps a separate cachetools.TTLCache
// per use case and creates each lazily under a lock on first access.
// Eviction itself departs from the teacher's frequency-sketch ranking:
// because each Set call here can carry its own TTL rather than one fixed
// at construction, a sampled slot is as likely to be expired dead weight
// as a genuine low-value entry, so eviction prefers reclaiming an expired
// slot outright and only falls back to least-recently-used among live
// candidates.
//
// The local tier is, by design, oblivious to watermarks: it never checks
// or stores them, and invalidate() never reaches it. Its staleness is
// bounded only by its own TTL and capacity.
package local

import (
	"context"
	"sync"
	"time"

	"github.com/rungalileo/gcache/internal/clock"
	"github.com/rungalileo/gcache/key"
	"github.com/rungalileo/gcache/logging"
)

// DefaultCapacity is the default number of entries held per use case. The
// exact capacity is unspecified by the system this library implements;
// 10,000 matches the original implementation's LOCAL_CACHE_MAX_SIZE.
const DefaultCapacity = 10_000

// Tier is the process-local cache tier.
type Tier struct {
	capacity int
	clk      clock.Provider
	logger   logging.Logger

	mu      sync.Mutex
	engines map[string]*engine // keyed by use case
}

// Option configures Tier construction.
type Option func(*Tier)

// WithCapacity overrides DefaultCapacity for every per-use-case engine.
func WithCapacity(n int) Option {
	return func(t *Tier) {
		if n > 0 {
			t.capacity = n
		}
	}
}

// WithClock overrides the default clock.System provider (tests mainly).
func WithClock(c clock.Provider) Option {
	return func(t *Tier) { t.clk = c }
}

// WithLogger sets the Logger used for diagnostic messages.
func WithLogger(l logging.Logger) Option {
	return func(t *Tier) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a local Tier. Per-use-case engines are created lazily on
// first access.
func New(opts ...Option) *Tier {
	t := &Tier{
		capacity: DefaultCapacity,
		clk:      clock.System{},
		logger:   logging.NoOp{},
		engines:  make(map[string]*engine),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tier) Layer() key.Layer { return key.Local }

func (t *Tier) engineFor(useCase string) *engine {
	t.mu.Lock()
	e, ok := t.engines[useCase]
	if !ok {
		e = newEngine(t.capacity, t.clk)
		t.engines[useCase] = e
	}
	t.mu.Unlock()
	return e
}

// Get returns the cached value for k. trackForInvalidation is accepted
// only to satisfy tier.Tier's uniform signature — the local tier never
// consults watermarks.
func (t *Tier) Get(_ context.Context, k key.Key, _ bool) (any, bool) {
	return t.engineFor(k.UseCase).get(k.String())
}

// Set stores value for k with the given TTL.
func (t *Tier) Set(_ context.Context, k key.Key, value any, ttl time.Duration, _ bool) error {
	t.engineFor(k.UseCase).set(k.String(), value, int64(ttl))
	return nil
}

// Delete removes k from its use case's engine.
func (t *Tier) Delete(_ context.Context, k key.Key) (bool, error) {
	return t.engineFor(k.UseCase).delete(k.String()), nil
}

// Clear removes every entry from every use case's engine.
func (t *Tier) Clear(_ context.Context) error {
	t.mu.Lock()
	engines := make([]*engine, 0, len(t.engines))
	for _, e := range t.engines {
		engines = append(engines, e)
	}
	t.mu.Unlock()
	for _, e := range engines {
		e.clear()
	}
	return nil
}

// Stats reports the current entry count of each use case's engine, keyed
// by use case, useful for diagnostics and tests.
func (t *Tier) Stats() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.engines))
	for useCase, e := range t.engines {
		out[useCase] = e.len()
	}
	return out
}
