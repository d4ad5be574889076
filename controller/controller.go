// Package controller implements the per-call cached-function policy
// described in spec.md §4.F: enablement check, key build, config
// resolution, per-layer ramp draw, chain read, and fallback-on-miss. There
// is no teacher analogue for this exact policy — agilira-balios's
// GetOrLoad (loading.go) is the closest relative, contributing the
// miss-then-fallback-then-populate shape and the panic-recovery idiom
// around the fallback call, generalized here to a two-tier, ramped,
// config-driven version.
package controller

import (
	"context"
	"math/rand"
	"time"

	"github.com/rungalileo/gcache/chain"
	"github.com/rungalileo/gcache/errs"
	"github.com/rungalileo/gcache/internal/scope"
	"github.com/rungalileo/gcache/key"
	"github.com/rungalileo/gcache/logging"
	"github.com/rungalileo/gcache/metrics"
)

// Controller runs the cached-call policy over one cache Chain.
type Controller struct {
	chain   *chain.Chain
	oracle  Oracle
	metrics metrics.Facade
	logger  logging.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithOracle sets the configuration oracle consulted before a descriptor's
// DefaultConfig. Omit it to rely solely on DefaultConfig.
func WithOracle(o Oracle) Option {
	return func(c *Controller) { c.oracle = o }
}

// WithMetrics sets the Facade every step of the policy reports through.
func WithMetrics(m metrics.Facade) Option {
	return func(c *Controller) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithLogger sets the Logger used for bypass, oracle-failure and
// fallback-panic diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New constructs a Controller over chain c.
func New(c *chain.Chain, opts ...Option) *Controller {
	ctrl := &Controller{
		chain:   c,
		metrics: metrics.Noop{},
		logger:  logging.NoOp{},
	}
	for _, opt := range opts {
		opt(ctrl)
	}
	return ctrl
}

// Params is one cached call: the registration it was made through, the
// call's bound arguments (for key construction), and the underlying
// function to run on a miss.
type Params struct {
	Descriptor key.Descriptor
	Args       map[string]any
	Fallback   func(ctx context.Context) (any, error)
}

// Call runs the seven-step policy from spec.md §4.F.
func (c *Controller) Call(ctx context.Context, p Params) (any, error) {
	useCase, keyType := p.Descriptor.UseCase, p.Descriptor.KeyType

	// 1. Record request_counter.
	c.metrics.Request(useCase, keyType)

	// 2. Enable-scope check.
	if !scope.Active(ctx) {
		c.metrics.Disabled(useCase, keyType, metrics.ReasonNotEnabled)
		c.logger.Debug("cache bypassed", "use_case", useCase, "key_type", keyType, "reason", metrics.ReasonNotEnabled)
		return p.Fallback(ctx)
	}

	// 3. Build the Key.
	k, err := p.Descriptor.Bind(p.Args)
	if err != nil {
		c.metrics.Disabled(useCase, keyType, metrics.ReasonKeyError)
		c.metrics.Error(useCase, keyType, "key_build")
		c.logger.Debug("cache bypassed", "use_case", useCase, "key_type", keyType, "reason", metrics.ReasonKeyError, "error", err)
		return p.Fallback(ctx)
	}

	// 4. Resolve Config: oracle first, descriptor default otherwise.
	cfg, ok := c.resolveConfig(ctx, k, p.Descriptor)
	if !ok {
		c.metrics.Disabled(useCase, keyType, metrics.ReasonNoConfig)
		c.logger.Debug("cache bypassed", "use_case", useCase, "key_type", keyType, "reason", metrics.ReasonNoConfig)
		return p.Fallback(ctx)
	}

	// 5. Per-layer ramp draw.
	participating, ttls := decideParticipation(cfg)
	if len(participating) == 0 {
		c.metrics.Disabled(useCase, keyType, metrics.ReasonRampedOff)
		c.logger.Debug("cache bypassed", "use_case", useCase, "key_type", keyType, "reason", metrics.ReasonRampedOff)
		return p.Fallback(ctx)
	}

	// 6. Chain read.
	start := time.Now()
	result := c.chain.Read(ctx, k, participating, ttls, p.Descriptor.TrackForInvalidation)
	for _, missed := range result.MissedLayers {
		c.metrics.Miss(useCase, keyType, missed)
	}
	if result.Found {
		c.metrics.GetTimer(useCase, keyType, result.HitLayer, time.Since(start))
		return result.Value, nil
	}

	// 7. Total miss: run the fallback. Its error propagates unchanged. A
	// panic is recorded (metrics + log) and then re-panicked with the
	// original value so the caller sees exactly what the fallback raised.
	// get_timer is still observed on a miss, net of the fallback's own
	// duration, so it reflects cache-path latency alone either way.
	fbStart := time.Now()
	value, err := c.runFallback(ctx, p.Fallback, useCase, keyType)
	fbDuration := time.Since(fbStart)
	c.metrics.FallbackTimer(useCase, keyType, fbDuration)
	c.metrics.GetTimer(useCase, keyType, result.MissedLayers[len(result.MissedLayers)-1], time.Since(start)-fbDuration)
	if err != nil {
		return nil, err
	}
	c.chain.WriteAll(ctx, k, value, participating, ttls, p.Descriptor.TrackForInvalidation)
	return value, nil
}

func (c *Controller) resolveConfig(ctx context.Context, k key.Key, d key.Descriptor) (key.Config, bool) {
	if c.oracle != nil {
		cfg, err := c.oracle.Lookup(ctx, k)
		if err != nil {
			c.logger.Warn("config oracle lookup failed", "use_case", d.UseCase, "error", err)
		} else if cfg != nil {
			return *cfg, true
		}
	}
	if d.DefaultConfig != nil {
		return *d.DefaultConfig, true
	}
	return key.Config{}, false
}

// decideParticipation draws one ramp decision per layer that has a
// configured TTL. A layer missing a TTL is disabled outright, per spec.md
// §3: "Missing entries mean that layer is disabled for this call."
func decideParticipation(cfg key.Config) (map[key.Layer]bool, map[key.Layer]time.Duration) {
	participating := make(map[key.Layer]bool, 2)
	ttls := make(map[key.Layer]time.Duration, 2)
	for _, layer := range [...]key.Layer{key.Local, key.Remote} {
		ttl, hasTTL := cfg.TTLFor(layer)
		if !hasTTL {
			continue
		}
		if !rampPasses(cfg.RampFor(layer)) {
			continue
		}
		participating[layer] = true
		ttls[layer] = ttl
	}
	return participating, ttls
}

// rampPasses draws the per-call Bernoulli gate. ramp<=0 always declines;
// ramp>=100 always participates; math/rand's top-level source is safe for
// concurrent use, so no additional locking is needed here.
func rampPasses(ramp int) bool {
	if ramp <= 0 {
		return false
	}
	if ramp >= 100 {
		return true
	}
	return rand.Intn(100)+1 <= ramp
}

// runFallback recovers a panicking fallback just long enough to record it,
// then re-panics with the original value so the panic the caller observes
// is indistinguishable from one the fallback raised directly — spec.md §7
// requires fallback exceptions to propagate unchanged, so this is a
// report-don't-swallow recovery, not an error-conversion one, grounded on
// agilira-balios/loading.go's panic-recovery wrapper around its own loader
// callback.
func (c *Controller) runFallback(ctx context.Context, fn func(context.Context) (any, error), useCase, keyType string) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.metrics.Error(useCase, keyType, "fallback_panic")
			c.logger.Error("fallback panicked", "use_case", useCase, "key_type", keyType,
				"error", errs.NewPanicRecoveredError("fallback", r))
			panic(r)
		}
	}()
	return fn(ctx)
}
