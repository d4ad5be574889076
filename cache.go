// Package gcache is the public facade of a read-through, multi-tier
// function-result cache: register a function against a key descriptor,
// scope caching on with Enable, and invalidate by entity identity without
// ever deleting a key. Grounded on spec.md §4.I and the original
// implementation's module-level singleton (`_GLOBAL_GCACHE_STATE`), adapted
// to Go's lack of decorators via reflect-based function wrapping (see
// register.go) and to Go's lack of async/await via two generated call
// styles per registration (see Registration).
package gcache

import (
	"context"
	"sync"
	"time"

	"github.com/rungalileo/gcache/bridge"
	"github.com/rungalileo/gcache/chain"
	"github.com/rungalileo/gcache/controller"
	"github.com/rungalileo/gcache/errs"
	"github.com/rungalileo/gcache/key"
	"github.com/rungalileo/gcache/logging"
	"github.com/rungalileo/gcache/metrics"
	"github.com/rungalileo/gcache/tier"
	"github.com/rungalileo/gcache/tier/local"
	"github.com/rungalileo/gcache/tier/remote"
	"github.com/rungalileo/gcache/watermark"
)

var (
	singletonMu  sync.Mutex
	instantiated bool
)

// Config configures a Cache. The shared tier is optional: leave both
// Redis.Client and Redis.ClientFactory unset to run with the local tier
// only, backed by a tier.Noop shared tier.
type Config struct {
	// LocalCapacity overrides local.DefaultCapacity for every use case's
	// process-local engine.
	LocalCapacity int

	// Redis configures the shared tier. Zero value disables it.
	Redis remote.Config

	// Oracle is the configuration lookup consulted before a descriptor's
	// DefaultConfig. Optional.
	Oracle controller.Oracle

	// Metrics and Logger are shared across every component. Both default
	// to no-ops.
	Metrics metrics.Facade
	Logger  logging.Logger

	// BridgeWorkers overrides bridge.DefaultWorkers.
	BridgeWorkers int
}

// Cache is the process-wide cache facade. Exactly one is ever live at a
// time — see New.
type Cache struct {
	localTier  *local.Tier
	remoteTier *remote.Tier // nil when no shared tier is configured

	chain      *chain.Chain
	controller *controller.Controller
	watermark  *watermark.Engine
	bridge     *bridge.Bridge

	metrics metrics.Facade
	logger  logging.Logger

	mu       sync.Mutex
	useCases map[string]struct{}
}

// New constructs the process's Cache. Constructing a second one before the
// first calls Close is a SingletonViolation — spec.md's "process-wide
// singleton" invariant.
func New(cfg Config) (*Cache, error) {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	if instantiated {
		return nil, errs.NewSingletonViolationError()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp{}
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.Noop{}
	}

	localOpts := []local.Option{local.WithLogger(logger)}
	if cfg.LocalCapacity > 0 {
		localOpts = append(localOpts, local.WithCapacity(cfg.LocalCapacity))
	}
	localTier := local.New(localOpts...)

	var remoteTier *remote.Tier
	var shared tier.Tier = tier.NewNoop(key.Remote)
	var writer watermark.Writer
	if cfg.Redis.Client != nil || cfg.Redis.ClientFactory != nil {
		rc := cfg.Redis
		rc.Logger = logger
		rc.Metrics = m
		rt, err := remote.New(rc)
		if err != nil {
			return nil, err
		}
		remoteTier = rt
		shared = rt
		writer = rt
	}

	ch := chain.New(localTier, shared)
	ctrl := controller.New(ch,
		controller.WithOracle(cfg.Oracle),
		controller.WithMetrics(m),
		controller.WithLogger(logger),
	)
	wm := watermark.New(localTier, shared, writer, m)
	br := bridge.New(cfg.BridgeWorkers)

	c := &Cache{
		localTier:  localTier,
		remoteTier: remoteTier,
		chain:      ch,
		controller: ctrl,
		watermark:  wm,
		bridge:     br,
		metrics:    m,
		logger:     logger,
		useCases:   make(map[string]struct{}),
	}
	instantiated = true
	return c, nil
}

// registerUseCase validates d, rejects a duplicate or reserved use case,
// and binds its serializer into the shared tier.
func (c *Cache) registerUseCase(d key.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.useCases[d.UseCase]; exists {
		return errs.NewUseCaseAlreadyRegisteredError(d.UseCase)
	}
	c.useCases[d.UseCase] = struct{}{}
	if c.remoteTier != nil {
		c.remoteTier.Configure(d.UseCase, d.Serializer)
	}
	return nil
}

// Close stops the bridge pool, awaiting in-flight workers until ctx's
// deadline, and releases the singleton slot so a later New can succeed.
// The shared-tier client itself is owned by the caller (see remote.Config's
// doc comment) and is not closed here.
func (c *Cache) Close(ctx context.Context) error {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	err := c.bridge.Stop(ctx)
	instantiated = false
	return err
}

// defaultCloseTimeout bounds CloseDefault's grace period for in-flight
// bridge workers, matching spec.md §5's "short grace period".
const defaultCloseTimeout = 5 * time.Second

// CloseDefault calls Close with defaultCloseTimeout, for callers that don't
// need to tune the shutdown grace period themselves.
func (c *Cache) CloseDefault() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultCloseTimeout)
	defer cancel()
	return c.Close(ctx)
}
