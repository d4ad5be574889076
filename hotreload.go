package gcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agilira/argus"

	"github.com/rungalileo/gcache/controller"
	"github.com/rungalileo/gcache/key"
	"github.com/rungalileo/gcache/logging"
)

// DynamicOracle is a controller.Oracle backed by a watched configuration
// file: per-use-case TTL and ramp can be tuned, or a use case ramped to
// zero, without a process restart. Generalizes agilira-balios's HotConfig
// (hot-reload.go) — which hot-reloads one process-wide Config — to a
// per-use-case map, since gcache's unit of configuration is the use case,
// not the whole cache.
type DynamicOracle struct {
	watcher *argus.Watcher
	logger  logging.Logger

	mu      sync.RWMutex
	configs map[string]key.Config

	// OnReload is called after a reload that added or changed at least one
	// use case's Config, with those use cases. It is not called when nothing
	// changed, and use cases removed from the file are not reported.
	// Optional; must be fast and non-blocking, matching agilira-balios's
	// documented OnReload contract.
	OnReload func(changed []string)
}

// WatchOptions configures WatchConfig.
type WatchOptions struct {
	// PollInterval is how often the file is checked for changes. Default
	// 1s, minimum 100ms — agilira-balios's defaults, carried over as-is.
	PollInterval time.Duration

	// OnReload is called after a reload that added or changed at least one
	// use case's Config (see DynamicOracle.OnReload).
	OnReload func(changed []string)

	// Logger receives reload diagnostics. Defaults to a no-op.
	Logger logging.Logger
}

// WatchConfig starts watching configPath for per-use-case cache policy and
// returns an Oracle to pass as Config.Oracle. Supported formats follow
// argus.UniversalConfigWatcher: JSON, YAML, TOML, HCL, INI, Properties.
//
// Expected shape (YAML):
//
//	use_cases:
//	  user_profile:
//	    ttl_local: "30s"
//	    ttl_remote: "5m"
//	    ramp_local: 100
//	    ramp_remote: 100
//	  search_results:
//	    ttl_remote: "1m"
//	    ramp_remote: 50
//
// A use case entirely absent from the file keeps whatever Config its
// descriptor's DefaultConfig supplies — the oracle only overrides use
// cases it actually finds.
func WatchConfig(configPath string, opts WatchOptions) (*DynamicOracle, error) {
	if configPath == "" {
		return nil, fmt.Errorf("gcache: WatchConfig requires a non-empty configPath")
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOp{}
	}

	do := &DynamicOracle{
		logger:   logger,
		configs:  make(map[string]key.Config),
		OnReload: opts.OnReload,
	}

	watcher, err := argus.UniversalConfigWatcherWithConfig(configPath, do.handleChange, argus.Config{
		PollInterval: opts.PollInterval,
	})
	if err != nil {
		return nil, err
	}
	do.watcher = watcher
	return do, nil
}

// Start begins watching, matching agilira-balios's HotConfig.Start
// idempotency (returns nil if already running rather than the watcher's
// ARGUS_WATCHER_BUSY error).
func (do *DynamicOracle) Start() error {
	if do.watcher.IsRunning() {
		return nil
	}
	return do.watcher.Start()
}

// Stop stops watching the configuration file.
func (do *DynamicOracle) Stop() error {
	return do.watcher.Stop()
}

// Lookup implements controller.Oracle: it returns the watched Config for
// k.UseCase, or (nil, nil) — not an error — when that use case has no
// entry in the file, so the controller falls back to the descriptor's
// DefaultConfig.
func (do *DynamicOracle) Lookup(_ context.Context, k key.Key) (*key.Config, error) {
	do.mu.RLock()
	defer do.mu.RUnlock()
	cfg, ok := do.configs[k.UseCase]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

var _ controller.Oracle = (*DynamicOracle)(nil)

func (do *DynamicOracle) handleChange(data map[string]interface{}) {
	parsed := parseUseCaseConfigs(data)

	do.mu.Lock()
	changed := make([]string, 0, len(parsed))
	for useCase, cfg := range parsed {
		if old, ok := do.configs[useCase]; !ok || !configsEqual(old, cfg) {
			changed = append(changed, useCase)
		}
	}
	do.configs = parsed
	do.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	do.logger.Info("cache config reloaded", "use_cases_changed", changed)
	if do.OnReload != nil {
		do.OnReload(changed)
	}
}

func parseUseCaseConfigs(data map[string]interface{}) map[string]key.Config {
	out := make(map[string]key.Config)
	section, ok := data["use_cases"].(map[string]interface{})
	if !ok {
		return out
	}
	for useCase, raw := range section {
		fields, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		cfg := key.Config{TTL: map[key.Layer]time.Duration{}, Ramp: map[key.Layer]int{}}
		if ttl, ok := parseDuration(fields["ttl_local"]); ok {
			cfg.TTL[key.Local] = ttl
		}
		if ttl, ok := parseDuration(fields["ttl_remote"]); ok {
			cfg.TTL[key.Remote] = ttl
		}
		if ramp, ok := parseIntInRange(fields["ramp_local"], 0, 100); ok {
			cfg.Ramp[key.Local] = ramp
		}
		if ramp, ok := parseIntInRange(fields["ramp_remote"], 0, 100); ok {
			cfg.Ramp[key.Remote] = ramp
		}
		out[useCase] = cfg
	}
	return out
}

// parseDuration and parseIntInRange follow agilira-balios's hot-reload.go
// helpers of the same name: Argus delivers YAML/JSON/TOML values as
// interface{}, and numeric fields may surface as either int or float64
// depending on the source format.
func parseDuration(value interface{}) (time.Duration, bool) {
	if str, ok := value.(string); ok {
		if d, err := time.ParseDuration(str); err == nil {
			return d, true
		}
	}
	return 0, false
}

func parseIntInRange(value interface{}, min, max int) (int, bool) {
	switch v := value.(type) {
	case int:
		if v >= min && v <= max {
			return v, true
		}
	case float64:
		if int(v) >= min && int(v) <= max {
			return int(v), true
		}
	}
	return 0, false
}

func configsEqual(a, b key.Config) bool {
	if len(a.TTL) != len(b.TTL) || len(a.Ramp) != len(b.Ramp) {
		return false
	}
	for layer, ttl := range a.TTL {
		if b.TTL[layer] != ttl {
			return false
		}
	}
	for layer, ramp := range a.Ramp {
		if b.Ramp[layer] != ramp {
			return false
		}
	}
	return true
}
