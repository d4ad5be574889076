package remote

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rungalileo/gcache/logging"
	"github.com/rungalileo/gcache/metrics"
)

// DefaultQueryTimeout bounds every individual shared-tier round trip,
// grounded on agentuity-go-common/cache's DefaultQueryTimeout for the same
// purpose, shortened because the shared tier sits directly on a registered
// function's hot path rather than behind an explicit cache-aside call.
const DefaultQueryTimeout = 1 * time.Second

// DefaultWatermarkTTL must exceed the longest envelope TTL any descriptor
// configures, or an old watermark could expire while a still-live envelope
// it should be shadowing survives. 4 hours matches the original
// implementation's fixed watermark TTL; a deployment with longer envelope
// TTLs must raise it via Config.WatermarkTTL.
const DefaultWatermarkTTL = 4 * time.Hour

// DefaultAsyncThresholdBytes is the payload size above which (de)serialize
// work is routed through the offload pool instead of running inline.
const DefaultAsyncThresholdBytes = 50 * 1024

// DefaultOffloadWorkers bounds concurrent large-payload (de)serialization.
const DefaultOffloadWorkers = 4

// DefaultPrefix matches key.Key's own zero-value String() prefix, so a
// shared tier constructed with no explicit prefix produces the same storage
// keys the debug/test-facing Canonical format uses.
const DefaultPrefix = "urn"

// Config configures a shared-tier Tier. Exactly one of Client or
// ClientFactory must be set.
type Config struct {
	// Client is a ready-to-use Redis connection (single-node or cluster;
	// both satisfy redis.Cmdable). The Tier never closes it — the caller
	// owns its lifecycle, matching the teacher's NewRedis convention.
	Client redis.Cmdable

	// ClientFactory builds the client lazily at construction time instead
	// of the caller building it upfront. Mutually exclusive with Client.
	ClientFactory func() (redis.Cmdable, error)

	// Prefix namespaces every storage key this Tier produces. Defaults to
	// DefaultPrefix.
	Prefix string

	QueryTimeout        time.Duration
	WatermarkTTL        time.Duration
	AsyncThresholdBytes int
	OffloadWorkers      int

	Logger  logging.Logger
	Metrics metrics.Facade
}

func (c Config) withDefaults() Config {
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = DefaultQueryTimeout
	}
	if c.WatermarkTTL <= 0 {
		c.WatermarkTTL = DefaultWatermarkTTL
	}
	if c.AsyncThresholdBytes <= 0 {
		c.AsyncThresholdBytes = DefaultAsyncThresholdBytes
	}
	if c.OffloadWorkers <= 0 {
		c.OffloadWorkers = DefaultOffloadWorkers
	}
	if c.Logger == nil {
		c.Logger = logging.NoOp{}
	}
	if c.Metrics == nil {
		c.Metrics = metrics.Noop{}
	}
	return c
}
