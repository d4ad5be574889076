// Package remote implements the shared network cache tier on top of Redis,
// grounded on agentuity-go-common/cache's redisCache (get/set/pipeline
// idiom) and generalized per spec.md §4.D with envelope-plus-watermark
// batched reads for invalidation-tracked keys.
//
// Every operation here is fail-open: a transport, serialization, or
// protocol error is logged, counted, and turned into a plain miss (reads)
// or a silent success (writes) — it never reaches the caller. The shared
// tier is an optimization, not a dependency the calling code can trust.
package remote

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rungalileo/gcache/errs"
	"github.com/rungalileo/gcache/internal/clock"
	"github.com/rungalileo/gcache/key"
	"github.com/rungalileo/gcache/logging"
	"github.com/rungalileo/gcache/metrics"
)

// Tier is the shared, Redis-backed cache tier.
type Tier struct {
	client redis.Cmdable
	clk    clock.Provider

	prefix         string
	queryTimeout   time.Duration
	watermarkTTL   time.Duration
	asyncThreshold int

	pool    *pool
	logger  logging.Logger
	metrics metrics.Facade

	mu          sync.RWMutex
	serializers map[string]key.Serializer // by use case
}

// New constructs a shared tier. Exactly one of Config.Client or
// Config.ClientFactory must be set.
func New(cfg Config) (*Tier, error) {
	if cfg.Client != nil && cfg.ClientFactory != nil {
		return nil, errs.NewConflictingRedisConfigError()
	}
	client := cfg.Client
	if client == nil {
		if cfg.ClientFactory == nil {
			return nil, errs.NewMissingRedisClientError()
		}
		c, err := cfg.ClientFactory()
		if err != nil {
			return nil, err
		}
		client = c
	}

	cfg = cfg.withDefaults()
	return &Tier{
		client:         client,
		clk:            clock.System{},
		prefix:         cfg.Prefix,
		queryTimeout:   cfg.QueryTimeout,
		watermarkTTL:   cfg.WatermarkTTL,
		asyncThreshold: cfg.AsyncThresholdBytes,
		pool:           newPool(cfg.OffloadWorkers),
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		serializers:    make(map[string]key.Serializer),
	}, nil
}

func (t *Tier) Layer() key.Layer { return key.Remote }

// Configure binds the serializer a use case's descriptor selected, so Get
// and Set can (de)serialize without threading a Serializer through the
// uniform tier.Tier interface. Called once at registration time; a use case
// never configured falls back to key.DefaultSerializer.
func (t *Tier) Configure(useCase string, s key.Serializer) {
	if s == nil {
		s = key.DefaultSerializer
	}
	t.mu.Lock()
	t.serializers[useCase] = s
	t.mu.Unlock()
}

func (t *Tier) serializerFor(useCase string) key.Serializer {
	t.mu.RLock()
	s, ok := t.serializers[useCase]
	t.mu.RUnlock()
	if !ok {
		return key.DefaultSerializer
	}
	return s
}

// Get fetches k's value. When trackForInvalidation is set, the envelope and
// the watermark for k's (key_type, id) are fetched in one round trip; a
// watermark newer than the envelope's write time is a stale-miss and the
// local tier is deliberately not repopulated by the caller in that case.
func (t *Tier) Get(ctx context.Context, k key.Key, trackForInvalidation bool) (any, bool) {
	qctx, cancel := context.WithTimeout(ctx, t.queryTimeout)
	defer cancel()

	if !trackForInvalidation {
		raw, err := t.client.Get(qctx, k.Canonical(t.prefix)).Bytes()
		if err == redis.Nil {
			return nil, false
		}
		if err != nil {
			t.fail(k.UseCase, k.KeyType, "shared_get", err)
			return nil, false
		}
		value, err := t.deserialize(k.UseCase, k.KeyType, raw)
		if err != nil {
			t.fail(k.UseCase, k.KeyType, metrics.DirectionDeserialize, err)
			return nil, false
		}
		return value, true
	}

	storageKey := k.TrackedCanonical(t.prefix)
	watermarkKey := key.WatermarkKey(t.prefix, k.KeyType, k.ID)
	results, err := t.client.MGet(qctx, storageKey, watermarkKey).Result()
	if err != nil {
		t.fail(k.UseCase, k.KeyType, "shared_get", err)
		return nil, false
	}
	if len(results) == 0 || results[0] == nil {
		return nil, false
	}
	envRaw, ok := results[0].(string)
	if !ok {
		t.fail(k.UseCase, k.KeyType, "shared_get", fmt.Errorf("unexpected envelope value type %T", results[0]))
		return nil, false
	}
	env, err := decodeEnvelope([]byte(envRaw))
	if err != nil {
		t.fail(k.UseCase, k.KeyType, metrics.DirectionDeserialize, err)
		return nil, false
	}

	if len(results) > 1 && results[1] != nil {
		if wmRaw, ok := results[1].(string); ok {
			if wm, perr := strconv.ParseInt(wmRaw, 10, 64); perr == nil && wm > env.CreatedAt {
				return nil, false // stale-miss: do not repopulate the local tier
			}
		}
	}

	value, err := t.deserialize(k.UseCase, k.KeyType, env.Payload)
	if err != nil {
		t.fail(k.UseCase, k.KeyType, metrics.DirectionDeserialize, err)
		return nil, false
	}
	return value, true
}

// Set stores value for k. Failures are logged and counted but never
// returned — a shared-tier write failure must not surface to the caller
// that already has its fallback result in hand.
func (t *Tier) Set(ctx context.Context, k key.Key, value any, ttl time.Duration, trackForInvalidation bool) error {
	qctx, cancel := context.WithTimeout(ctx, t.queryTimeout)
	defer cancel()

	payload, err := t.serialize(k.UseCase, k.KeyType, value)
	if err != nil {
		t.fail(k.UseCase, k.KeyType, metrics.DirectionSerialize, err)
		return nil
	}
	t.metrics.Size(k.UseCase, k.KeyType, key.Remote, len(payload))

	if !trackForInvalidation {
		if err := t.client.Set(qctx, k.Canonical(t.prefix), payload, ttl).Err(); err != nil {
			t.fail(k.UseCase, k.KeyType, "shared_set", err)
		}
		return nil
	}

	encoded, err := encodeEnvelope(envelope{Payload: payload, CreatedAt: t.clk.NowMilli()})
	if err != nil {
		t.fail(k.UseCase, k.KeyType, metrics.DirectionSerialize, err)
		return nil
	}
	if err := t.client.Set(qctx, k.TrackedCanonical(t.prefix), encoded, ttl).Err(); err != nil {
		t.fail(k.UseCase, k.KeyType, "shared_set", err)
	}
	return nil
}

// Delete removes k's envelope, under whichever of its two possible storage
// forms (tracked or untracked) it was written with — the uniform tier.Tier
// interface doesn't carry trackForInvalidation here, so both are targeted;
// deleting a key that was never written is a harmless no-op.
func (t *Tier) Delete(ctx context.Context, k key.Key) (bool, error) {
	qctx, cancel := context.WithTimeout(ctx, t.queryTimeout)
	defer cancel()
	n, err := t.client.Del(qctx, k.Canonical(t.prefix), k.TrackedCanonical(t.prefix)).Result()
	if err != nil {
		t.fail(k.UseCase, k.KeyType, "delete", err)
		return false, nil
	}
	return n > 0, nil
}

// Clear flushes the entire Redis keyspace this Tier's client reaches. In a
// deployment sharing a Redis instance across services this is a blunt
// instrument; spec.md's flushall is defined at that granularity regardless.
func (t *Tier) Clear(ctx context.Context) error {
	qctx, cancel := context.WithTimeout(ctx, t.queryTimeout)
	defer cancel()
	if err := t.client.FlushAll(qctx).Err(); err != nil {
		t.fail("", "", "flushall", err)
	}
	return nil
}

// WriteWatermark writes now_ms()+bufferMS under (keyType, id)'s watermark
// key with a TTL long enough to outlive any envelope it must shadow.
func (t *Tier) WriteWatermark(ctx context.Context, keyType, id string, bufferMS int64) error {
	qctx, cancel := context.WithTimeout(ctx, t.queryTimeout)
	defer cancel()
	wmKey := key.WatermarkKey(t.prefix, keyType, id)
	value := t.clk.NowMilli() + bufferMS
	if err := t.client.Set(qctx, wmKey, value, t.watermarkTTL).Err(); err != nil {
		t.fail("", keyType, "watermark", err)
	}
	return nil
}

func (t *Tier) serialize(useCase, keyType string, value any) ([]byte, error) {
	s := t.serializerFor(useCase)
	start := time.Now()
	var out []byte
	var err error
	if t.shouldOffload(value) {
		t.pool.run(func() { out, err = s.Serialize(value) })
	} else {
		out, err = s.Serialize(value)
	}
	t.metrics.SerializationTimer(useCase, keyType, metrics.DirectionSerialize, time.Since(start))
	return out, err
}

func (t *Tier) deserialize(useCase, keyType string, data []byte) (any, error) {
	s := t.serializerFor(useCase)
	start := time.Now()
	var out any
	var err error
	if len(data) >= t.asyncThreshold {
		t.pool.run(func() { out, err = s.Deserialize(data) })
	} else {
		out, err = s.Deserialize(data)
	}
	t.metrics.SerializationTimer(useCase, keyType, metrics.DirectionDeserialize, time.Since(start))
	return out, err
}

// shouldOffload estimates whether value is large enough to offload before
// it has actually been serialized. Only []byte and string values carry a
// cheap upfront size; anything else serializes inline — its cost is paid
// either way, so the offload pool only helps bound the common large-blob
// case.
func (t *Tier) shouldOffload(value any) bool {
	switch v := value.(type) {
	case []byte:
		return len(v) >= t.asyncThreshold
	case string:
		return len(v) >= t.asyncThreshold
	default:
		return false
	}
}

func (t *Tier) fail(useCase, keyType, stage string, err error) {
	t.logger.Warn("shared tier operation failed",
		"stage", stage, "use_case", useCase, "key_type", keyType, "error", err)
	t.metrics.Error(useCase, keyType, stage)
}

var _ interface {
	Layer() key.Layer
	Get(context.Context, key.Key, bool) (any, bool)
	Set(context.Context, key.Key, any, time.Duration, bool) error
	Delete(context.Context, key.Key) (bool, error)
	Clear(context.Context) error
} = (*Tier)(nil)
