// Package metrics defines the instrument set every gcache component
// reports through, independent of the telemetry backend. The default,
// zero-overhead implementation is Noop; production callers wire an
// OpenTelemetry-backed Facade from the sibling otel package.
package metrics

import (
	"time"

	"github.com/rungalileo/gcache/key"
)

// Disabled reasons, matching spec.md's disabled{reason} label values.
const (
	ReasonNotEnabled   = "not_enabled"
	ReasonRampedOff    = "ramped_off"
	ReasonNoConfig     = "no_config"
	ReasonKeyError     = "key_error"
	ReasonExplicit     = "explicitly_disabled"
)

// Serialization directions, matching spec.md's serialization_timer{direction}.
const (
	DirectionSerialize   = "ser"
	DirectionDeserialize = "de"
)

// Facade is the metrics surface every gcache component reports through.
// Implementations must be safe for concurrent use and, per the
// performance requirements carried over from the teacher's
// MetricsCollector interface, should be allocation-light on the hot path.
type Facade interface {
	// Request records one invocation of a registered function, whether or
	// not it ends up consulting the cache.
	Request(useCase, keyType string)

	// Miss records a single-layer cache miss.
	Miss(useCase, keyType string, layer key.Layer)

	// Disabled records a call that bypassed the cache entirely, tagged
	// with why (one of the Reason* constants).
	Disabled(useCase, keyType, reason string)

	// Error records a failure in a cache-path operation, tagged with the
	// stage it occurred in (e.g. "shared_get", "shared_set", "watermark",
	// "ser", "de", "key_build").
	Error(useCase, keyType, stage string)

	// Invalidation records one watermark write for keyType.
	Invalidation(keyType string)

	// GetTimer records cache-lookup wall time for one layer, excluding any
	// fallback execution (spec.md §4.F / Testable Property 10).
	GetTimer(useCase, keyType string, layer key.Layer, d time.Duration)

	// FallbackTimer records the underlying function's wall time on a
	// total miss.
	FallbackTimer(useCase, keyType string, d time.Duration)

	// SerializationTimer records (de)serialization wall time, tagged by
	// direction (DirectionSerialize or DirectionDeserialize).
	SerializationTimer(useCase, keyType, direction string, d time.Duration)

	// Size records the serialized byte size of a shared-tier write.
	Size(useCase, keyType string, layer key.Layer, bytes int)
}

// Noop is a Facade that discards everything. It is the default when no
// Facade is configured, mirroring the teacher's NoOpMetricsCollector.
type Noop struct{}

func (Noop) Request(useCase, keyType string)                                        {}
func (Noop) Miss(useCase, keyType string, layer key.Layer)                          {}
func (Noop) Disabled(useCase, keyType, reason string)                               {}
func (Noop) Error(useCase, keyType, stage string)                                    {}
func (Noop) Invalidation(keyType string)                                             {}
func (Noop) GetTimer(useCase, keyType string, layer key.Layer, d time.Duration)      {}
func (Noop) FallbackTimer(useCase, keyType string, d time.Duration)                  {}
func (Noop) SerializationTimer(useCase, keyType, direction string, d time.Duration)  {}
func (Noop) Size(useCase, keyType string, layer key.Layer, bytes int)                {}

var _ Facade = Noop{}
