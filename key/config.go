package key

import "time"

// Config is the per-call, per-use-case policy: which layers participate,
// their TTLs, and their ramp (participation percentage). A missing entry
// in either map disables that layer for calls using this Config.
type Config struct {
	// TTL maps a layer to its entry lifetime. A layer absent from TTL is
	// disabled regardless of what Ramp says about it.
	TTL map[Layer]time.Duration

	// Ramp maps a layer to an integer participation percentage in
	// [0, 100]. 0 deterministically disables the layer for every call;
	// 100 deterministically enables it; values in between are resolved
	// with one uniform draw per call.
	Ramp map[Layer]int
}

// Enabled returns a Config with both Local and Remote enabled at ramp 100
// and the given TTL for both layers. It is the simplest on-ramp for a new
// registration and is used heavily in tests.
func Enabled(ttl time.Duration) Config {
	return Config{
		TTL:  map[Layer]time.Duration{Local: ttl, Remote: ttl},
		Ramp: map[Layer]int{Local: 100, Remote: 100},
	}
}

// EnabledPerLayer returns a Config with explicit per-layer TTL and ramp 100
// for every layer present in ttl.
func EnabledPerLayer(ttl map[Layer]time.Duration) Config {
	ramp := make(map[Layer]int, len(ttl))
	for l := range ttl {
		ramp[l] = 100
	}
	return Config{TTL: ttl, Ramp: ramp}
}

// TTLFor returns the configured TTL for layer and whether it is present.
func (c Config) TTLFor(l Layer) (time.Duration, bool) {
	if c.TTL == nil {
		return 0, false
	}
	ttl, ok := c.TTL[l]
	return ttl, ok
}

// RampFor returns the configured ramp percentage for layer, defaulting to
// 0 (never participates) when unset.
func (c Config) RampFor(l Layer) int {
	if c.Ramp == nil {
		return 0
	}
	return c.Ramp[l]
}
