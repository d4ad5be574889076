package gcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rungalileo/gcache/key"
)

func TestParseUseCaseConfigs_ParsesKnownFields(t *testing.T) {
	data := map[string]interface{}{
		"use_cases": map[string]interface{}{
			"get_user": map[string]interface{}{
				"ttl_local":   "30s",
				"ttl_remote":  "5m",
				"ramp_local":  100,
				"ramp_remote": float64(50),
			},
		},
	}

	parsed := parseUseCaseConfigs(data)
	cfg, ok := parsed["get_user"]
	require.True(t, ok, "expected a parsed Config for get_user")
	assert.Equal(t, 30*time.Second, cfg.TTL[key.Local])
	assert.Equal(t, 5*time.Minute, cfg.TTL[key.Remote])
	assert.Equal(t, 100, cfg.Ramp[key.Local])
	assert.Equal(t, 50, cfg.Ramp[key.Remote], "expected remote ramp parsed from float64")
}

func TestParseUseCaseConfigs_IgnoresMalformedSection(t *testing.T) {
	parsed := parseUseCaseConfigs(map[string]interface{}{"use_cases": "not a map"})
	assert.Empty(t, parsed, "expected no configs from a malformed section")
}

func TestConfigsEqual(t *testing.T) {
	a := key.Config{
		TTL:  map[key.Layer]time.Duration{key.Local: time.Minute},
		Ramp: map[key.Layer]int{key.Local: 100},
	}
	b := a
	assert.True(t, configsEqual(a, b), "expected identical configs to compare equal")

	c := key.Config{
		TTL:  map[key.Layer]time.Duration{key.Local: 2 * time.Minute},
		Ramp: map[key.Layer]int{key.Local: 100},
	}
	assert.False(t, configsEqual(a, c), "expected configs with different TTLs to compare unequal")
}

func TestDynamicOracle_Lookup_UnknownUseCaseReturnsNil(t *testing.T) {
	do := &DynamicOracle{configs: map[string]key.Config{}}
	cfg, err := do.Lookup(context.Background(), key.New("user_id", "1", "unknown_use_case"))
	require.NoError(t, err)
	assert.Nil(t, cfg, "expected a nil Config for an unwatched use case")
}
