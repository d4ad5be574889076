package remote

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rungalileo/gcache/key"
)

func TestNew_RejectsConflictingClientConfig(t *testing.T) {
	_, err := New(Config{
		Client:        &redis.Client{},
		ClientFactory: func() (redis.Cmdable, error) { return &redis.Client{}, nil },
	})
	assert.Error(t, err, "expected an error when both Client and ClientFactory are set")
}

func TestNew_RejectsMissingClient(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err, "expected an error when neither Client nor ClientFactory is set")
}

func TestNew_UsesClientFactory(t *testing.T) {
	called := false
	tier, err := New(Config{
		ClientFactory: func() (redis.Cmdable, error) {
			called = true
			return &redis.Client{}, nil
		},
	})
	require.NoError(t, err)
	assert.True(t, called, "expected ClientFactory to be invoked")
	assert.Equal(t, key.Remote, tier.Layer())
}

func TestConfig_WithDefaults_FillsZeroValues(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultPrefix, cfg.Prefix)
	assert.Equal(t, DefaultQueryTimeout, cfg.QueryTimeout)
	assert.NotNil(t, cfg.Logger, "expected withDefaults to fill in a no-op Logger")
	assert.NotNil(t, cfg.Metrics, "expected withDefaults to fill in no-op Metrics")
}

func TestConfig_WithDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{Prefix: "custom", OffloadWorkers: 9}.withDefaults()
	assert.Equal(t, "custom", cfg.Prefix, "expected explicit prefix to survive")
	assert.Equal(t, 9, cfg.OffloadWorkers, "expected explicit OffloadWorkers to survive")
}

func TestTier_Configure_FallsBackToDefaultSerializer(t *testing.T) {
	tier, err := New(Config{Client: &redis.Client{}})
	require.NoError(t, err)
	assert.Equal(t, key.DefaultSerializer, tier.serializerFor("never_configured"))
}

func TestTier_Configure_BindsNamedSerializer(t *testing.T) {
	tier, err := New(Config{Client: &redis.Client{}})
	require.NoError(t, err)
	custom := key.DefaultSerializer
	tier.Configure("get_user", custom)
	assert.Equal(t, custom, tier.serializerFor("get_user"), "expected Configure to bind the named serializer")
}

func TestTier_ShouldOffload(t *testing.T) {
	tier, err := New(Config{Client: &redis.Client{}, AsyncThresholdBytes: 10})
	require.NoError(t, err)

	assert.False(t, tier.shouldOffload("short"), "expected a short string to not be offloaded")
	assert.True(t, tier.shouldOffload("this string is long enough"), "expected a long string to be offloaded")
	assert.False(t, tier.shouldOffload(12345), "expected a non-[]byte/string value to never be offloaded")
}

func TestEnvelope_RoundTrips(t *testing.T) {
	e := envelope{Payload: []byte("hello"), CreatedAt: 1234567890}
	data, err := encodeEnvelope(e)
	require.NoError(t, err)
	got, err := decodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got.Payload))
	assert.EqualValues(t, 1234567890, got.CreatedAt)
}
