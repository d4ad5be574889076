package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rungalileo/gcache/key"
)

// manualClock is a Provider a test can advance explicitly, since the real
// System provider is wall-clock-driven and TTL expiry tests would
// otherwise need real sleeps.
type manualClock struct{ nowNano int64 }

func (c *manualClock) NowNano() int64          { return c.nowNano }
func (c *manualClock) NowMilli() int64         { return c.nowNano / int64(time.Millisecond) }
func (c *manualClock) advance(d time.Duration) { c.nowNano += int64(d) }

func testKey(useCase string) key.Key {
	return key.New("user_id", "42", useCase)
}

func TestTier_SetGet_RoundTrips(t *testing.T) {
	tier := New(WithCapacity(10))
	k := testKey("profile")

	require.NoError(t, tier.Set(context.Background(), k, "value", time.Minute, false))
	v, found := tier.Get(context.Background(), k, false)
	require.True(t, found)
	assert.Equal(t, "value", v)
}

func TestTier_Get_MissForUnknownKey(t *testing.T) {
	tier := New()
	_, found := tier.Get(context.Background(), testKey("profile"), false)
	assert.False(t, found, "expected a miss for a key never set")
}

func TestTier_Get_ExpiresAfterTTL(t *testing.T) {
	clk := &manualClock{}
	tier := New(WithClock(clk))
	k := testKey("profile")

	tier.Set(context.Background(), k, "value", time.Second, false)
	clk.advance(2 * time.Second)

	_, found := tier.Get(context.Background(), k, false)
	assert.False(t, found, "expected the entry to have expired")
}

func TestTier_Delete_ReportsWhetherPresent(t *testing.T) {
	tier := New()
	k := testKey("profile")
	tier.Set(context.Background(), k, "value", time.Minute, false)

	removed, err := tier.Delete(context.Background(), k)
	require.NoError(t, err)
	assert.True(t, removed, "expected Delete to report the entry as removed")

	removedAgain, _ := tier.Delete(context.Background(), k)
	assert.False(t, removedAgain, "expected a second Delete of the same key to report nothing removed")
}

func TestTier_UseCasesAreIsolated(t *testing.T) {
	tier := New()
	kA := testKey("profile")
	kB := testKey("billing")

	tier.Set(context.Background(), kA, "profile-value", time.Minute, false)

	_, found := tier.Get(context.Background(), kB, false)
	assert.False(t, found, "expected use cases to have independent engines")

	v, found := tier.Get(context.Background(), kA, false)
	require.True(t, found, "expected the original use case's entry to remain unaffected")
	assert.Equal(t, "profile-value", v)
}

func TestTier_Clear_RemovesEveryUseCase(t *testing.T) {
	tier := New()
	tier.Set(context.Background(), testKey("profile"), "v1", time.Minute, false)
	tier.Set(context.Background(), testKey("billing"), "v2", time.Minute, false)

	require.NoError(t, tier.Clear(context.Background()))

	_, found := tier.Get(context.Background(), testKey("profile"), false)
	assert.False(t, found, "expected Clear to remove the profile use case's entry")

	_, found = tier.Get(context.Background(), testKey("billing"), false)
	assert.False(t, found, "expected Clear to remove the billing use case's entry")
}

func TestTier_Layer_ReportsLocal(t *testing.T) {
	assert.Equal(t, key.Local, New().Layer())
}
