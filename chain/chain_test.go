package chain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rungalileo/gcache/key"
)

// fakeTier is an in-memory tier.Tier stand-in that records every Get/Set
// call it receives, so tests can assert on backfill behavior without
// pulling in the real local/remote implementations.
type fakeTier struct {
	layer key.Layer
	store map[string]any
	sets  []string
}

func newFakeTier(l key.Layer) *fakeTier {
	return &fakeTier{layer: l, store: make(map[string]any)}
}

func (f *fakeTier) Layer() key.Layer { return f.layer }

func (f *fakeTier) Get(_ context.Context, k key.Key, _ bool) (any, bool) {
	v, ok := f.store[k.String()]
	return v, ok
}

func (f *fakeTier) Set(_ context.Context, k key.Key, value any, _ time.Duration, _ bool) error {
	f.store[k.String()] = value
	f.sets = append(f.sets, k.String())
	return nil
}

func (f *fakeTier) Delete(_ context.Context, k key.Key) (bool, error) {
	_, ok := f.store[k.String()]
	delete(f.store, k.String())
	return ok, nil
}

func (f *fakeTier) Clear(_ context.Context) error {
	f.store = make(map[string]any)
	return nil
}

func testKey() key.Key {
	return key.New("user_id", "42", "profile")
}

func allLayers(ttl time.Duration) (map[key.Layer]bool, map[key.Layer]time.Duration) {
	return map[key.Layer]bool{key.Local: true, key.Remote: true},
		map[key.Layer]time.Duration{key.Local: ttl, key.Remote: ttl}
}

func TestChain_Read_TotalMiss(t *testing.T) {
	local := newFakeTier(key.Local)
	remote := newFakeTier(key.Remote)
	c := New(local, remote)

	participating, ttls := allLayers(time.Minute)
	result := c.Read(context.Background(), testKey(), participating, ttls, false)

	assert.False(t, result.Found)
	assert.Len(t, result.MissedLayers, 2)
}

func TestChain_Read_HitAtRemoteBackfillsLocal(t *testing.T) {
	local := newFakeTier(key.Local)
	remote := newFakeTier(key.Remote)
	c := New(local, remote)
	k := testKey()
	remote.store[k.String()] = "cached-value"

	participating, ttls := allLayers(time.Minute)
	result := c.Read(context.Background(), k, participating, ttls, false)

	require.True(t, result.Found)
	assert.Equal(t, "cached-value", result.Value)
	assert.Equal(t, key.Remote, result.HitLayer)
	require.Len(t, result.MissedLayers, 1)
	assert.Equal(t, key.Local, result.MissedLayers[0])

	v, ok := local.store[k.String()]
	require.True(t, ok, "expected the hit to backfill the local tier")
	assert.Equal(t, "cached-value", v)
}

func TestChain_Read_SkipsNonParticipatingLayer(t *testing.T) {
	local := newFakeTier(key.Local)
	remote := newFakeTier(key.Remote)
	c := New(local, remote)
	k := testKey()

	participating := map[key.Layer]bool{key.Remote: true}
	ttls := map[key.Layer]time.Duration{key.Remote: time.Minute}
	result := c.Read(context.Background(), k, participating, ttls, false)

	assert.False(t, result.Found)
	require.Len(t, result.MissedLayers, 1)
	assert.Equal(t, key.Remote, result.MissedLayers[0])
	assert.Empty(t, local.sets, "non-participating local tier should never be touched")
}

func TestChain_WriteAll_WritesEveryParticipatingLayer(t *testing.T) {
	local := newFakeTier(key.Local)
	remote := newFakeTier(key.Remote)
	c := New(local, remote)
	k := testKey()

	participating, ttls := allLayers(time.Minute)
	c.WriteAll(context.Background(), k, "fresh-value", participating, ttls, false)

	assert.Equal(t, "fresh-value", local.store[k.String()])
	assert.Equal(t, "fresh-value", remote.store[k.String()])
}
