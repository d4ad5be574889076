package watermark

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rungalileo/gcache/key"
)

type fakeWriter struct {
	calls   int
	keyType string
	id      string
	buffer  int64
	err     error
}

func (f *fakeWriter) WriteWatermark(_ context.Context, keyType, id string, bufferMS int64) error {
	f.calls++
	f.keyType, f.id, f.buffer = keyType, id, bufferMS
	return f.err
}

type fakeClearTier struct {
	layer   key.Layer
	cleared bool
	err     error
}

func (f *fakeClearTier) Layer() key.Layer                               { return f.layer }
func (f *fakeClearTier) Get(context.Context, key.Key, bool) (any, bool) { return nil, false }
func (f *fakeClearTier) Set(context.Context, key.Key, any, time.Duration, bool) error {
	return nil
}
func (f *fakeClearTier) Delete(context.Context, key.Key) (bool, error) { return false, nil }
func (f *fakeClearTier) Clear(context.Context) error {
	f.cleared = true
	return f.err
}

func TestEngine_Invalidate_NilWriterIsNoop(t *testing.T) {
	e := New(nil, nil, nil, nil)
	assert.NoError(t, e.Invalidate(context.Background(), "user_id", "42", 500))
}

func TestEngine_Invalidate_WritesWatermark(t *testing.T) {
	w := &fakeWriter{}
	e := New(nil, nil, w, nil)

	require.NoError(t, e.Invalidate(context.Background(), "user_id", "42", 500))
	assert.Equal(t, 1, w.calls)
	assert.Equal(t, "user_id", w.keyType)
	assert.Equal(t, "42", w.id)
	assert.EqualValues(t, 500, w.buffer)
}

func TestEngine_Invalidate_PropagatesWriterError(t *testing.T) {
	want := errors.New("boom")
	w := &fakeWriter{err: want}
	e := New(nil, nil, w, nil)

	err := e.Invalidate(context.Background(), "user_id", "42", 0)
	assert.ErrorIs(t, err, want)
}

func TestEngine_Flushall_ClearsBothTiers(t *testing.T) {
	local := &fakeClearTier{layer: key.Local}
	shared := &fakeClearTier{layer: key.Remote}
	e := New(local, shared, nil, nil)

	require.NoError(t, e.Flushall(context.Background()))
	assert.True(t, local.cleared)
	assert.True(t, shared.cleared)
}

func TestEngine_Flushall_PropagatesEitherTierError(t *testing.T) {
	want := errors.New("shared unavailable")
	local := &fakeClearTier{layer: key.Local}
	shared := &fakeClearTier{layer: key.Remote, err: want}
	e := New(local, shared, nil, nil)

	err := e.Flushall(context.Background())
	assert.ErrorIs(t, err, want)
}
