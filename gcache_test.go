package gcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rungalileo/gcache/key"
)

// newTestCache builds a Cache for one test and registers a t.Cleanup that
// closes it, releasing the process-wide singleton slot for the next test.
func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(Config{LocalCapacity: 100})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		c.Close(ctx)
	})
	return c
}

func TestNew_RejectsSecondInstance(t *testing.T) {
	c := newTestCache(t)
	_ = c

	_, err := New(Config{})
	assert.Error(t, err, "expected a second New to fail while the first is still live")
}

func TestNew_AllowsReconstructionAfterClose(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)
	require.NoError(t, c.Close(context.Background()))

	c2, err := New(Config{})
	require.NoError(t, err, "expected New to succeed after Close")
	c2.Close(context.Background())
}

func userDescriptor(useCase string) key.Descriptor {
	cfg := key.Enabled(time.Minute)
	return key.Descriptor{
		KeyType:       "user_id",
		ArgNames:      []string{"id"},
		IDArg:         key.IDArg{Name: "id"},
		UseCase:       useCase,
		DefaultConfig: &cfg,
	}
}

func TestRegister_Call_CachesAcrossInvocations(t *testing.T) {
	c := newTestCache(t)
	calls := 0
	loadUser := func(ctx context.Context, id string) (string, error) {
		calls++
		return "user-" + id, nil
	}

	reg, err := Register(c, loadUser, userDescriptor("get_user"))
	require.NoError(t, err)

	ctx := Enable(context.Background(), true)
	v1, err := reg.Call(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "user-42", v1)

	v2, err := reg.Call(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "user-42", v2)
	assert.Equal(t, 1, calls, "expected a cache hit on the second call")
}

func TestRegister_Call_DisabledScopeAlwaysInvokes(t *testing.T) {
	c := newTestCache(t)
	calls := 0
	loadUser := func(ctx context.Context, id string) (string, error) {
		calls++
		return "user-" + id, nil
	}
	reg, err := Register(c, loadUser, userDescriptor("get_user_disabled"))
	require.NoError(t, err)

	reg.Call(context.Background(), "1")
	reg.Call(context.Background(), "1")
	assert.Equal(t, 2, calls, "expected every call to invoke the underlying function outside an enabled scope")
}

func TestRegister_CallBlocking_RoutesThroughBridge(t *testing.T) {
	c := newTestCache(t)
	loadUser := func(ctx context.Context, id string) (string, error) {
		return "blocking-" + id, nil
	}
	reg, err := Register(c, loadUser, userDescriptor("get_user_blocking"))
	require.NoError(t, err)

	ctx := Enable(context.Background(), true)
	v, err := reg.CallBlocking(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "blocking-7", v)
}

func TestRegister_RejectsDuplicateUseCase(t *testing.T) {
	c := newTestCache(t)
	fn := func(ctx context.Context, id string) (string, error) { return id, nil }
	d := userDescriptor("dup")

	_, err := Register(c, fn, d)
	require.NoError(t, err)
	_, err = Register(c, fn, d)
	assert.Error(t, err, "expected the second Register with the same use case to fail")
}

func TestRegister_RejectsNonContextFirstParam(t *testing.T) {
	c := newTestCache(t)
	fn := func(id string) (string, error) { return id, nil }
	_, err := Register(c, fn, userDescriptor("bad_sig"))
	assert.Error(t, err, "expected Register to reject a function without context.Context as its first parameter")
}

func TestRegister_RejectsArgCountMismatch(t *testing.T) {
	c := newTestCache(t)
	fn := func(ctx context.Context, id, extra string) (string, error) { return id + extra, nil }
	_, err := Register(c, fn, userDescriptor("mismatch"))
	assert.Error(t, err, "expected Register to reject an argument-count mismatch with ArgNames")
}

func TestRegister_PropagatesFallbackError(t *testing.T) {
	c := newTestCache(t)
	want := errors.New("upstream down")
	fn := func(ctx context.Context, id string) (string, error) { return "", want }
	reg, err := Register(c, fn, userDescriptor("errors_out"))
	require.NoError(t, err)

	ctx := Enable(context.Background(), true)
	_, callErr := reg.Call(ctx, "1")
	assert.ErrorIs(t, callErr, want)
}

func TestCache_Remove_DeletesFromLocalTier(t *testing.T) {
	c := newTestCache(t)
	fn := func(ctx context.Context, id string) (string, error) { return "v-" + id, nil }
	reg, err := Register(c, fn, userDescriptor("removable"))
	require.NoError(t, err)

	ctx := Enable(context.Background(), true)
	reg.Call(ctx, "9")

	k := key.New("user_id", "9", "removable")
	removed, err := c.Remove(context.Background(), k)
	require.NoError(t, err)
	assert.True(t, removed, "expected Remove to report the entry as removed")
}
