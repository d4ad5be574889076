package scope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActive_DefaultsFalse(t *testing.T) {
	assert.False(t, Active(context.Background()), "Active should default to false on a bare context")
}

func TestWithEnabled_TrueThenFalse(t *testing.T) {
	ctx := WithEnabled(context.Background(), true)
	assert.True(t, Active(ctx))

	ctx = WithEnabled(ctx, false)
	assert.False(t, Active(ctx))
}

func TestWithEnabled_NestsLIFO(t *testing.T) {
	outer := WithEnabled(context.Background(), true)
	inner := WithEnabled(outer, false)

	assert.False(t, Active(inner), "inner scope should be disabled")
	assert.True(t, Active(outer), "outer scope should remain enabled after deriving a disabled child")
}
