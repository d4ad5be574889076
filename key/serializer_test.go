package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSerializer_RoundTripsString(t *testing.T) {
	data, err := DefaultSerializer.Serialize("hello")
	require.NoError(t, err)
	got, err := DefaultSerializer.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestDefaultSerializer_RoundTripsMap(t *testing.T) {
	original := map[string]any{"name": "ada", "age": int8(30)}
	data, err := DefaultSerializer.Serialize(original)
	require.NoError(t, err)
	got, err := DefaultSerializer.Deserialize(data)
	require.NoError(t, err)
	m, ok := got.(map[string]any)
	require.True(t, ok, "expected a map, got %T", got)
	assert.Equal(t, "ada", m["name"])
}
