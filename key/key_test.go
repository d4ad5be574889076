package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_Canonical_SortsArgsRegardlessOfInputOrder(t *testing.T) {
	a := New("user_id", "42", "profile", Arg{Name: "b", Value: "2"}, Arg{Name: "a", Value: "1"})
	b := New("user_id", "42", "profile", Arg{Name: "a", Value: "1"}, Arg{Name: "b", Value: "2"})

	assert.Equal(t, a.Canonical("urn"), b.Canonical("urn"), "expected canonical forms to be order-independent")
}

func TestKey_Canonical_Shape(t *testing.T) {
	k := New("user_id", "42", "profile", Arg{Name: "locale", Value: "en"})
	assert.Equal(t, "urn:urn:user_id:42?locale=en#profile", k.Canonical("urn"))
}

func TestKey_TrackedCanonical_UsesEntityHashTag(t *testing.T) {
	k := New("user_id", "42", "profile")
	assert.Equal(t, "urn:{urn:user_id:42}#profile", k.TrackedCanonical("urn"))
}

func TestWatermarkKey_SharesEntityTagWithTrackedCanonical(t *testing.T) {
	k := New("user_id", "42", "profile")
	wm := WatermarkKey("urn", k.KeyType, k.ID)
	assert.Equal(t, "{urn:user_id:42}#watermark", wm)
}

func TestDescriptor_Bind_BuildsKeyFromArgs(t *testing.T) {
	d := Descriptor{
		KeyType:  "user_id",
		ArgNames: []string{"id", "locale"},
		IDArg:    IDArg{Name: "id"},
		UseCase:  "get_user",
	}
	k, err := d.Bind(map[string]any{"id": 42, "locale": "en"})
	require.NoError(t, err)
	assert.Equal(t, "user_id", k.KeyType)
	assert.Equal(t, "42", k.ID)
	assert.Equal(t, "get_user", k.UseCase)
	require.Len(t, k.Args, 1)
	assert.Equal(t, "locale", k.Args[0].Name)
	assert.Equal(t, "en", k.Args[0].Value)
}

func TestDescriptor_Bind_MissingIDArgFails(t *testing.T) {
	d := Descriptor{
		KeyType:  "user_id",
		ArgNames: []string{"id"},
		IDArg:    IDArg{Name: "id"},
		UseCase:  "get_user",
	}
	_, err := d.Bind(map[string]any{})
	assert.Error(t, err, "expected an error when the id argument is missing")
}

func TestDescriptor_Bind_UsesExtractor(t *testing.T) {
	type user struct{ ID string }
	d := Descriptor{
		KeyType:  "user_id",
		ArgNames: []string{"u"},
		IDArg: IDArg{
			Name:      "u",
			Extractor: func(v any) string { return v.(user).ID },
		},
		UseCase: "get_user",
	}
	k, err := d.Bind(map[string]any{"u": user{ID: "abc"}})
	require.NoError(t, err)
	assert.Equal(t, "abc", k.ID)
}

func TestDescriptor_Bind_RecoversPanickingExtractor(t *testing.T) {
	d := Descriptor{
		KeyType:  "user_id",
		ArgNames: []string{"u"},
		IDArg: IDArg{
			Name:      "u",
			Extractor: func(v any) string { panic("bad extractor") },
		},
		UseCase: "get_user",
	}
	_, err := d.Bind(map[string]any{"u": "anything"})
	assert.Error(t, err, "expected a KeyBuildError from the panicking extractor")
}

func TestDescriptor_Validate_RejectsReservedUseCase(t *testing.T) {
	d := Descriptor{
		UseCase:  ReservedUseCase,
		ArgNames: []string{"id"},
		IDArg:    IDArg{Name: "id"},
	}
	assert.Error(t, d.Validate(), "expected reserved use case to fail validation")
}

func TestDescriptor_Validate_RejectsIDArgNotInArgNames(t *testing.T) {
	d := Descriptor{
		UseCase:  "get_user",
		ArgNames: []string{"other"},
		IDArg:    IDArg{Name: "id"},
	}
	assert.Error(t, d.Validate(), "expected validation to fail when IDArg is absent from ArgNames")
}
