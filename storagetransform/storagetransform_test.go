package storagetransform_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuskan/zarrcore/storage"
	"github.com/tuskan/zarrcore/storagetransform"
)

func TestBuild_KeyPrefixRewritesKeysTransparently(t *testing.T) {
	ctx := context.Background()
	base := storage.NewMemoryStore()

	wrapped, err := storagetransform.Build([]storagetransform.Configuration{
		{Name: "key_prefix", Configuration: []byte(`{"prefix":"ns/"}`)},
	}, base)
	require.NoError(t, err)

	require.NoError(t, wrapped.Set(ctx, "arr/zarr.json", []byte(`{}`)))

	_, ok, err := base.Get(ctx, "arr/zarr.json")
	require.NoError(t, err)
	require.False(t, ok, "unwrapped key must not exist in the base store")

	raw, ok, err := base.Get(ctx, "ns/arr/zarr.json")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`{}`), raw)

	data, ok, err := wrapped.Get(ctx, "arr/zarr.json")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`{}`), data)

	existed, err := wrapped.Erase(ctx, "arr/zarr.json")
	require.NoError(t, err)
	require.True(t, existed)

	_, ok, err = wrapped.Get(ctx, "arr/zarr.json")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBuild_UnknownTransformerFails(t *testing.T) {
	_, err := storagetransform.Build([]storagetransform.Configuration{{Name: "nope"}}, storage.NewMemoryStore())
	require.Error(t, err)
}
