package registry_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuskan/zarrcore/registry"
)

type fakeExt struct{ name string }

func TestRegistry_CompileTimeLookup(t *testing.T) {
	r := registry.New[fakeExt]()
	r.RegisterCompileTime(registry.Plugin[fakeExt]{
		Identifier: "gzip",
		Create: func(cfg []byte) (fakeExt, error) {
			return fakeExt{name: "gzip"}, nil
		},
	})

	got, err := r.Lookup("gzip", nil)
	require.NoError(t, err)
	require.Equal(t, "gzip", got.name)

	_, err = r.Lookup("missing", nil)
	require.ErrorIs(t, err, registry.ErrUnsupported)
}

func TestRegistry_RuntimeOverridesCompileTime(t *testing.T) {
	r := registry.New[fakeExt]()
	r.RegisterCompileTime(registry.Plugin[fakeExt]{
		Identifier: "bytes",
		Create:     func([]byte) (fakeExt, error) { return fakeExt{name: "builtin"}, nil },
	})
	h := r.RegisterRuntime(registry.Plugin[fakeExt]{
		Identifier: "bytes",
		Create:     func([]byte) (fakeExt, error) { return fakeExt{name: "override"}, nil },
	})

	got, err := r.Lookup("bytes", nil)
	require.NoError(t, err)
	require.Equal(t, "override", got.name)

	r.Unregister(h)
	got, err = r.Lookup("bytes", nil)
	require.NoError(t, err)
	require.Equal(t, "builtin", got.name)
}

func TestRegistry_AliasMatching(t *testing.T) {
	r := registry.New[fakeExt]()
	r.RegisterCompileTime(registry.Plugin[fakeExt]{
		Identifier: "numcodecs.zstd",
		Aliases: registry.Aliases{
			DefaultName: "zstd",
			Strings:     []string{"numcodecs.zstd"},
			Regexes:     []*regexp.Regexp{regexp.MustCompile(`^zstd\.v\d+$`)},
		},
		Create: func([]byte) (fakeExt, error) { return fakeExt{name: "zstd"}, nil },
	})

	for _, name := range []string{"zstd", "numcodecs.zstd", "zstd.v2"} {
		got, err := r.Lookup(name, nil)
		require.NoError(t, err, name)
		require.Equal(t, "zstd", got.name)
	}

	_, err := r.Lookup("zstd.vX", nil)
	require.ErrorIs(t, err, registry.ErrUnsupported)
}

func TestRegistry_Has(t *testing.T) {
	r := registry.New[fakeExt]()
	require.False(t, r.Has("gzip"))
	r.RegisterCompileTime(registry.Plugin[fakeExt]{Identifier: "gzip", Create: func([]byte) (fakeExt, error) { return fakeExt{}, nil }})
	require.True(t, r.Has("gzip"))
}
