// Package storagetransform implements the fifth extension point named in
// spec.md §4.6 ("codec, chunk grid, chunk key encoding, data type, storage
// transformer"): a pluggable wrapper around a storage.Store that rewrites
// keys or bytes in flight, composed the same way a codec chain composes
// bytes→bytes stages. Unlike the other four extension points, no teacher
// or pack file implements one concretely, so this package follows the
// same registry.Registry[T] + Aliases shape datatype.Registry and
// codec.BytesToBytesRegistry already establish, rather than a specific
// grounding file (see DESIGN.md).
package storagetransform

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tuskan/zarrcore/registry"
	"github.com/tuskan/zarrcore/storage"
)

// Transformer wraps a storage.Store, intercepting key/byte access. It
// satisfies storage.Store itself so transformers compose by wrapping one
// another, the same way codec.Chain composes bytes→bytes codecs.
type Transformer interface {
	storage.Store
	Identifier() string
}

// Registry is the process-wide storage-transformer extension registry.
var Registry = registry.New[func(inner storage.Store) Transformer]()

func init() {
	Registry.RegisterCompileTime(registry.Plugin[func(inner storage.Store) Transformer]{
		Identifier: "key_prefix",
		Create: func(raw []byte) (func(inner storage.Store) Transformer, error) {
			var cfg struct {
				Prefix string `json:"prefix"`
			}
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &cfg); err != nil {
					return nil, fmt.Errorf("storagetransform: key_prefix: invalid configuration: %w", err)
				}
			}
			return func(inner storage.Store) Transformer {
				return &keyPrefix{inner: inner, prefix: cfg.Prefix}
			}, nil
		},
	})
}

// Configuration is the on-disk {"name": ..., "configuration": {...}} shape
// a storage_transformers list entry in array/group metadata would carry.
type Configuration struct {
	Name          string          `json:"name"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
}

// Build resolves an ordered list of storage transformer configurations
// into a single Transformer wrapping base, outermost-last (the first
// config is applied closest to base, matching codec.BuildChain's
// encode-order convention for bytes→bytes stages).
func Build(configs []Configuration, base storage.Store) (storage.Store, error) {
	store := base
	for _, c := range configs {
		factory, err := Registry.Lookup(c.Name, c.Configuration)
		if err != nil {
			return nil, fmt.Errorf("storagetransform: %q: %w", c.Name, err)
		}
		store = factory(store)
	}
	return store, nil
}

// keyPrefix prepends Prefix to every key before delegating to inner. It
// is the minimal concrete transformer: real deployments might add
// encryption or a rate limiter in its place, following the same shape.
type keyPrefix struct {
	inner  storage.Store
	prefix string
}

func (k *keyPrefix) Identifier() string { return "key_prefix" }

func (k *keyPrefix) key(key string) string { return k.prefix + key }

func (k *keyPrefix) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return k.inner.Get(ctx, k.key(key))
}

func (k *keyPrefix) GetPartial(ctx context.Context, key string, ranges []storage.ByteRange) ([][]byte, bool, error) {
	return k.inner.GetPartial(ctx, k.key(key), ranges)
}

func (k *keyPrefix) Set(ctx context.Context, key string, data []byte) error {
	return k.inner.Set(ctx, k.key(key), data)
}

func (k *keyPrefix) SetPartial(ctx context.Context, key string, writes []storage.OffsetValue) error {
	return k.inner.SetPartial(ctx, k.key(key), writes)
}

func (k *keyPrefix) Erase(ctx context.Context, key string) (bool, error) {
	return k.inner.Erase(ctx, k.key(key))
}

func (k *keyPrefix) ErasePrefix(ctx context.Context, prefix string) error {
	return k.inner.ErasePrefix(ctx, k.key(prefix))
}

func (k *keyPrefix) List(ctx context.Context) ([]string, error) {
	return k.inner.ListPrefix(ctx, k.prefix)
}

func (k *keyPrefix) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	return k.inner.ListPrefix(ctx, k.key(prefix))
}

func (k *keyPrefix) ListDir(ctx context.Context, prefix string) (storage.ListDirResult, error) {
	return k.inner.ListDir(ctx, k.key(prefix))
}
