package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tuskan/zarrcore/registry"
)

// ArrayToBytesResolver is consulted before ArrayToBytesRegistry when
// BuildChain reaches the array->bytes slot, so callers can wire codecs
// that would otherwise create an import cycle with this package (the
// sharding codec imports codec.Chain, so it cannot register itself here).
// A nil resolver, or one that returns found=false, falls through to the
// registry.
type ArrayToBytesResolver func(name string, configuration json.RawMessage) (codec ArrayToBytesCodec, found bool, err error)

// BuildChain parses an ordered zarr.json "codecs" list (spec.md §6.1)
// into a Chain: configs before the array->bytes codec resolve against
// ArrayToArrayRegistry, exactly one resolves against resolveArrayToBytes
// (falling back to ArrayToBytesRegistry), and everything after resolves
// against BytesToBytesRegistry. Unrecognized fields inside a recognized
// codec's configuration object are tolerated by that codec's own Create
// (SPEC_FULL §4.11); only an unrecognized name fails here.
func BuildChain(configs []Configuration, resolveArrayToBytes ArrayToBytesResolver) (*Chain, error) {
	var aa []ArrayToArrayCodec
	var ab ArrayToBytesCodec
	var bb []BytesToBytesCodec

	for _, cfg := range configs {
		if ab == nil {
			if resolveArrayToBytes != nil {
				c, found, err := resolveArrayToBytes(cfg.Name, cfg.Configuration)
				if err != nil {
					return nil, fmt.Errorf("codec: %q: %w", cfg.Name, err)
				}
				if found {
					ab = c
					continue
				}
			}
			if c, err := ArrayToBytesRegistry.Lookup(cfg.Name, cfg.Configuration); err == nil {
				ab = c
				continue
			} else if !errors.Is(err, registry.ErrUnsupported) {
				return nil, fmt.Errorf("codec: %q: %w", cfg.Name, err)
			}
			c, err := ArrayToArrayRegistry.Lookup(cfg.Name, cfg.Configuration)
			if err != nil {
				return nil, fmt.Errorf("codec: %q: %w", cfg.Name, err)
			}
			aa = append(aa, c)
			continue
		}
		c, err := BytesToBytesRegistry.Lookup(cfg.Name, cfg.Configuration)
		if err != nil {
			return nil, fmt.Errorf("codec: %q: %w", cfg.Name, err)
		}
		bb = append(bb, c)
	}

	return NewChain(aa, ab, bb)
}
