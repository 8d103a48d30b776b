// Package array implements the user-facing Array API (spec.md §4.7):
// store_chunk/retrieve_chunk/store_array_subset/retrieve_array_subset/
// store_chunk_subset/erase_chunk/partial_decoder, built on the storage,
// metadata, chunkgrid, keyencoding, codec, cache and concurrency
// packages. It generalizes the teacher's `zarr.Reader` (reader.go) — a
// read-only, single-compressor, bucket-backed array reader — into a
// full read/write array handle over a pluggable codec chain and chunk
// grid.
package array

import (
	"encoding/json"
	"fmt"

	"github.com/tuskan/zarrcore/codec"
	"github.com/tuskan/zarrcore/codec/sharding"
)

// shardingConfig is the on-disk configuration object for the
// "sharding_indexed" codec (spec.md §4.3.1): an inner chunk shape, a
// nested codec list for the inner chunks, a nested codec list for the
// index, and where the index sits in the shard.
type shardingConfig struct {
	ChunkShape    []int                 `json:"chunk_shape"`
	Codecs        []codec.Configuration `json:"codecs"`
	IndexCodecs   []codec.Configuration `json:"index_codecs"`
	IndexLocation string                `json:"index_location"`
}

// ResolveArrayToBytes implements codec.ArrayToBytesResolver, handling the
// "sharding_indexed" codec name. The sharding codec package imports codec
// for Chain/ArrayToBytesCodec, so it cannot register itself in
// codec.ArrayToBytesRegistry without an import cycle; this resolver is
// the wiring point the array package (the one layer above both) supplies
// instead (SPEC_FULL §4.11).
func ResolveArrayToBytes(name string, configuration json.RawMessage) (codec.ArrayToBytesCodec, bool, error) {
	if name != "sharding_indexed" {
		return nil, false, nil
	}
	var cfg shardingConfig
	if err := json.Unmarshal(configuration, &cfg); err != nil {
		return nil, true, fmt.Errorf("sharding_indexed: invalid configuration: %w", err)
	}
	innerChain, err := codec.BuildChain(cfg.Codecs, ResolveArrayToBytes)
	if err != nil {
		return nil, true, fmt.Errorf("sharding_indexed: inner codecs: %w", err)
	}
	builder := sharding.NewBuilder(cfg.ChunkShape).WithInnerChain(innerChain)
	if len(cfg.IndexCodecs) > 0 {
		indexChain, err := codec.BuildChain(cfg.IndexCodecs, nil)
		if err != nil {
			return nil, true, fmt.Errorf("sharding_indexed: index_codecs: %w", err)
		}
		builder = builder.WithIndexChain(indexChain)
	}
	if cfg.IndexLocation == "start" {
		builder = builder.WithIndexLocation(sharding.IndexStart)
	}
	sc, err := builder.Build()
	if err != nil {
		return nil, true, err
	}
	return sc, true, nil
}
