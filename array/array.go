package array

import (
	"context"

	"github.com/tuskan/zarrcore/arraybytes"
	"github.com/tuskan/zarrcore/cache"
	"github.com/tuskan/zarrcore/chunkgrid"
	"github.com/tuskan/zarrcore/codec"
	"github.com/tuskan/zarrcore/concurrency"
	"github.com/tuskan/zarrcore/indexer"
	"github.com/tuskan/zarrcore/metadata"
	"github.com/tuskan/zarrcore/storage"
)

// Array is a handle to one array node: a store, its path, and the
// resolved metadata document. It is the operational surface spec.md
// §4.7 names: chunk and array_subset variants of store/retrieve, plus
// erase and a partial decoder handle.
type Array struct {
	Store    storage.Store
	NodePath string
	Meta     *metadata.ResolvedArray

	// Cache, if non-nil, is consulted/populated by RetrieveChunk.
	Cache *cache.ChunkCache

	// ConcurrencyTarget is the total concurrency budget T fed to
	// concurrency.Compute for region operations touching multiple
	// chunks (spec.md §5). Zero means "no concurrency" (serial).
	ConcurrencyTarget int

	// StoreEmptyChunks disables empty-chunk elision (spec.md §4.7)
	// when true: a fully fill-valued chunk is written out rather than
	// erased.
	StoreEmptyChunks bool
}

// Open loads and resolves the zarr.json document at nodePath and
// returns a ready-to-use Array handle.
func Open(ctx context.Context, store storage.Store, nodePath string) (*Array, error) {
	m, err := metadata.LoadArrayV3(ctx, store, nodePath)
	if err != nil {
		return nil, err
	}
	resolved, err := m.Resolve(ResolveArrayToBytes)
	if err != nil {
		return nil, err
	}
	return &Array{Store: store, NodePath: nodePath, Meta: resolved}, nil
}

func (a *Array) chunkKey(chunkIndex []int) string {
	encoded := a.Meta.ChunkKeyEncoding.EncodeKey(chunkIndex)
	if a.NodePath == "" {
		return encoded
	}
	return a.NodePath + "/" + encoded
}

// codecOptions budgets inner (per-chunk) concurrency for an operation
// touching numChunks chunks, consulting the actual codec chain's
// RecommendedConcurrency for repr rather than a hardcoded range
// (spec.md §5's two-level algorithm only does anything useful when fed
// a real per-codec range).
func (a *Array) codecOptions(numChunks int, repr codec.Representation) codec.Options {
	if a.ConcurrencyTarget <= 0 || numChunks == 0 {
		return codec.Options{ConcurrentTarget: 1}
	}
	split, err := concurrency.Compute(a.ConcurrencyTarget, numChunks, a.Meta.Codecs.RecommendedConcurrency(repr))
	if err != nil {
		return codec.Options{ConcurrentTarget: 1}
	}
	return codec.Options{ConcurrentTarget: split.Inner}
}

func (a *Array) outerConcurrency(numChunks int, repr codec.Representation) int {
	if a.ConcurrencyTarget <= 0 || numChunks == 0 {
		return 1
	}
	split, err := concurrency.Compute(a.ConcurrencyTarget, numChunks, a.Meta.Codecs.RecommendedConcurrency(repr))
	if err != nil {
		return 1
	}
	return split.Outer
}

func (a *Array) chunkRepresentation(chunkIndex []int) (codec.Representation, error) {
	shape, err := a.Meta.ChunkGrid.ChunkShape(a.Meta.Shape, chunkIndex)
	if err != nil {
		return codec.Representation{}, err
	}
	return codec.Representation{Shape: shape, DataType: a.Meta.DataType, FillValue: a.Meta.FillValue}, nil
}

// nominalChunkRepresentation returns the representation of chunk index
// zero, used as a stand-in when an operation spans many chunks and
// must pick one representation to evaluate RecommendedConcurrency
// against before any specific chunk index is known.
func (a *Array) nominalChunkRepresentation() (codec.Representation, error) {
	return a.chunkRepresentation(make([]int, len(a.Meta.Shape)))
}

// StoreChunk encodes elements and writes them as chunkIndex's full
// content, eliding the write (erasing any existing chunk instead) when
// the content is entirely the fill value and StoreEmptyChunks is false
// (spec.md §4.7 "Empty-chunk elision").
func (a *Array) StoreChunk(ctx context.Context, chunkIndex []int, elements arraybytes.ArrayBytes) error {
	repr, err := a.chunkRepresentation(chunkIndex)
	if err != nil {
		return err
	}
	if !a.StoreEmptyChunks && isAllFillValue(elements, a.Meta.FillValue) {
		_, err := a.Store.Erase(ctx, a.chunkKey(chunkIndex))
		return err
	}
	encoded, err := a.Meta.Codecs.Encode(ctx, elements, repr, a.codecOptions(1, repr))
	if err != nil {
		return err
	}
	return a.Store.Set(ctx, a.chunkKey(chunkIndex), encoded)
}

// RetrieveChunk reads and decodes chunkIndex, consulting/populating
// a.Cache if set. A chunk absent from storage is not an error; it
// decodes to the fill value (spec.md §4.8), broadcast across the
// chunk's full (edge-clipped) shape.
func (a *Array) RetrieveChunk(ctx context.Context, chunkIndex []int) (arraybytes.ArrayBytes, error) {
	if a.Cache != nil {
		key := cache.KeyFor(chunkIndex)
		return a.Cache.TryGetOrInsertWith(ctx, key, func(ctx context.Context) (arraybytes.ArrayBytes, error) {
			return a.retrieveChunkUncached(ctx, chunkIndex)
		})
	}
	return a.retrieveChunkUncached(ctx, chunkIndex)
}

func (a *Array) retrieveChunkUncached(ctx context.Context, chunkIndex []int) (arraybytes.ArrayBytes, error) {
	repr, err := a.chunkRepresentation(chunkIndex)
	if err != nil {
		return nil, err
	}
	data, ok, err := a.Store.Get(ctx, a.chunkKey(chunkIndex))
	if err != nil {
		return nil, err
	}
	if !ok {
		return arraybytes.FillValueBroadcast(a.Meta.DataType, arraybytes.NumElementsForChunkShape(repr.Shape), a.Meta.FillValue)
	}
	return a.Meta.Codecs.Decode(ctx, data, repr, a.codecOptions(1, repr))
}

// EraseChunk deletes chunkIndex's stored content, if any.
func (a *Array) EraseChunk(ctx context.Context, chunkIndex []int) error {
	_, err := a.Store.Erase(ctx, a.chunkKey(chunkIndex))
	if a.Cache != nil {
		a.Cache.Remove(cache.KeyFor(chunkIndex))
	}
	return err
}

// StoreChunkSubset writes elements into subsetInChunk of chunkIndex,
// preferring the codec chain's cascading PartialEncoder (spec.md §4.7's
// partial-encode path) and falling back to read-modify-write of the
// whole chunk when no partial encoder path is available.
//
// The fast path only applies to a chunk that already has encoded bytes
// in the store: SetPartial on an absent chunk would leave its untouched
// regions as raw zero bytes instead of the fill value's encoded
// representation, silently corrupting the parts of the chunk this
// write doesn't cover. A cheap 1-byte probe read distinguishes the two
// cases without fetching the whole chunk.
func (a *Array) StoreChunkSubset(ctx context.Context, chunkIndex []int, subsetInChunk indexer.ArraySubset, elements arraybytes.ArrayBytes) error {
	repr, err := a.chunkRepresentation(chunkIndex)
	if err != nil {
		return err
	}
	key := a.chunkKey(chunkIndex)

	_, present, probeErr := a.Store.GetPartial(ctx, key, []storage.ByteRange{storage.FromStart(0, 1)})
	if probeErr == nil && present {
		if err := a.storeChunkSubsetPartial(ctx, key, repr, subsetInChunk, elements); err == nil {
			if a.Cache != nil {
				a.Cache.Remove(cache.KeyFor(chunkIndex))
			}
			return nil
		}
	}
	return a.storeChunkSubsetFull(ctx, chunkIndex, subsetInChunk, elements)
}

func (a *Array) storeChunkSubsetPartial(ctx context.Context, key string, repr codec.Representation, subsetInChunk indexer.ArraySubset, elements arraybytes.ArrayBytes) error {
	opts := a.codecOptions(1, repr)
	rawIn := &storeBytesPartialDecoder{store: a.Store, key: key}
	rawOut := &storeBytesPartialEncoder{store: a.Store, key: key}
	handle, err := a.Meta.Codecs.PartialEncoder(rawIn, rawOut, repr, opts)
	if err != nil {
		return err
	}
	return handle.PartialEncode(ctx, []codec.ArraySubsetWrite{{Subset: subsetInChunk, Data: elements}}, opts)
}

func (a *Array) storeChunkSubsetFull(ctx context.Context, chunkIndex []int, subsetInChunk indexer.ArraySubset, elements arraybytes.ArrayBytes) error {
	chunkShape, err := a.Meta.ChunkGrid.ChunkShape(a.Meta.Shape, chunkIndex)
	if err != nil {
		return err
	}
	current, err := a.RetrieveChunk(ctx, chunkIndex)
	if err != nil {
		return err
	}
	if err := arraybytes.OverwriteSubset(current, chunkShape, subsetInChunk, elements); err != nil {
		return err
	}
	if a.Cache != nil {
		a.Cache.Remove(cache.KeyFor(chunkIndex))
	}
	return a.StoreChunk(ctx, chunkIndex, current)
}

// RetrieveArraySubset reads region and gathers it into a single
// ArrayBytes, decomposing into per-chunk reads via chunkgrid.Decompose
// and running them with the two-level concurrency budget (spec.md §5).
func (a *Array) RetrieveArraySubset(ctx context.Context, region indexer.ArraySubset) (arraybytes.ArrayBytes, error) {
	triples, err := chunkgrid.Decompose(a.Meta.ChunkGrid, a.Meta.Shape, region)
	if err != nil {
		return nil, err
	}
	out, err := arraybytes.FillValueBroadcast(a.Meta.DataType, region.NumElements(), a.Meta.FillValue)
	if err != nil {
		return nil, err
	}

	nominalRepr, err := a.nominalChunkRepresentation()
	if err != nil {
		return nil, err
	}
	outer := a.outerConcurrency(len(triples), nominalRepr)
	err = concurrency.RunChunks(ctx, outer, len(triples), func(ctx context.Context, i int) error {
		t := triples[i]
		chunkAB, err := a.RetrieveChunk(ctx, t.ChunkIndex)
		if err != nil {
			return err
		}
		chunkShape, err := a.Meta.ChunkGrid.ChunkShape(a.Meta.Shape, t.ChunkIndex)
		if err != nil {
			return err
		}
		extracted, err := arraybytes.ExtractSubset(chunkAB, chunkShape, t.SubsetInChunk)
		if err != nil {
			return err
		}
		return arraybytes.OverwriteSubset(out, region.Shape, t.SubsetInOutput, extracted)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StoreArraySubset writes elements (shaped like region) into the array,
// decomposing into chunk-aligned (fast path: encode directly) and
// chunk-partial (read-modify-write) writes per spec.md §4.7.
func (a *Array) StoreArraySubset(ctx context.Context, region indexer.ArraySubset, elements arraybytes.ArrayBytes) error {
	triples, err := chunkgrid.Decompose(a.Meta.ChunkGrid, a.Meta.Shape, region)
	if err != nil {
		return err
	}

	nominalRepr, err := a.nominalChunkRepresentation()
	if err != nil {
		return err
	}
	outer := a.outerConcurrency(len(triples), nominalRepr)
	return concurrency.RunChunks(ctx, outer, len(triples), func(ctx context.Context, i int) error {
		t := triples[i]
		chunkShape, err := a.Meta.ChunkGrid.ChunkShape(a.Meta.Shape, t.ChunkIndex)
		if err != nil {
			return err
		}
		part, err := arraybytes.ExtractSubset(elements, region.Shape, t.SubsetInOutput)
		if err != nil {
			return err
		}
		if subsetCoversWholeChunk(t.SubsetInChunk, chunkShape) {
			return a.StoreChunk(ctx, t.ChunkIndex, part)
		}
		return a.StoreChunkSubset(ctx, t.ChunkIndex, t.SubsetInChunk, part)
	})
}

func subsetCoversWholeChunk(subset indexer.ArraySubset, chunkShape []int) bool {
	if len(subset.Shape) != len(chunkShape) {
		return false
	}
	for _, s := range subset.Start {
		if s != 0 {
			return false
		}
	}
	for i, s := range subset.Shape {
		if s != chunkShape[i] {
			return false
		}
	}
	return true
}

func isAllFillValue(ab arraybytes.ArrayBytes, fillValue []byte) bool {
	fixed, ok := ab.(*arraybytes.Fixed)
	if !ok || fillValue == nil {
		return false
	}
	for i := 0; i < fixed.NumElements(); i++ {
		e := fixed.Element(i)
		for j, b := range e {
			if b != fillValue[j] {
				return false
			}
		}
	}
	return true
}
