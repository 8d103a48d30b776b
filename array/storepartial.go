package array

import (
	"context"
	"fmt"

	"github.com/tuskan/zarrcore/codec"
	"github.com/tuskan/zarrcore/storage"
)

// storeBytesPartialDecoder is the raw handle at the bottom of a partial
// codec chain: each requested range becomes one ranged GET against the
// chunk's key. An absent key is an error here, not a fill-value read —
// callers (StoreChunkSubset, RetrieveInnerChunk) probe for presence
// first and synthesise the fill value themselves.
type storeBytesPartialDecoder struct {
	store storage.Store
	key   string
}

func (d *storeBytesPartialDecoder) PartialDecode(ctx context.Context, ranges []codec.ByteRangeRequest, opts codec.Options) ([][]byte, error) {
	converted := make([]storage.ByteRange, len(ranges))
	for i, r := range ranges {
		converted[i] = toStoreRange(r)
	}
	values, ok, err := d.store.GetPartial(ctx, d.key, converted)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", storage.ErrKeyNotFound, d.key)
	}
	return values, nil
}

func toStoreRange(r codec.ByteRangeRequest) storage.ByteRange {
	if r.Suffix {
		var length uint64
		if r.Length != nil {
			length = *r.Length
		}
		return storage.Suffix(length)
	}
	if r.Length == nil {
		return storage.FromStartOpen(r.Offset)
	}
	return storage.FromStart(r.Offset, *r.Length)
}

// storeBytesPartialEncoder is the write-side counterpart: each
// byte-range write becomes one in-place SetPartial entry.
type storeBytesPartialEncoder struct {
	store storage.Store
	key   string
}

func (e *storeBytesPartialEncoder) PartialEncode(ctx context.Context, writes []codec.ByteRangeWrite, opts codec.Options) error {
	converted := make([]storage.OffsetValue, len(writes))
	for i, w := range writes {
		converted[i] = storage.OffsetValue{Offset: w.Offset, Value: w.Data}
	}
	return e.store.SetPartial(ctx, e.key, converted)
}

var (
	_ codec.BytesPartialDecoder = (*storeBytesPartialDecoder)(nil)
	_ codec.BytesPartialEncoder = (*storeBytesPartialEncoder)(nil)
)
