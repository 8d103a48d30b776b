package storage

import (
	"context"
	"io"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// BlobStore adapts a gocloud.dev/blob.Bucket to Store, the same way the
// teacher's Reader and Dataset open a bucket with blob.OpenBucket and
// stream chunk keys through bucket.NewReader. Concrete driver selection
// (file://, s3://, gs://, mem://) happens at OpenBucket time and is the
// caller's concern, not this module's — per spec.md §1 concrete backends
// are external collaborators.
type BlobStore struct {
	bucket *blob.Bucket
}

// NewBlobStore opens the bucket at urlstr (e.g. "file:///data/my.zarr" or
// "mem://") and wraps it as a Store.
func NewBlobStore(ctx context.Context, urlstr string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, urlstr)
	if err != nil {
		return nil, Wrap("open bucket", err)
	}
	return &BlobStore{bucket: bucket}, nil
}

// WrapBucket adapts an already-open bucket.
func WrapBucket(bucket *blob.Bucket) *BlobStore {
	return &BlobStore{bucket: bucket}
}

func (b *BlobStore) Close() error {
	return b.bucket.Close()
}

func (b *BlobStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := b.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, false, nil
		}
		return nil, false, Wrap("get "+key, err)
	}
	return data, true, nil
}

func (b *BlobStore) GetPartial(ctx context.Context, key string, ranges []ByteRange) ([][]byte, bool, error) {
	attrs, err := b.bucket.Attributes(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, false, nil
		}
		return nil, false, Wrap("stat "+key, err)
	}
	total := uint64(attrs.Size)

	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		start, end, err := r.Bounds(total)
		if err != nil {
			return nil, false, err
		}
		rdr, err := b.bucket.NewRangeReader(ctx, key, int64(start), int64(end-start), nil)
		if err != nil {
			return nil, false, Wrap("range-get "+key, err)
		}
		buf, err := io.ReadAll(rdr)
		rdr.Close()
		if err != nil {
			return nil, false, Wrap("range-get "+key, err)
		}
		out[i] = buf
	}
	return out, true, nil
}

func (b *BlobStore) Set(ctx context.Context, key string, data []byte) error {
	return Wrap("set "+key, b.bucket.WriteAll(ctx, key, data, nil))
}

// SetPartial emulates in-place writes via read-modify-write, as spec.md
// §4.1 allows for backends without native partial-write support; blob
// storage backends generally fall in that category.
func (b *BlobStore) SetPartial(ctx context.Context, key string, writes []OffsetValue) error {
	cur, ok, err := b.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		cur = nil
	}
	need := uint64(len(cur))
	for _, w := range writes {
		if end := w.Offset + uint64(len(w.Value)); end > need {
			need = end
		}
	}
	grown := make([]byte, need)
	copy(grown, cur)
	for _, w := range writes {
		copy(grown[w.Offset:], w.Value)
	}
	return b.Set(ctx, key, grown)
}

func (b *BlobStore) Erase(ctx context.Context, key string) (bool, error) {
	err := b.bucket.Delete(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return false, nil
		}
		return false, Wrap("erase "+key, err)
	}
	return true, nil
}

func (b *BlobStore) ErasePrefix(ctx context.Context, prefix string) error {
	keys, err := b.ListPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := b.Erase(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (b *BlobStore) List(ctx context.Context) ([]string, error) {
	return b.ListPrefix(ctx, "")
}

func (b *BlobStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Wrap("list "+prefix, err)
		}
		out = append(out, obj.Key)
	}
	return out, nil
}

func (b *BlobStore) ListDir(ctx context.Context, prefix string) (ListDirResult, error) {
	var res ListDirResult
	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, Wrap("list-dir "+prefix, err)
		}
		if obj.IsDir {
			res.Subdirs = append(res.Subdirs, obj.Key[len(prefix):])
		} else {
			res.Keys = append(res.Keys, obj.Key)
		}
	}
	return res, nil
}

var _ Store = (*BlobStore)(nil)
