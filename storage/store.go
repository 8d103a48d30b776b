// Package storage defines the narrow byte/key interface that codecs and
// the array layer consume. Concrete backends (filesystem, HTTP, S3, ZIP)
// are external collaborators; this package only specifies the contract
// they must satisfy, plus an in-memory reference implementation used by
// tests and a thin adapter over gocloud.dev/blob for anything needing a
// real backend without depending on a specific cloud SDK.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Error classification for the storage boundary (spec.md §4.1, §7).
var (
	ErrKeyNotFound      = errors.New("storage: key not found")
	ErrInvalidByteRange = errors.New("storage: invalid byte range")
	ErrUnsupported      = errors.New("storage: operation not supported by this store")
)

// OtherError wraps a backend-specific failure that doesn't fit the
// classified taxonomy above. Callers should still errors.Is against the
// sentinels; OtherError is for everything else passed through unchanged.
type OtherError struct {
	Op  string
	Err error
}

func (e *OtherError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *OtherError) Unwrap() error { return e.Err }

// Wrap classifies a backend error, leaving already-classified sentinels
// (and anything wrapping them) untouched.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrKeyNotFound) || errors.Is(err, ErrInvalidByteRange) || errors.Is(err, ErrUnsupported) {
		return err
	}
	return &OtherError{Op: op, Err: err}
}

// ByteRange is either a start-relative or a suffix (end-relative) range,
// mirroring spec.md §4.1.
type ByteRange struct {
	// Suf is true for a Suffix(length) range; false for FromStart.
	Suf bool
	// Offset is the start offset for a FromStart range (ignored if Suf).
	Offset uint64
	// Length is the byte count. For FromStart, nil/absent means "to end" —
	// represented here by HasLength=false. For Suffix, Length is required.
	Length    uint64
	HasLength bool
}

// FromStart builds a start-relative range covering [offset, offset+length).
func FromStart(offset uint64, length uint64) ByteRange {
	return ByteRange{Offset: offset, Length: length, HasLength: true}
}

// FromStartOpen builds a start-relative range covering [offset, totalLen).
func FromStartOpen(offset uint64) ByteRange {
	return ByteRange{Offset: offset, HasLength: false}
}

// Suffix builds a range covering the last `length` bytes of the value.
func Suffix(length uint64) ByteRange {
	return ByteRange{Suf: true, Length: length, HasLength: true}
}

// Bounds resolves the range to absolute [start, end) offsets given the
// total length of the value. It returns ErrInvalidByteRange if the range
// doesn't fit within totalLen.
func (r ByteRange) Bounds(totalLen uint64) (start, end uint64, err error) {
	if r.Suf {
		if r.Length > totalLen {
			return 0, 0, ErrInvalidByteRange
		}
		return totalLen - r.Length, totalLen, nil
	}
	start = r.Offset
	if !r.HasLength {
		end = totalLen
	} else {
		end = r.Offset + r.Length
	}
	if start > totalLen || end > totalLen || start > end {
		return 0, 0, ErrInvalidByteRange
	}
	return start, end, nil
}

// OffsetValue is a (offset, bytes) pair for an in-place partial write.
type OffsetValue struct {
	Offset uint64
	Value  []byte
}

// ListDirResult is the result of a non-recursive directory-style listing:
// keys that sit directly under the prefix, and "subdirectories" (prefixes
// one segment deeper that contain further keys).
type ListDirResult struct {
	Keys    []string
	Subdirs []string
}

// Store is the storage boundary codecs and the array layer consume.
// Implementations must be safe for concurrent use by multiple goroutines;
// codec instances and array handles assume shared, lock-free read access.
type Store interface {
	// Get returns the full value for key, or (nil, false, nil) if absent.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// GetPartial returns one slice per requested range, or (nil, false, nil)
	// if key is absent. Any out-of-bounds range fails the whole call with
	// ErrInvalidByteRange.
	GetPartial(ctx context.Context, key string, ranges []ByteRange) (values [][]byte, ok bool, err error)

	// Set creates or overwrites key with data.
	Set(ctx context.Context, key string, data []byte) error

	// SetPartial writes data at each (offset, value) in place. Stores
	// without native support emulate it via read-modify-write. Writing
	// past the current end of the value extends it, zero-filling any gap.
	SetPartial(ctx context.Context, key string, writes []OffsetValue) error

	// Erase deletes key, reporting whether it existed.
	Erase(ctx context.Context, key string) (existed bool, err error)

	// ErasePrefix deletes every key under prefix.
	ErasePrefix(ctx context.Context, prefix string) error

	// List returns every key in the store. Ordering is unspecified.
	List(ctx context.Context) ([]string, error)

	// ListPrefix returns every key starting with prefix.
	ListPrefix(ctx context.Context, prefix string) ([]string, error)

	// ListDir returns the keys and child "directories" directly under
	// prefix, treating '/' as the hierarchy separator.
	ListDir(ctx context.Context, prefix string) (ListDirResult, error)
}

// SizeOf returns the size of key's value, or (0, false, nil) if absent.
// It is a convenience built on Get for stores that don't expose a
// dedicated stat operation. It reads the whole value to measure it.
func SizeOf(ctx context.Context, s Store, key string) (uint64, bool, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	return uint64(len(data)), true, nil
}
