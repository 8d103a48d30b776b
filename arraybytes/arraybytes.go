// Package arraybytes implements the polymorphic in-memory element buffer
// for one chunk or region described in spec.md §3/§4.2: Fixed (flat byte
// buffer), Variable (bytes + offsets), and Optional (inner ArrayBytes +
// validity mask).
package arraybytes

import (
	"errors"
	"fmt"
)

// ErrInvariant is wrapped by any construction that would violate one of
// the invariants in spec.md §3.
var ErrInvariant = errors.New("arraybytes: invariant violated")

// ArrayBytes is the in-memory element buffer for one chunk or region.
type ArrayBytes interface {
	// NumElements returns the element count this buffer holds.
	NumElements() int
}

// Fixed is a flat byte buffer; length == NumElements * ElemSize.
type Fixed struct {
	Data     []byte
	ElemSize int
}

// NewFixed validates and constructs a Fixed ArrayBytes.
func NewFixed(data []byte, elemSize int) (*Fixed, error) {
	if elemSize <= 0 {
		return nil, fmt.Errorf("%w: element size must be positive, got %d", ErrInvariant, elemSize)
	}
	if len(data)%elemSize != 0 {
		return nil, fmt.Errorf("%w: buffer length %d not a multiple of element size %d", ErrInvariant, len(data), elemSize)
	}
	return &Fixed{Data: data, ElemSize: elemSize}, nil
}

func (f *Fixed) NumElements() int { return len(f.Data) / f.ElemSize }

// Element returns the raw bytes for element i.
func (f *Fixed) Element(i int) []byte {
	return f.Data[i*f.ElemSize : (i+1)*f.ElemSize]
}

// Variable is a byte buffer plus monotonically increasing offsets of
// length NumElements+1; element i occupies Data[Offsets[i]:Offsets[i+1]].
type Variable struct {
	Data    []byte
	Offsets []int
}

// NewVariable validates and constructs a Variable ArrayBytes.
func NewVariable(data []byte, offsets []int) (*Variable, error) {
	if len(offsets) == 0 {
		return nil, fmt.Errorf("%w: offsets must have at least one entry (offset[0]=0)", ErrInvariant)
	}
	if offsets[0] != 0 {
		return nil, fmt.Errorf("%w: offsets[0] must be 0, got %d", ErrInvariant, offsets[0])
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return nil, fmt.Errorf("%w: offsets must be non-decreasing (offsets[%d]=%d < offsets[%d]=%d)", ErrInvariant, i, offsets[i], i-1, offsets[i-1])
		}
	}
	if offsets[len(offsets)-1] > len(data) {
		return nil, fmt.Errorf("%w: last offset %d exceeds buffer length %d", ErrInvariant, offsets[len(offsets)-1], len(data))
	}
	return &Variable{Data: data, Offsets: offsets}, nil
}

func (v *Variable) NumElements() int { return len(v.Offsets) - 1 }

// Element returns the raw bytes for element i.
func (v *Variable) Element(i int) []byte {
	return v.Data[v.Offsets[i]:v.Offsets[i+1]]
}

// Optional is an inner ArrayBytes (dense storage, with a placeholder for
// every element regardless of mask) plus a validity mask of exactly
// NumElements bytes: 0 = null, non-zero = present.
type Optional struct {
	Inner ArrayBytes
	Mask  []byte
}

// NewOptional validates and constructs an Optional ArrayBytes.
func NewOptional(inner ArrayBytes, mask []byte) (*Optional, error) {
	if inner.NumElements() != len(mask) {
		return nil, fmt.Errorf("%w: inner element count %d != mask length %d", ErrInvariant, inner.NumElements(), len(mask))
	}
	return &Optional{Inner: inner, Mask: mask}, nil
}

func (o *Optional) NumElements() int { return len(o.Mask) }

// IsNull reports whether element i is null.
func (o *Optional) IsNull(i int) bool { return o.Mask[i] == 0 }

// NumElementsForChunkShape returns the product of a chunk shape's extents,
// matching spec.md §3's "chunk's ArrayBytes has element-count equal to the
// product of its chunk shape" invariant (product of an empty shape is 1,
// the 0-D scalar case).
func NumElementsForChunkShape(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// Validate checks that ab's element count matches the chunk shape's
// product, per spec.md §3.
func Validate(ab ArrayBytes, chunkShape []int) error {
	want := NumElementsForChunkShape(chunkShape)
	if ab.NumElements() != want {
		return fmt.Errorf("%w: chunk shape %v implies %d elements, buffer has %d", ErrInvariant, chunkShape, want, ab.NumElements())
	}
	return nil
}
