package arraybytes

import (
	"fmt"

	"github.com/tuskan/zarrcore/indexer"
)

// ExtractSubset extracts subset (expressed against a buffer of
// bufferShape) from ab. Fixed buffers take the strided bulk copy
// (indexer.CopyBytesND, the teacher-derived N-D copy); Variable and
// Optional fall back to the flat-index gather.
func ExtractSubset(ab ArrayBytes, bufferShape []int, subset indexer.ArraySubset) (ArrayBytes, error) {
	f, ok := ab.(*Fixed)
	if !ok {
		return ExtractIndices(ab, indexer.FlattenSubset(bufferShape, subset))
	}
	if !subset.InBounds(bufferShape) {
		return nil, fmt.Errorf("arraybytes: subset %+v out of bounds for buffer shape %v", subset, bufferShape)
	}
	out := make([]byte, subset.NumElements()*f.ElemSize)
	indexer.CopyBytesND(
		out, indexer.Strides(subset.Shape), make([]int, len(bufferShape)),
		f.Data, indexer.Strides(bufferShape), subset.Start,
		subset.Shape, f.ElemSize,
	)
	return NewFixed(out, f.ElemSize)
}

// OverwriteSubset writes src (shaped like subset) into dst at subset,
// the write-side counterpart of ExtractSubset.
func OverwriteSubset(dst ArrayBytes, bufferShape []int, subset indexer.ArraySubset, src ArrayBytes) error {
	d, dok := dst.(*Fixed)
	s, sok := src.(*Fixed)
	if !dok || !sok {
		return Overwrite(dst, indexer.FlattenSubset(bufferShape, subset), src)
	}
	if d.ElemSize != s.ElemSize {
		return fmt.Errorf("arraybytes: overwrite element size mismatch: %d vs %d", d.ElemSize, s.ElemSize)
	}
	if !subset.InBounds(bufferShape) {
		return fmt.Errorf("arraybytes: subset %+v out of bounds for buffer shape %v", subset, bufferShape)
	}
	if s.NumElements() != subset.NumElements() {
		return fmt.Errorf("arraybytes: source has %d elements, subset needs %d", s.NumElements(), subset.NumElements())
	}
	indexer.CopyBytesND(
		d.Data, indexer.Strides(bufferShape), subset.Start,
		s.Data, indexer.Strides(subset.Shape), make([]int, len(bufferShape)),
		subset.Shape, d.ElemSize,
	)
	return nil
}

// ExtractIndices pulls out the elements at the given flat (C-order)
// indices into ab, producing a new ArrayBytes of len(indices) elements.
// This is the "arbitrary index list" indexer variant named in spec.md
// §4.2; ArraySubset-shaped extraction is expressed by the caller
// flattening the subset to indices first (see indexer.FlattenSubset).
//
// For Fixed this is a strided copy; for Variable, a gather through
// offsets; for Optional, both mask and inner data follow the same index
// list.
func ExtractIndices(ab ArrayBytes, indices []int) (ArrayBytes, error) {
	switch v := ab.(type) {
	case *Fixed:
		buf := make([]byte, len(indices)*v.ElemSize)
		for i, idx := range indices {
			if idx < 0 || idx >= v.NumElements() {
				return nil, fmt.Errorf("arraybytes: index %d out of range [0,%d)", idx, v.NumElements())
			}
			copy(buf[i*v.ElemSize:], v.Element(idx))
		}
		return NewFixed(buf, v.ElemSize)
	case *Variable:
		offsets := make([]int, len(indices)+1)
		var bufs [][]byte
		total := 0
		for i, idx := range indices {
			if idx < 0 || idx >= v.NumElements() {
				return nil, fmt.Errorf("arraybytes: index %d out of range [0,%d)", idx, v.NumElements())
			}
			e := v.Element(idx)
			total += len(e)
			offsets[i+1] = total
			bufs = append(bufs, e)
		}
		buf := make([]byte, total)
		pos := 0
		for _, e := range bufs {
			copy(buf[pos:], e)
			pos += len(e)
		}
		return NewVariable(buf, offsets)
	case *Optional:
		innerSub, err := ExtractIndices(v.Inner, indices)
		if err != nil {
			return nil, err
		}
		mask := make([]byte, len(indices))
		for i, idx := range indices {
			if idx < 0 || idx >= len(v.Mask) {
				return nil, fmt.Errorf("arraybytes: index %d out of range [0,%d)", idx, len(v.Mask))
			}
			mask[i] = v.Mask[idx]
		}
		return NewOptional(innerSub, mask)
	default:
		return nil, fmt.Errorf("arraybytes: unsupported ArrayBytes type %T", ab)
	}
}

// Overwrite writes src's elements into dst at the given flat indices,
// mutating dst in place where the underlying buffers are fixed-width, or
// rebuilding dst's variable-length buffer when needed. Both ab must be the
// same concrete variant. Used by region writes to merge a partially
// updated subset back into a chunk-sized buffer.
func Overwrite(dst ArrayBytes, indices []int, src ArrayBytes) error {
	if src.NumElements() != len(indices) {
		return fmt.Errorf("arraybytes: source has %d elements, need %d for index list", src.NumElements(), len(indices))
	}
	switch d := dst.(type) {
	case *Fixed:
		s, ok := src.(*Fixed)
		if !ok || s.ElemSize != d.ElemSize {
			return fmt.Errorf("arraybytes: overwrite type/size mismatch")
		}
		for i, idx := range indices {
			copy(d.Element(idx), s.Element(i))
		}
		return nil
	case *Variable:
		s, ok := src.(*Variable)
		if !ok {
			return fmt.Errorf("arraybytes: overwrite type mismatch")
		}
		return overwriteVariable(d, indices, s)
	case *Optional:
		s, ok := src.(*Optional)
		if !ok {
			return fmt.Errorf("arraybytes: overwrite type mismatch")
		}
		if err := Overwrite(d.Inner, indices, s.Inner); err != nil {
			return err
		}
		for i, idx := range indices {
			d.Mask[idx] = s.Mask[i]
		}
		return nil
	default:
		return fmt.Errorf("arraybytes: unsupported ArrayBytes type %T", dst)
	}
}

// overwriteVariable rebuilds dst's buffer entirely, since replacing
// elements of different lengths can't be done in place.
func overwriteVariable(dst *Variable, indices []int, src *Variable) error {
	n := dst.NumElements()
	merged := make([][]byte, n)
	for i := 0; i < n; i++ {
		merged[i] = dst.Element(i)
	}
	for i, idx := range indices {
		merged[idx] = src.Element(i)
	}
	offsets := make([]int, n+1)
	total := 0
	for i, e := range merged {
		total += len(e)
		offsets[i+1] = total
	}
	buf := make([]byte, total)
	pos := 0
	for _, e := range merged {
		copy(buf[pos:], e)
		pos += len(e)
	}
	rebuilt, err := NewVariable(buf, offsets)
	if err != nil {
		return err
	}
	*dst = *rebuilt
	return nil
}
