package arraybytes

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tuskan/zarrcore/datatype"
)

// FromElements converts a typed slice of Go values into an ArrayBytes
// using the element's byte layout (spec.md §4.2): little-endian for
// numerics whatever the host's byte order, UTF-8 bytes + offsets for strings, concatenated bytes +
// offsets for byte-strings, and a mask + recursive inner construction for
// optional types where each element is `any` and nil means null.
func FromElements(dt datatype.DataType, elements any) (ArrayBytes, error) {
	if opt, ok := dt.(datatype.Nullable); ok {
		vals, ok := elements.([]any)
		if !ok {
			return nil, fmt.Errorf("datatype %s: elements must be []any (nil = null)", dt.Identifier())
		}
		mask := make([]byte, len(vals))
		dense := make([]any, len(vals))
		inner := opt.Inner()
		zero, err := zeroElement(inner)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			if v == nil {
				mask[i] = 0
				dense[i] = zero
			} else {
				mask[i] = 1
				dense[i] = v
			}
		}
		denseElements, err := packDenseAny(inner, dense)
		if err != nil {
			return nil, err
		}
		innerAB, err := FromElements(inner, denseElements)
		if err != nil {
			return nil, err
		}
		return NewOptional(innerAB, mask)
	}

	switch dt.SizeClass() {
	case datatype.Variable:
		return fromElementsVariable(dt, elements)
	default:
		return fromElementsFixed(dt, elements)
	}
}

// zeroElement returns the placeholder dense value used for null entries of
// an optional array: spec.md §3 requires the inner ArrayBytes to "contain
// a placeholder for every element regardless of mask".
func zeroElement(dt datatype.DataType) (any, error) {
	// A nullable inner type's placeholder is a null at its own level;
	// its recursive FromElements masks it out again.
	if _, ok := dt.(datatype.Nullable); ok {
		return nil, nil
	}
	switch dt.SizeClass() {
	case datatype.Variable:
		switch dt.Identifier() {
		case "string":
			return "", nil
		default:
			return []byte{}, nil
		}
	default:
		switch dt.Identifier() {
		case "bool":
			return false, nil
		case "int8":
			return int8(0), nil
		case "int16":
			return int16(0), nil
		case "int32":
			return int32(0), nil
		case "int64":
			return int64(0), nil
		case "uint8":
			return uint8(0), nil
		case "uint16":
			return uint16(0), nil
		case "uint32":
			return uint32(0), nil
		case "uint64":
			return uint64(0), nil
		case "float32":
			return float32(0), nil
		case "float64":
			return float64(0), nil
		case "complex64":
			return complex64(0), nil
		case "complex128":
			return complex128(0), nil
		default:
			return make([]byte, dt.FixedSize()), nil
		}
	}
}

// packDenseAny converts a []any of homogeneously-typed dense values back
// into the concrete typed slice fromElementsFixed/fromElementsVariable
// expect.
func packDenseAny(dt datatype.DataType, dense []any) (any, error) {
	if _, ok := dt.(datatype.Nullable); ok {
		return dense, nil
	}
	switch dt.SizeClass() {
	case datatype.Variable:
		switch dt.Identifier() {
		case "string":
			out := make([]string, len(dense))
			for i, v := range dense {
				s, ok := v.(string)
				if !ok {
					return nil, fmt.Errorf("datatype string: element %d is %T, want string", i, v)
				}
				out[i] = s
			}
			return out, nil
		default:
			out := make([][]byte, len(dense))
			for i, v := range dense {
				b, ok := v.([]byte)
				if !ok {
					return nil, fmt.Errorf("datatype bytes: element %d is %T, want []byte", i, v)
				}
				out[i] = b
			}
			return out, nil
		}
	default:
		return packDenseFixed(dt, dense)
	}
}

func packDenseFixed(dt datatype.DataType, dense []any) (any, error) {
	n := len(dense)
	mismatch := func(i int, want string) error {
		return fmt.Errorf("datatype %s: element %d is %T, want %s", dt.Identifier(), i, dense[i], want)
	}
	switch dt.Identifier() {
	case "bool":
		out := make([]bool, n)
		for i, v := range dense {
			b, ok := v.(bool)
			if !ok {
				return nil, mismatch(i, "bool")
			}
			out[i] = b
		}
		return out, nil
	case "int8":
		out := make([]int8, n)
		for i, v := range dense {
			x, ok := v.(int8)
			if !ok {
				return nil, mismatch(i, "int8")
			}
			out[i] = x
		}
		return out, nil
	case "int16":
		out := make([]int16, n)
		for i, v := range dense {
			x, ok := v.(int16)
			if !ok {
				return nil, mismatch(i, "int16")
			}
			out[i] = x
		}
		return out, nil
	case "int32":
		out := make([]int32, n)
		for i, v := range dense {
			x, ok := v.(int32)
			if !ok {
				return nil, mismatch(i, "int32")
			}
			out[i] = x
		}
		return out, nil
	case "int64":
		out := make([]int64, n)
		for i, v := range dense {
			x, ok := v.(int64)
			if !ok {
				return nil, mismatch(i, "int64")
			}
			out[i] = x
		}
		return out, nil
	case "uint8":
		out := make([]uint8, n)
		for i, v := range dense {
			x, ok := v.(uint8)
			if !ok {
				return nil, mismatch(i, "uint8")
			}
			out[i] = x
		}
		return out, nil
	case "uint16":
		out := make([]uint16, n)
		for i, v := range dense {
			x, ok := v.(uint16)
			if !ok {
				return nil, mismatch(i, "uint16")
			}
			out[i] = x
		}
		return out, nil
	case "uint32":
		out := make([]uint32, n)
		for i, v := range dense {
			x, ok := v.(uint32)
			if !ok {
				return nil, mismatch(i, "uint32")
			}
			out[i] = x
		}
		return out, nil
	case "uint64":
		out := make([]uint64, n)
		for i, v := range dense {
			x, ok := v.(uint64)
			if !ok {
				return nil, mismatch(i, "uint64")
			}
			out[i] = x
		}
		return out, nil
	case "float32":
		out := make([]float32, n)
		for i, v := range dense {
			x, ok := v.(float32)
			if !ok {
				return nil, mismatch(i, "float32")
			}
			out[i] = x
		}
		return out, nil
	case "float64":
		out := make([]float64, n)
		for i, v := range dense {
			x, ok := v.(float64)
			if !ok {
				return nil, mismatch(i, "float64")
			}
			out[i] = x
		}
		return out, nil
	default:
		out := make([][]byte, n)
		for i, v := range dense {
			b, ok := v.([]byte)
			if !ok {
				return nil, mismatch(i, "[]byte (raw bits)")
			}
			out[i] = b
		}
		return out, nil
	}
}

func fromElementsFixed(dt datatype.DataType, elements any) (ArrayBytes, error) {
	elemSize := dt.FixedSize()
	switch v := elements.(type) {
	case []bool:
		buf := make([]byte, len(v)*elemSize)
		for i, b := range v {
			if b {
				buf[i] = 1
			}
		}
		return NewFixed(buf, elemSize)
	case []int8:
		return fixedFromBytesEach(v, elemSize, func(x int8, b []byte) { b[0] = byte(x) })
	case []uint8:
		return fixedFromBytesEach(v, elemSize, func(x uint8, b []byte) { b[0] = x })
	case []int16:
		return fixedFromBytesEach(v, elemSize, func(x int16, b []byte) { binary.LittleEndian.PutUint16(b, uint16(x)) })
	case []uint16:
		return fixedFromBytesEach(v, elemSize, func(x uint16, b []byte) { binary.LittleEndian.PutUint16(b, x) })
	case []int32:
		return fixedFromBytesEach(v, elemSize, func(x int32, b []byte) { binary.LittleEndian.PutUint32(b, uint32(x)) })
	case []uint32:
		return fixedFromBytesEach(v, elemSize, func(x uint32, b []byte) { binary.LittleEndian.PutUint32(b, x) })
	case []int64:
		return fixedFromBytesEach(v, elemSize, func(x int64, b []byte) { binary.LittleEndian.PutUint64(b, uint64(x)) })
	case []uint64:
		return fixedFromBytesEach(v, elemSize, func(x uint64, b []byte) { binary.LittleEndian.PutUint64(b, x) })
	case []float32:
		return fixedFromBytesEach(v, elemSize, func(x float32, b []byte) { binary.LittleEndian.PutUint32(b, math.Float32bits(x)) })
	case []float64:
		return fixedFromBytesEach(v, elemSize, func(x float64, b []byte) { binary.LittleEndian.PutUint64(b, math.Float64bits(x)) })
	case []complex64:
		return fixedFromBytesEach(v, elemSize, func(x complex64, b []byte) {
			binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(real(x)))
			binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(imag(x)))
		})
	case []complex128:
		return fixedFromBytesEach(v, elemSize, func(x complex128, b []byte) {
			binary.LittleEndian.PutUint64(b[0:8], math.Float64bits(real(x)))
			binary.LittleEndian.PutUint64(b[8:16], math.Float64bits(imag(x)))
		})
	case [][]byte:
		buf := make([]byte, len(v)*elemSize)
		for i, raw := range v {
			if len(raw) != elemSize {
				return nil, fmt.Errorf("datatype %s: raw element %d has %d bytes, want %d", dt.Identifier(), i, len(raw), elemSize)
			}
			copy(buf[i*elemSize:], raw)
		}
		return NewFixed(buf, elemSize)
	default:
		return nil, fmt.Errorf("datatype %s: unsupported element slice type %T", dt.Identifier(), elements)
	}
}

func fixedFromBytesEach[T any](v []T, elemSize int, put func(T, []byte)) (ArrayBytes, error) {
	buf := make([]byte, len(v)*elemSize)
	for i, x := range v {
		put(x, buf[i*elemSize:(i+1)*elemSize])
	}
	return NewFixed(buf, elemSize)
}

func fromElementsVariable(dt datatype.DataType, elements any) (ArrayBytes, error) {
	var segments [][]byte
	switch v := elements.(type) {
	case []string:
		segments = make([][]byte, len(v))
		for i, s := range v {
			segments[i] = []byte(s)
		}
	case [][]byte:
		segments = v
	default:
		return nil, fmt.Errorf("datatype %s: unsupported element slice type %T", dt.Identifier(), elements)
	}
	offsets := make([]int, len(segments)+1)
	total := 0
	for i, s := range segments {
		total += len(s)
		offsets[i+1] = total
	}
	buf := make([]byte, total)
	pos := 0
	for _, s := range segments {
		copy(buf[pos:], s)
		pos += len(s)
	}
	return NewVariable(buf, offsets)
}

// ToElements is the inverse of FromElements, converting an ArrayBytes back
// to Go values. elementTypeID must match dt's identifier, enforcing the
// compatibility check spec.md §4.2 requires.
func ToElements(dt datatype.DataType, ab ArrayBytes, elementTypeID string) (any, error) {
	if elementTypeID != dt.Identifier() {
		return nil, &datatype.ErrIncompatible{DataType: dt.Identifier(), Element: elementTypeID}
	}
	return toElementsUnchecked(dt, ab)
}

func toElementsUnchecked(dt datatype.DataType, ab ArrayBytes) (any, error) {
	if opt, ok := dt.(datatype.Nullable); ok {
		o, ok := ab.(*Optional)
		if !ok {
			return nil, fmt.Errorf("datatype %s: expected Optional ArrayBytes, got %T", dt.Identifier(), ab)
		}
		denseAny, err := toElementsAsAny(opt.Inner(), o.Inner)
		if err != nil {
			return nil, err
		}
		out := make([]any, o.NumElements())
		for i := range out {
			if o.IsNull(i) {
				out[i] = nil
			} else {
				out[i] = denseAny[i]
			}
		}
		return out, nil
	}

	switch dt.SizeClass() {
	case datatype.Variable:
		v, ok := ab.(*Variable)
		if !ok {
			return nil, fmt.Errorf("datatype %s: expected Variable ArrayBytes, got %T", dt.Identifier(), ab)
		}
		if dt.Identifier() == "string" {
			out := make([]string, v.NumElements())
			for i := range out {
				out[i] = string(v.Element(i))
			}
			return out, nil
		}
		out := make([][]byte, v.NumElements())
		for i := range out {
			e := v.Element(i)
			cp := make([]byte, len(e))
			copy(cp, e)
			out[i] = cp
		}
		return out, nil
	default:
		f, ok := ab.(*Fixed)
		if !ok {
			return nil, fmt.Errorf("datatype %s: expected Fixed ArrayBytes, got %T", dt.Identifier(), ab)
		}
		return toElementsFixed(dt, f)
	}
}

// toElementsAsAny is like toElementsUnchecked but always returns a []any,
// used to reassemble an Optional's dense inner values alongside the mask.
func toElementsAsAny(dt datatype.DataType, ab ArrayBytes) ([]any, error) {
	typed, err := toElementsUnchecked(dt, ab)
	if err != nil {
		return nil, err
	}
	n := ab.NumElements()
	out := make([]any, n)
	switch v := typed.(type) {
	case []bool:
		for i, x := range v {
			out[i] = x
		}
	case []int8:
		for i, x := range v {
			out[i] = x
		}
	case []int16:
		for i, x := range v {
			out[i] = x
		}
	case []int32:
		for i, x := range v {
			out[i] = x
		}
	case []int64:
		for i, x := range v {
			out[i] = x
		}
	case []uint8:
		for i, x := range v {
			out[i] = x
		}
	case []uint16:
		for i, x := range v {
			out[i] = x
		}
	case []uint32:
		for i, x := range v {
			out[i] = x
		}
	case []uint64:
		for i, x := range v {
			out[i] = x
		}
	case []float32:
		for i, x := range v {
			out[i] = x
		}
	case []float64:
		for i, x := range v {
			out[i] = x
		}
	case []complex64:
		for i, x := range v {
			out[i] = x
		}
	case []complex128:
		for i, x := range v {
			out[i] = x
		}
	case []string:
		for i, x := range v {
			out[i] = x
		}
	case [][]byte:
		for i, x := range v {
			out[i] = x
		}
	default:
		return nil, fmt.Errorf("datatype %s: cannot box element type %T", dt.Identifier(), typed)
	}
	return out, nil
}

func toElementsFixed(dt datatype.DataType, f *Fixed) (any, error) {
	n := f.NumElements()
	switch dt.Identifier() {
	case "bool":
		out := make([]bool, n)
		for i := range out {
			out[i] = f.Element(i)[0] != 0
		}
		return out, nil
	case "int8":
		out := make([]int8, n)
		for i := range out {
			out[i] = int8(f.Element(i)[0])
		}
		return out, nil
	case "uint8":
		out := make([]uint8, n)
		for i := range out {
			out[i] = f.Element(i)[0]
		}
		return out, nil
	case "int16":
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(f.Element(i)))
		}
		return out, nil
	case "uint16":
		out := make([]uint16, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint16(f.Element(i))
		}
		return out, nil
	case "int32":
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(f.Element(i)))
		}
		return out, nil
	case "uint32":
		out := make([]uint32, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(f.Element(i))
		}
		return out, nil
	case "int64":
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(f.Element(i)))
		}
		return out, nil
	case "uint64":
		out := make([]uint64, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint64(f.Element(i))
		}
		return out, nil
	case "float32":
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(f.Element(i)))
		}
		return out, nil
	case "float64":
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(f.Element(i)))
		}
		return out, nil
	case "complex64":
		out := make([]complex64, n)
		for i := range out {
			e := f.Element(i)
			out[i] = complex(math.Float32frombits(binary.LittleEndian.Uint32(e[0:4])), math.Float32frombits(binary.LittleEndian.Uint32(e[4:8])))
		}
		return out, nil
	case "complex128":
		out := make([]complex128, n)
		for i := range out {
			e := f.Element(i)
			out[i] = complex(math.Float64frombits(binary.LittleEndian.Uint64(e[0:8])), math.Float64frombits(binary.LittleEndian.Uint64(e[8:16])))
		}
		return out, nil
	default:
		out := make([][]byte, n)
		for i := range out {
			e := f.Element(i)
			cp := make([]byte, len(e))
			copy(cp, e)
			out[i] = cp
		}
		return out, nil
	}
}

// FillValueBroadcast produces an ArrayBytes of count elements, all equal
// to fillValue (spec.md §4.2). For Variable data types the fill value's
// bytes are repeated with offsets stepping by its length; for Optional
// types the fill value is broadcast as the (present) inner value unless
// the data type advertises an all-null fill via a nil fillValue.
func FillValueBroadcast(dt datatype.DataType, count int, fillValue []byte) (ArrayBytes, error) {
	if opt, ok := dt.(datatype.Nullable); ok {
		mask := make([]byte, count)
		if fillValue != nil {
			for i := range mask {
				mask[i] = 1
			}
		}
		inner := opt.Inner()
		innerFill := fillValue
		if innerFill == nil {
			z, err := zeroElement(inner)
			if err != nil {
				return nil, err
			}
			dense, err := packDenseAny(inner, []any{z})
			if err != nil {
				return nil, err
			}
			tmp, err := FromElements(inner, dense)
			if err != nil {
				return nil, err
			}
			innerFill = elementBytes(inner, tmp, 0)
		}
		innerAB, err := FillValueBroadcast(inner, count, innerFill)
		if err != nil {
			return nil, err
		}
		return NewOptional(innerAB, mask)
	}

	switch dt.SizeClass() {
	case datatype.Variable:
		offsets := make([]int, count+1)
		for i := range offsets {
			offsets[i] = i * len(fillValue)
		}
		buf := make([]byte, len(fillValue)*count)
		for i := 0; i < count; i++ {
			copy(buf[i*len(fillValue):], fillValue)
		}
		return NewVariable(buf, offsets)
	default:
		elemSize := dt.FixedSize()
		if len(fillValue) != elemSize {
			return nil, fmt.Errorf("%w: fill value length %d != element size %d for %s", ErrInvariant, len(fillValue), elemSize, dt.Identifier())
		}
		buf := make([]byte, count*elemSize)
		for i := 0; i < count; i++ {
			copy(buf[i*elemSize:], fillValue)
		}
		return NewFixed(buf, elemSize)
	}
}

func elementBytes(dt datatype.DataType, ab ArrayBytes, i int) []byte {
	switch v := ab.(type) {
	case *Fixed:
		return v.Element(i)
	case *Variable:
		return v.Element(i)
	default:
		return nil
	}
}
