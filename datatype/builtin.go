package datatype

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// boolType implements the "bool" data type: one byte, 0x00/0x01.
type boolType struct{}

func Bool() DataType { return boolType{} }

func (boolType) Identifier() string   { return "bool" }
func (boolType) SizeClass() SizeClass { return Fixed }
func (boolType) FixedSize() int       { return 1 }
func (boolType) Capabilities() Capabilities {
	return Capabilities{Endian: false, PackBits: true, Bitround: false}
}

func (boolType) ParseFillValue(raw any) ([]byte, error) {
	b, ok := raw.(bool)
	if !ok {
		return nil, fmt.Errorf("datatype bool: fill_value must be a JSON bool, got %T", raw)
	}
	if b {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func (boolType) FormatFillValue(buf []byte) (any, error) {
	if len(buf) != 1 {
		return nil, fmt.Errorf("datatype bool: fill value buffer must be 1 byte, got %d", len(buf))
	}
	return buf[0] != 0, nil
}

// intType covers int8/16/32/64 and uint8/16/32/64 via a signed flag.
type intType struct {
	bits   int
	signed bool
}

func Int8() DataType   { return intType{8, true} }
func Int16() DataType  { return intType{16, true} }
func Int32() DataType  { return intType{32, true} }
func Int64() DataType  { return intType{64, true} }
func Uint8() DataType  { return intType{8, false} }
func Uint16() DataType { return intType{16, false} }
func Uint32() DataType { return intType{32, false} }
func Uint64() DataType { return intType{64, false} }

func (t intType) Identifier() string {
	if t.signed {
		return fmt.Sprintf("int%d", t.bits)
	}
	return fmt.Sprintf("uint%d", t.bits)
}
func (t intType) SizeClass() SizeClass { return Fixed }
func (t intType) FixedSize() int       { return t.bits / 8 }
func (t intType) Capabilities() Capabilities {
	return Capabilities{Endian: true, PackBits: t.bits == 8, FixedScaleOffset: true}
}

func (t intType) ParseFillValue(raw any) ([]byte, error) {
	n, ok := raw.(float64)
	if !ok {
		if s, isStr := raw.(string); isStr {
			var err error
			n, err = strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("datatype %s: invalid fill_value %q: %w", t.Identifier(), s, err)
			}
		} else {
			return nil, fmt.Errorf("datatype %s: fill_value must be a number, got %T", t.Identifier(), raw)
		}
	}
	buf := make([]byte, t.FixedSize())
	u := uint64(int64(n))
	switch t.bits {
	case 8:
		buf[0] = byte(u)
	case 16:
		binary.LittleEndian.PutUint16(buf, uint16(u))
	case 32:
		binary.LittleEndian.PutUint32(buf, uint32(u))
	case 64:
		binary.LittleEndian.PutUint64(buf, u)
	}
	return buf, nil
}

func (t intType) FormatFillValue(buf []byte) (any, error) {
	if len(buf) != t.FixedSize() {
		return nil, fmt.Errorf("datatype %s: fill value buffer must be %d bytes, got %d", t.Identifier(), t.FixedSize(), len(buf))
	}
	switch t.bits {
	case 8:
		if t.signed {
			return float64(int8(buf[0])), nil
		}
		return float64(buf[0]), nil
	case 16:
		u := binary.LittleEndian.Uint16(buf)
		if t.signed {
			return float64(int16(u)), nil
		}
		return float64(u), nil
	case 32:
		u := binary.LittleEndian.Uint32(buf)
		if t.signed {
			return float64(int32(u)), nil
		}
		return float64(u), nil
	default:
		u := binary.LittleEndian.Uint64(buf)
		if t.signed {
			return float64(int64(u)), nil
		}
		return float64(u), nil
	}
}

// floatType covers float32/float64, including the NaN/Infinity/-Infinity
// and "0x..." hex-bitpattern JSON encodings the Zarr V3 spec defines for
// non-finite and exact fill values.
type floatType struct{ bits int }

func Float32() DataType { return floatType{32} }
func Float64() DataType { return floatType{64} }

func (t floatType) Identifier() string        { return fmt.Sprintf("float%d", t.bits) }
func (t floatType) SizeClass() SizeClass      { return Fixed }
func (t floatType) FixedSize() int            { return t.bits / 8 }
func (t floatType) Capabilities() Capabilities {
	return Capabilities{Endian: true, Bitround: true, FixedScaleOffset: true, Pcodec: true, Zfp: true}
}

func (t floatType) ParseFillValue(raw any) ([]byte, error) {
	buf := make([]byte, t.FixedSize())
	var bits uint64
	switch v := raw.(type) {
	case float64:
		if t.bits == 32 {
			bits = uint64(math.Float32bits(float32(v)))
		} else {
			bits = math.Float64bits(v)
		}
	case string:
		switch v {
		case "NaN":
			bits = nanBits(t.bits)
		case "Infinity":
			bits = infBits(t.bits, false)
		case "-Infinity":
			bits = infBits(t.bits, true)
		default:
			if len(v) > 2 && v[:2] == "0x" {
				u, err := strconv.ParseUint(v[2:], 16, 64)
				if err != nil {
					return nil, fmt.Errorf("datatype %s: invalid hex fill_value %q: %w", t.Identifier(), v, err)
				}
				bits = u
			} else {
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, fmt.Errorf("datatype %s: invalid fill_value %q: %w", t.Identifier(), v, err)
				}
				if t.bits == 32 {
					bits = uint64(math.Float32bits(float32(f)))
				} else {
					bits = math.Float64bits(f)
				}
			}
		}
	default:
		return nil, fmt.Errorf("datatype %s: unsupported fill_value type %T", t.Identifier(), raw)
	}
	if t.bits == 32 {
		binary.LittleEndian.PutUint32(buf, uint32(bits))
	} else {
		binary.LittleEndian.PutUint64(buf, bits)
	}
	return buf, nil
}

func nanBits(bits int) uint64 {
	if bits == 32 {
		return uint64(math.Float32bits(float32(math.NaN())))
	}
	return math.Float64bits(math.NaN())
}

func infBits(bits int, negative bool) uint64 {
	sign := 1.0
	if negative {
		sign = -1.0
	}
	if bits == 32 {
		return uint64(math.Float32bits(float32(sign * math.Inf(1))))
	}
	return math.Float64bits(sign * math.Inf(1))
}

func (t floatType) FormatFillValue(buf []byte) (any, error) {
	if len(buf) != t.FixedSize() {
		return nil, fmt.Errorf("datatype %s: fill value buffer must be %d bytes, got %d", t.Identifier(), t.FixedSize(), len(buf))
	}
	if t.bits == 32 {
		f := math.Float32frombits(binary.LittleEndian.Uint32(buf))
		return formatFloat(float64(f), math.IsNaN(float64(f)), math.IsInf(float64(f), 0)), nil
	}
	f := math.Float64frombits(binary.LittleEndian.Uint64(buf))
	return formatFloat(f, math.IsNaN(f), math.IsInf(f, 0)), nil
}

func formatFloat(f float64, isNaN, isInf bool) any {
	switch {
	case isNaN:
		return "NaN"
	case isInf && f > 0:
		return "Infinity"
	case isInf:
		return "-Infinity"
	default:
		return f
	}
}

// complexType covers complex64/complex128 as two consecutive floats.
type complexType struct{ bits int }

func Complex64() DataType  { return complexType{64} }
func Complex128() DataType { return complexType{128} }

func (t complexType) Identifier() string   { return fmt.Sprintf("complex%d", t.bits) }
func (t complexType) SizeClass() SizeClass { return Fixed }
func (t complexType) FixedSize() int       { return t.bits / 8 }
func (t complexType) Capabilities() Capabilities {
	return Capabilities{Endian: true}
}

func (t complexType) componentType() floatType { return floatType{t.bits / 2} }

func (t complexType) ParseFillValue(raw any) ([]byte, error) {
	pair, ok := raw.([]any)
	if !ok || len(pair) != 2 {
		return nil, fmt.Errorf("datatype %s: fill_value must be a [re, im] pair", t.Identifier())
	}
	comp := t.componentType()
	re, err := comp.ParseFillValue(pair[0])
	if err != nil {
		return nil, err
	}
	im, err := comp.ParseFillValue(pair[1])
	if err != nil {
		return nil, err
	}
	return append(re, im...), nil
}

func (t complexType) FormatFillValue(buf []byte) (any, error) {
	half := t.FixedSize() / 2
	if len(buf) != t.FixedSize() {
		return nil, fmt.Errorf("datatype %s: fill value buffer must be %d bytes, got %d", t.Identifier(), t.FixedSize(), len(buf))
	}
	comp := t.componentType()
	re, err := comp.FormatFillValue(buf[:half])
	if err != nil {
		return nil, err
	}
	im, err := comp.FormatFillValue(buf[half:])
	if err != nil {
		return nil, err
	}
	return []any{re, im}, nil
}

// rawBitsType implements Zarr's "rNN" raw-bits type: an opaque fixed-size
// blob with no numeric interpretation (used for e.g. r24 RGB triples).
type rawBitsType struct{ bits int }

// RawBits returns the rNN data type for a bit width divisible by 8.
func RawBits(bits int) DataType { return rawBitsType{bits} }

func (t rawBitsType) Identifier() string        { return fmt.Sprintf("r%d", t.bits) }
func (t rawBitsType) SizeClass() SizeClass       { return Fixed }
func (t rawBitsType) FixedSize() int             { return t.bits / 8 }
func (t rawBitsType) Capabilities() Capabilities { return Capabilities{PackBits: true} }

func (t rawBitsType) ParseFillValue(raw any) ([]byte, error) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("datatype %s: fill_value must be a JSON array of bytes", t.Identifier())
	}
	buf := make([]byte, t.FixedSize())
	if len(arr) != len(buf) {
		return nil, fmt.Errorf("datatype %s: fill_value has %d bytes, expected %d", t.Identifier(), len(arr), len(buf))
	}
	for i, v := range arr {
		n, ok := v.(float64)
		if !ok || n < 0 || n > 255 {
			return nil, fmt.Errorf("datatype %s: fill_value byte %d invalid: %v", t.Identifier(), i, v)
		}
		buf[i] = byte(n)
	}
	return buf, nil
}

func (t rawBitsType) FormatFillValue(buf []byte) (any, error) {
	out := make([]any, len(buf))
	for i, b := range buf {
		out[i] = float64(b)
	}
	return out, nil
}

// stringType implements "string": variable-length UTF-8 text.
type stringType struct{}

func String() DataType { return stringType{} }

func (stringType) Identifier() string        { return "string" }
func (stringType) SizeClass() SizeClass       { return Variable }
func (stringType) FixedSize() int             { panic("datatype string: variable size class has no FixedSize") }
func (stringType) Capabilities() Capabilities { return Capabilities{} }

func (stringType) ParseFillValue(raw any) ([]byte, error) {
	if raw == nil {
		return []byte{}, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("datatype string: fill_value must be a string, got %T", raw)
	}
	return []byte(s), nil
}

func (stringType) FormatFillValue(buf []byte) (any, error) {
	return string(buf), nil
}

// bytesType implements "bytes": variable-length opaque byte strings.
type bytesType struct{}

func Bytes() DataType { return bytesType{} }

func (bytesType) Identifier() string        { return "bytes" }
func (bytesType) SizeClass() SizeClass      { return Variable }
func (bytesType) FixedSize() int            { panic("datatype bytes: variable size class has no FixedSize") }
func (bytesType) Capabilities() Capabilities { return Capabilities{} }

func (bytesType) ParseFillValue(raw any) ([]byte, error) {
	if raw == nil {
		return []byte{}, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("datatype bytes: fill_value must be a base64-less byte-string literal, got %T", raw)
	}
	return []byte(s), nil
}

func (bytesType) FormatFillValue(buf []byte) (any, error) {
	return string(buf), nil
}

// optionalType wraps an inner data type with nullability (spec.md §3's
// "optional<T>"). Its own fill value is the inner type's fill value; the
// validity mask lives at the ArrayBytes level, not in this DataType.
type optionalType struct{ inner DataType }

// Optional returns the "optional<inner>" nullable wrapper data type.
func Optional(inner DataType) DataType { return optionalType{inner} }

func (t optionalType) Identifier() string        { return "optional<" + t.inner.Identifier() + ">" }
func (t optionalType) SizeClass() SizeClass       { return t.inner.SizeClass() }
func (t optionalType) FixedSize() int             { return t.inner.FixedSize() }
func (t optionalType) Capabilities() Capabilities { return t.inner.Capabilities() }
func (t optionalType) Inner() DataType            { return t.inner }

// ParseFillValue treats JSON null as the all-null fill (a nil buffer,
// which FillValueBroadcast turns into an all-zero mask); anything else
// is the inner type's fill value with every element present.
func (t optionalType) ParseFillValue(raw any) ([]byte, error) {
	if raw == nil {
		return nil, nil
	}
	return t.inner.ParseFillValue(raw)
}

func (t optionalType) FormatFillValue(buf []byte) (any, error) {
	if buf == nil {
		return nil, nil
	}
	return t.inner.FormatFillValue(buf)
}

var _ Nullable = optionalType{}
