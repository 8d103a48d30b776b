// Package datatype implements the Zarr data-type extension point:
// registered types identified by a stable string (spec.md §3, §4.2),
// each exposing a fixed/variable size class, fill-value
// serialisation/deserialisation, and optional codec capability traits.
package datatype

import (
	"fmt"
)

// SizeClass distinguishes data types with a constant per-element byte
// size from ones whose elements vary in length.
type SizeClass int

const (
	Fixed SizeClass = iota
	Variable
)

// Capabilities records which optional codec traits a data type supports
// (spec.md §4.2: "bytes-endianness, pack-bits, bitround, fixed-scale-offset,
// pcodec, zfp"). A codec consults the relevant flag before accepting a
// data type; zfp/pcodec flags exist so a data type can advertise support
// even though this module doesn't ship the zfp/pcodec codec bodies
// themselves (spec.md §1 keeps those compression libraries external).
type Capabilities struct {
	Endian          bool
	PackBits        bool
	Bitround        bool
	FixedScaleOffset bool
	Pcodec          bool
	Zfp             bool
}

// DataType is a registered extension identified by a stable string.
type DataType interface {
	// Identifier is the stable extension name (e.g. "uint16", "string").
	Identifier() string

	// SizeClass reports whether elements have a fixed byte size.
	SizeClass() SizeClass

	// FixedSize returns the per-element byte size for Fixed types. It
	// panics if SizeClass() is Variable; callers must check first.
	FixedSize() int

	// ParseFillValue decodes a fill value from its metadata JSON
	// representation into the type's canonical byte encoding (spec.md
	// §3: length equal to FixedSize, or semantically empty for Variable).
	ParseFillValue(raw any) ([]byte, error)

	// FormatFillValue is the inverse of ParseFillValue, producing the
	// JSON-native value to serialise into metadata.
	FormatFillValue(buf []byte) (any, error)

	// Capabilities reports which codec traits this type supports.
	Capabilities() Capabilities
}

// ErrIncompatible is returned when an element type-id doesn't match a
// data type's identifier during ArrayBytes<->elements conversion.
type ErrIncompatible struct {
	DataType string
	Element  string
}

func (e *ErrIncompatible) Error() string {
	return fmt.Sprintf("datatype: element type %q incompatible with data type %q", e.Element, e.DataType)
}

// Nullable marks a data type as the "optional<T>" wrapper described in
// spec.md §3: an inner dense data type plus a validity mask. The mask
// itself lives at the ArrayBytes level (arraybytes.Optional), not here;
// this interface just lets codecs recover the inner type.
type Nullable interface {
	DataType
	Inner() DataType
}
