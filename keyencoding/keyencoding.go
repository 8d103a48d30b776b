// Package keyencoding implements the chunk key encoding extension point
// (spec.md §3, §4.6): mapping a chunk index to the storage key under which
// that chunk's bytes live. This is a direct generalization of the
// teacher's ChunkKey (chunk.go, zarr/chunk.go), which hardcoded a single
// separator and the V2 "no chunk prefix" convention.
package keyencoding

import (
	"fmt"
	"strconv"
	"strings"
)

// ChunkKeyEncoding maps a chunk index to a storage key.
type ChunkKeyEncoding interface {
	Identifier() string
	EncodeKey(chunkIndex []int) string
}

// Separator is the character placed between dimension indices.
type Separator byte

const (
	Slash Separator = '/'
	Dot   Separator = '.'
)

func (s Separator) String() string {
	return string(rune(s))
}

func parseSeparator(sep string) (Separator, error) {
	switch sep {
	case "/":
		return Slash, nil
	case ".":
		return Dot, nil
	default:
		return 0, fmt.Errorf("keyencoding: unsupported separator %q, want \"/\" or \".\"", sep)
	}
}

// Default is the V3 "default" chunk key encoding: indices joined by sep,
// prefixed with "c", e.g. "c/1/4" or "c.1.4". A 0-D array's sole chunk is
// keyed "c".
type Default struct {
	Sep Separator
}

// NewDefault builds a Default encoding; sep must be "/" or ".".
func NewDefault(sep string) (*Default, error) {
	s, err := parseSeparator(sep)
	if err != nil {
		return nil, err
	}
	return &Default{Sep: s}, nil
}

func (d *Default) Identifier() string { return "default" }

func (d *Default) EncodeKey(chunkIndex []int) string {
	if len(chunkIndex) == 0 {
		return "c"
	}
	return "c" + d.Sep.String() + joinIndices(chunkIndex, d.Sep)
}

// V2 is the Zarr V2 chunk key encoding: indices joined by sep with no "c"
// prefix, e.g. "1.4". A 0-D array's sole chunk is keyed "0", per the
// teacher's ChunkKey convention.
type V2 struct {
	Sep Separator
}

// NewV2 builds a V2 encoding; sep must be "/" or ".".
func NewV2(sep string) (*V2, error) {
	s, err := parseSeparator(sep)
	if err != nil {
		return nil, err
	}
	return &V2{Sep: s}, nil
}

func (v *V2) Identifier() string { return "v2" }

func (v *V2) EncodeKey(chunkIndex []int) string {
	if len(chunkIndex) == 0 {
		return "0"
	}
	return joinIndices(chunkIndex, v.Sep)
}

// Suffix composes an inner ChunkKeyEncoding with a literal string appended
// to every key, for codecs (e.g. sharding's inner encoding within a shard,
// or file-extension conventions) that need a fixed suffix on each chunk
// key.
type Suffix struct {
	Inner  ChunkKeyEncoding
	Suffix string
}

func (s *Suffix) Identifier() string { return "suffix" }

func (s *Suffix) EncodeKey(chunkIndex []int) string {
	return s.Inner.EncodeKey(chunkIndex) + s.Suffix
}

// DefaultSuffix is the common case of Suffix wrapping a Default encoding,
// exposed directly since it's the configuration most array metadata uses
// when chunk keys need an extension (e.g. ".zarr").
func DefaultSuffix(sep string, suffix string) (*Suffix, error) {
	d, err := NewDefault(sep)
	if err != nil {
		return nil, err
	}
	return &Suffix{Inner: d, Suffix: suffix}, nil
}

func joinIndices(indices []int, sep Separator) string {
	if len(indices) == 1 {
		return strconv.Itoa(indices[0])
	}
	var sb strings.Builder
	for i, idx := range indices {
		if i > 0 {
			sb.WriteByte(byte(sep))
		}
		sb.WriteString(strconv.Itoa(idx))
	}
	return sb.String()
}

var (
	_ ChunkKeyEncoding = (*Default)(nil)
	_ ChunkKeyEncoding = (*V2)(nil)
	_ ChunkKeyEncoding = (*Suffix)(nil)
)
