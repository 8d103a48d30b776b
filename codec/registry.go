package codec

import (
	"encoding/json"
	"fmt"

	"github.com/tuskan/zarrcore/registry"
)

// ArrayToArrayRegistry, ArrayToBytesRegistry and BytesToBytesRegistry are
// the three process-wide codec extension registries (spec.md §4.6): one
// per stage of the pipeline, since a codec implements exactly one of the
// three stage interfaces.
var (
	ArrayToArrayRegistry = registry.New[ArrayToArrayCodec]()
	ArrayToBytesRegistry = registry.New[ArrayToBytesCodec]()
	BytesToBytesRegistry = registry.New[BytesToBytesCodec]()
)

func init() {
	ArrayToArrayRegistry.RegisterCompileTime(registry.Plugin[ArrayToArrayCodec]{
		Identifier: "transpose",
		Create: func(raw []byte) (ArrayToArrayCodec, error) {
			var cfg struct {
				Order []int `json:"order"`
			}
			if err := unmarshalConfig(raw, &cfg); err != nil {
				return nil, err
			}
			return NewTranspose(cfg.Order)
		},
	})
	ArrayToArrayRegistry.RegisterCompileTime(registry.Plugin[ArrayToArrayCodec]{
		Identifier: "reshape",
		Create: func(raw []byte) (ArrayToArrayCodec, error) {
			var cfg struct {
				Shape []int `json:"shape"`
			}
			if err := unmarshalConfig(raw, &cfg); err != nil {
				return nil, err
			}
			return NewReshape(cfg.Shape)
		},
	})
	ArrayToArrayRegistry.RegisterCompileTime(registry.Plugin[ArrayToArrayCodec]{
		Identifier: "squeeze",
		Create: func(raw []byte) (ArrayToArrayCodec, error) {
			return &Squeeze{}, nil
		},
	})
	ArrayToArrayRegistry.RegisterCompileTime(registry.Plugin[ArrayToArrayCodec]{
		Identifier: "bitround",
		Create: func(raw []byte) (ArrayToArrayCodec, error) {
			var cfg struct {
				Keepbits int `json:"keepbits"`
			}
			if err := unmarshalConfig(raw, &cfg); err != nil {
				return nil, err
			}
			return NewBitround(cfg.Keepbits)
		},
	})

	ArrayToBytesRegistry.RegisterCompileTime(registry.Plugin[ArrayToBytesCodec]{
		Identifier: "bytes",
		Create: func(raw []byte) (ArrayToBytesCodec, error) {
			var cfg struct {
				Endian string `json:"endian"`
			}
			cfg.Endian = "little"
			if err := unmarshalConfig(raw, &cfg); err != nil {
				return nil, err
			}
			endian := LittleEndian
			if cfg.Endian == "big" {
				endian = BigEndian
			}
			return &BytesCodec{Endian: endian}, nil
		},
	})
	ArrayToBytesRegistry.RegisterCompileTime(registry.Plugin[ArrayToBytesCodec]{
		Identifier: "vlen_v2",
		Create: func(raw []byte) (ArrayToBytesCodec, error) {
			return &VlenV2{}, nil
		},
	})

	BytesToBytesRegistry.RegisterCompileTime(registry.Plugin[BytesToBytesCodec]{
		Identifier: "gzip",
		Create: func(raw []byte) (BytesToBytesCodec, error) {
			var cfg struct {
				Level int `json:"level"`
			}
			if err := unmarshalConfig(raw, &cfg); err != nil {
				return nil, err
			}
			return NewGzip(cfg.Level), nil
		},
	})
	BytesToBytesRegistry.RegisterCompileTime(registry.Plugin[BytesToBytesCodec]{
		Identifier: "zstd",
		Create: func(raw []byte) (BytesToBytesCodec, error) {
			var cfg struct {
				Level int `json:"level"`
			}
			if err := unmarshalConfig(raw, &cfg); err != nil {
				return nil, err
			}
			return NewZstd(cfg.Level), nil
		},
	})
	BytesToBytesRegistry.RegisterCompileTime(registry.Plugin[BytesToBytesCodec]{
		Identifier: "blosc",
		Create: func(raw []byte) (BytesToBytesCodec, error) {
			cfg := struct {
				Cname   string `json:"cname"`
				Clevel  int    `json:"clevel"`
				Shuffle int    `json:"shuffle"`
				Typesize int   `json:"typesize"`
			}{Cname: "zstd", Clevel: 5, Typesize: 4}
			if err := unmarshalConfig(raw, &cfg); err != nil {
				return nil, err
			}
			return NewBlosc(cfg.Cname, cfg.Clevel, cfg.Shuffle, cfg.Typesize), nil
		},
	})
	BytesToBytesRegistry.RegisterCompileTime(registry.Plugin[BytesToBytesCodec]{
		Identifier: "snappy",
		Create: func(raw []byte) (BytesToBytesCodec, error) {
			return &Snappy{}, nil
		},
	})
	BytesToBytesRegistry.RegisterCompileTime(registry.Plugin[BytesToBytesCodec]{
		Identifier: "crc32c",
		Create: func(raw []byte) (BytesToBytesCodec, error) {
			cfg := struct {
				Location          string `json:"location"`
				ValidateChecksums bool   `json:"validate_checksums"`
			}{Location: "suffix", ValidateChecksums: true}
			if err := unmarshalConfig(raw, &cfg); err != nil {
				return nil, err
			}
			loc := ChecksumSuffix
			if cfg.Location == "prefix" {
				loc = ChecksumPrefix
			}
			return &Crc32c{Location: loc, ValidateChecksums: cfg.ValidateChecksums}, nil
		},
	})
	BytesToBytesRegistry.RegisterCompileTime(registry.Plugin[BytesToBytesCodec]{
		Identifier: "xxh3",
		Create: func(raw []byte) (BytesToBytesCodec, error) {
			cfg := struct {
				ValidateChecksums bool `json:"validate_checksums"`
			}{ValidateChecksums: true}
			if err := unmarshalConfig(raw, &cfg); err != nil {
				return nil, err
			}
			return &Xxh3{ValidateChecksums: cfg.ValidateChecksums}, nil
		},
	})
	BytesToBytesRegistry.RegisterCompileTime(registry.Plugin[BytesToBytesCodec]{
		Identifier: "shuffle",
		Create: func(raw []byte) (BytesToBytesCodec, error) {
			var cfg struct {
				ElementSize int `json:"elementsize"`
			}
			if err := unmarshalConfig(raw, &cfg); err != nil {
				return nil, err
			}
			return NewShuffle(cfg.ElementSize)
		},
	})
	BytesToBytesRegistry.RegisterCompileTime(registry.Plugin[BytesToBytesCodec]{
		Identifier: "packbits",
		Create: func(raw []byte) (BytesToBytesCodec, error) {
			return &PackBits{}, nil
		},
	})
}

func unmarshalConfig(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("codec: invalid configuration: %w", err)
	}
	return nil
}

// Configuration is one entry of a zarr.json "codecs" array: a name plus
// an opaque configuration object. Fields beyond what a given codec's
// Create understands are ignored rather than rejected (spec.md §9 /
// SPEC_FULL §4.11's must_understand-style version tolerance: an
// unrecognized field inside a known extension's configuration must not
// fail parsing, only an unrecognized extension name with no alias match
// does).
type Configuration struct {
	Name          string          `json:"name"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
}
