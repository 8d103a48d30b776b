package keyencoding

import (
	"encoding/json"
	"fmt"
)

// config is the on-disk shape of a chunk_key_encoding entry in array
// metadata: {"name": "default", "configuration": {"separator": "/"}}.
// The suffix variants add a literal suffix, and "suffix" nests the
// encoding it wraps under "inner".
type config struct {
	Name          string `json:"name"`
	Configuration struct {
		Separator string          `json:"separator"`
		Suffix    string          `json:"suffix"`
		Inner     json.RawMessage `json:"inner"`
	} `json:"configuration"`
}

// FromConfig builds the ChunkKeyEncoding described by raw zarr.json
// configuration. The "default" and "v2" names are the two V3-standard
// encodings; separator defaults to "/" for default and "." for v2, per
// the Zarr V3 core spec. "suffix" wraps the encoding under "inner";
// "default_suffix" is the shorthand for suffix-over-default.
func FromConfig(raw json.RawMessage) (ChunkKeyEncoding, error) {
	var c config
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("keyencoding: invalid configuration: %w", err)
	}
	sep := c.Configuration.Separator
	switch c.Name {
	case "default":
		if sep == "" {
			sep = "/"
		}
		return NewDefault(sep)
	case "v2":
		if sep == "" {
			sep = "."
		}
		return NewV2(sep)
	case "default_suffix":
		if sep == "" {
			sep = "/"
		}
		return DefaultSuffix(sep, c.Configuration.Suffix)
	case "suffix":
		if len(c.Configuration.Inner) == 0 {
			return nil, fmt.Errorf("keyencoding: suffix encoding requires an inner encoding")
		}
		inner, err := FromConfig(c.Configuration.Inner)
		if err != nil {
			return nil, err
		}
		return &Suffix{Inner: inner, Suffix: c.Configuration.Suffix}, nil
	default:
		return nil, fmt.Errorf("keyencoding: unknown chunk key encoding %q", c.Name)
	}
}

// ToConfig renders enc back into the JSON shape FromConfig parses, so
// array metadata round-trips the encoding including its separator and
// any suffix, not just its name.
func ToConfig(enc ChunkKeyEncoding) (map[string]any, error) {
	switch e := enc.(type) {
	case *Default:
		return map[string]any{"name": "default", "configuration": map[string]any{"separator": e.Sep.String()}}, nil
	case *V2:
		return map[string]any{"name": "v2", "configuration": map[string]any{"separator": e.Sep.String()}}, nil
	case *Suffix:
		if d, ok := e.Inner.(*Default); ok {
			return map[string]any{"name": "default_suffix", "configuration": map[string]any{"separator": d.Sep.String(), "suffix": e.Suffix}}, nil
		}
		inner, err := ToConfig(e.Inner)
		if err != nil {
			return nil, err
		}
		return map[string]any{"name": "suffix", "configuration": map[string]any{"suffix": e.Suffix, "inner": inner}}, nil
	default:
		return nil, fmt.Errorf("keyencoding: unknown chunk key encoding type %T", enc)
	}
}
