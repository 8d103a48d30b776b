package keyencoding

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_EncodeKey(t *testing.T) {
	enc, err := NewDefault("/")
	require.NoError(t, err)
	require.Equal(t, "c/1/4", enc.EncodeKey([]int{1, 4}))
	require.Equal(t, "c", enc.EncodeKey(nil))

	dotEnc, err := NewDefault(".")
	require.NoError(t, err)
	require.Equal(t, "c.1.4", dotEnc.EncodeKey([]int{1, 4}))
}

func TestV2_EncodeKey(t *testing.T) {
	enc, err := NewV2(".")
	require.NoError(t, err)
	require.Equal(t, "1.4", enc.EncodeKey([]int{1, 4}))
	require.Equal(t, "0", enc.EncodeKey(nil))
	require.Equal(t, "7", enc.EncodeKey([]int{7}))
}

func TestNewDefault_RejectsBadSeparator(t *testing.T) {
	_, err := NewDefault(",")
	require.Error(t, err)
}

func TestSuffix_ComposesInner(t *testing.T) {
	inner, err := NewDefault("/")
	require.NoError(t, err)
	s := &Suffix{Inner: inner, Suffix: "/0"}
	require.Equal(t, "c/1/4/0", s.EncodeKey([]int{1, 4}))
}

func TestDefaultSuffix(t *testing.T) {
	s, err := DefaultSuffix("/", ".ext")
	require.NoError(t, err)
	require.Equal(t, "c/1/4.ext", s.EncodeKey([]int{1, 4}))
}

func TestFromConfig_Default(t *testing.T) {
	enc, err := FromConfig([]byte(`{"name":"default","configuration":{"separator":"."}}`))
	require.NoError(t, err)
	require.Equal(t, "default", enc.Identifier())
	require.Equal(t, "c.1.4", enc.EncodeKey([]int{1, 4}))
}

func TestFromConfig_V2DefaultsToDotSeparator(t *testing.T) {
	enc, err := FromConfig([]byte(`{"name":"v2"}`))
	require.NoError(t, err)
	require.Equal(t, "1.4", enc.EncodeKey([]int{1, 4}))
}

func TestFromConfig_UnknownName(t *testing.T) {
	_, err := FromConfig([]byte(`{"name":"bogus"}`))
	require.Error(t, err)
}

func TestFromConfig_DefaultSuffix(t *testing.T) {
	enc, err := FromConfig([]byte(`{"name":"default_suffix","configuration":{"separator":"/","suffix":".ext"}}`))
	require.NoError(t, err)
	require.Equal(t, "c/1/4.ext", enc.EncodeKey([]int{1, 4}))
}

func TestFromConfig_SuffixWrapsInner(t *testing.T) {
	enc, err := FromConfig([]byte(`{"name":"suffix","configuration":{"suffix":".bin","inner":{"name":"v2","configuration":{"separator":"."}}}}`))
	require.NoError(t, err)
	require.Equal(t, "1.4.bin", enc.EncodeKey([]int{1, 4}))
}

func TestToConfig_RoundTrips(t *testing.T) {
	s, err := DefaultSuffix(".", "/0")
	require.NoError(t, err)
	cfg, err := ToConfig(s)
	require.NoError(t, err)
	require.Equal(t, "default_suffix", cfg["name"])

	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	back, err := FromConfig(raw)
	require.NoError(t, err)
	require.Equal(t, s.EncodeKey([]int{2, 3}), back.EncodeKey([]int{2, 3}))
}
