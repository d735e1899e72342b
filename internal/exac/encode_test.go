package exac

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/exac-annot/internal/vcf"
)

func TestEncodeIdentities(t *testing.T) {
	ids := []vcf.Identity{
		{Chrom: "1", Pos: 931414, Ref: "A", Alt: "G"},
		{Chrom: "14", Pos: 21853913, Ref: "T", Alt: "C"},
		{Chrom: "1", Pos: 931414, Ref: "A", Alt: "G"},
		{Chrom: "1", Pos: 931414, Ref: "A", Alt: "T"},
	}

	keys := EncodeIdentities(ids)
	assert.Equal(t, []string{"1-931414-A-G", "14-21853913-T-C", "1-931414-A-T"}, keys)
}

func TestEncodeBatch(t *testing.T) {
	body, err := EncodeBatch([]string{"1-931414-A-G", "14-21853913-T-C"})
	require.NoError(t, err)
	assert.JSONEq(t, `["1-931414-A-G","14-21853913-T-C"]`, string(body))
}

func TestEncodeBatch_EscapesUnsafeCharacters(t *testing.T) {
	keys := []string{"1-10-A-\"]+__import__('os')", "2-20-C-\x00\n"}

	body, err := EncodeBatch(keys)
	require.NoError(t, err)

	for _, b := range body {
		assert.GreaterOrEqual(t, b, byte(0x20), "control character in encoded body")
	}

	var decoded []string
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, keys, decoded)
}

func TestEncodeBatch_Empty(t *testing.T) {
	body, err := EncodeBatch(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}

func TestChunk(t *testing.T) {
	keys := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		name string
		size int
		want [][]string
	}{
		{"no batching", 0, [][]string{keys}},
		{"larger than input", 10, [][]string{keys}},
		{"even split", 1, [][]string{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}}},
		{"remainder", 2, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chunk(keys, tt.size))
		})
	}
}
