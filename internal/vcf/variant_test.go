package vcf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_Keys(t *testing.T) {
	tests := []struct {
		name     string
		id       Identity
		position string
		query    string
	}{
		{"snv", Identity{"1", 931414, "A", "G"}, "1-931414", "1-931414-A-G"},
		{"chr prefix", Identity{"chrX", 5, "C", "CT"}, "chrX-5", "chrX-5-C-CT"},
		{"multi-allelic kept verbatim", Identity{"2", 100, "A", "AT,AC"}, "2-100", "2-100-A-AT,AC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.position, tt.id.PositionKey())
			assert.Equal(t, tt.query, tt.id.QueryKey())
		})
	}
}

func TestRecord_IsMultiAllelic(t *testing.T) {
	assert.False(t, (&Record{Identity: Identity{Alt: "G"}}).IsMultiAllelic())
	assert.True(t, (&Record{Identity: Identity{Alt: "G,T"}}).IsMultiAllelic())
}

func TestRecord_FieldsRoundTrip(t *testing.T) {
	line := "1\t931393\t.\tG\tT\t2.17938e-13\t.\tAB=0;AO=0;DP=4124;RO=4124;TYPE=snp\tGT:GQ\t0/0:160.002\t0/0:7.4519"

	r, err := ParseRecord(line, 1)
	require.NoError(t, err)

	rebuilt := strings.Join(append(r.Fields(), r.Genotypes...), "\t")
	assert.Equal(t, line, rebuilt)
}

func TestRecord_InfoValue(t *testing.T) {
	r := &Record{Info: map[string]string{"DP": "20"}}

	v, ok := r.InfoValue("DP")
	assert.True(t, ok)
	assert.Equal(t, "20", v)

	_, ok = r.InfoValue("AO")
	assert.False(t, ok)
}
