package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/exac-annot/internal/annotate"
	"github.com/inodb/exac-annot/internal/vcf"
)

func annotated(t *testing.T, line string, res annotate.Resolution) *annotate.Annotated {
	t.Helper()
	r, err := vcf.ParseRecord(line, 2)
	require.NoError(t, err)
	ds, err := annotate.ExtractDepthStats(r)
	require.NoError(t, err)
	return &annotate.Annotated{Record: r, Depth: ds, Resolution: res}
}

func TestVCFWriter_Header(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		annotAt int
	}{
		{
			name: "after END line",
			headers: []string{
				"##fileformat=VCFv4.1",
				"##INFO=<ID=END,Number=1,Type=Integer,Description=\"End\">",
				"##INFO=<ID=DP,Number=1,Type=Integer,Description=\"Total Depth\">",
				"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
			},
			annotAt: 2,
		},
		{
			name: "before #CHROM without END line",
			headers: []string{
				"##fileformat=VCFv4.2",
				"##reference=GRCh38",
				"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
			},
			annotAt: 2,
		},
		{
			name:    "appended without #CHROM",
			headers: []string{"##fileformat=VCFv4.2"},
			annotAt: 1,
		},
		{
			name:    "empty header",
			annotAt: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewVCFWriter(&buf)
			require.NoError(t, w.WriteHeader(tt.headers))
			require.NoError(t, w.Flush())

			lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
			require.Len(t, lines, len(tt.headers)+1)
			assert.Equal(t, AnnotHeaderLine, lines[tt.annotAt])

			rest := append(append([]string{}, lines[:tt.annotAt]...), lines[tt.annotAt+1:]...)
			if len(tt.headers) > 0 {
				assert.Equal(t, tt.headers, rest, "original lines are kept verbatim")
			}
		})
	}
}

func TestVCFWriter_OnlyFirstEndLine(t *testing.T) {
	headers := []string{
		"##INFO=<ID=END,Number=1,Type=Integer,Description=\"a\">",
		"##INFO=<ID=END,Number=1,Type=Integer,Description=\"b\">",
	}
	got := insertAnnotHeader(headers)
	assert.Equal(t, []string{headers[0], AnnotHeaderLine, headers[1]}, got)
}

func TestVCFWriter_Write(t *testing.T) {
	a := annotated(t,
		"1\t931414\t.\tA\tG\t10.3\t.\tAB=0.5;AO=8;DP=20;RO=12;TYPE=snp\tGT:GQ:DP\t0/1:30:10\t0/0:30:10",
		annotate.Resolution{AlleleFreq: "0.012", Consequence: "missense_variant", GeneIDs: "GENE1"})

	var buf bytes.Buffer
	w := NewVCFWriter(&buf)
	require.NoError(t, w.Write(a))
	require.NoError(t, w.Flush())

	want := "1\t931414\t.\tA\tG\t10.3\t.\tAB=0.5;AO=8;DP=20;RO=12;TYPE=snp;ANNOT=20|8|0.667|0.012|missense_variant|GENE1\tGT:GQ:DP\t0/1:30:10\t0/0:30:10\n"
	assert.Equal(t, want, buf.String())
}

func TestVCFWriter_RoundTrip(t *testing.T) {
	a := annotated(t,
		"2\t200\t.\tC\tA\t.\tPASS\tAO=5;DP=5;RO=0;TYPE=snp\tGT\t0/1\t0/1",
		annotate.Resolution{AlleleFreq: "NA", Consequence: "stop_gained", GeneIDs: "GENE3,GENE4"})

	var buf bytes.Buffer
	w := NewVCFWriter(&buf)
	require.NoError(t, w.WriteHeader([]string{"##fileformat=VCFv4.1", "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\ts1\ts2"}))
	require.NoError(t, w.Write(a))
	require.NoError(t, w.Flush())

	p, err := vcf.NewParserFromReader(&buf)
	require.NoError(t, err)
	assert.Len(t, p.Header(), 3)

	r, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Equal(t, a.Record.Identity, r.Identity)
	assert.Equal(t, []string{"0/1", "0/1"}, r.Genotypes)
	assert.Equal(t, "5|5|NA|NA|stop_gained|GENE3,GENE4", r.Info[annotate.AnnotKey])
	assert.Equal(t, "5", r.Info["DP"])
}
