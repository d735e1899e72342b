package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inodb/exac-annot/internal/annotate"
	"github.com/inodb/exac-annot/internal/duckdb"
	"github.com/inodb/exac-annot/internal/exac"
	"github.com/inodb/exac-annot/internal/output"
	"github.com/inodb/exac-annot/internal/vcf"
)

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		input, base      string
		wantVCF, wantCSV string
	}{
		{"sample.vcf", "", "sample_annotated.vcf", "sample_annotated.csv"},
		{"data/sample.vcf.gz", "", "data/sample_annotated.vcf", "data/sample_annotated.csv"},
		{"a.vcf.b.vcf", "", "a_annotated.vcf", "a_annotated.csv"},
		{"noext", "", "noext_annotated.vcf", "noext_annotated.csv"},
		{"sample.vcf", "out/result", "out/result.vcf", "out/result.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.input+"|"+tt.base, func(t *testing.T) {
			gotVCF, gotCSV := outputPaths(tt.input, tt.base)
			assert.Equal(t, tt.wantVCF, gotVCF)
			assert.Equal(t, tt.wantCSV, gotCSV)
		})
	}
}

func TestLoadOptions(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	opts, err := loadOptions(v)
	require.NoError(t, err)
	assert.Equal(t, exac.DefaultURL, opts.URL)
	assert.Equal(t, 3, opts.MaxRetries)
	assert.Equal(t, "1m0s", opts.Timeout.String())
	assert.Equal(t, 0, opts.BatchSize)
	assert.Equal(t, 4, opts.Concurrency)

	v.Set("exac.batch_size", -1)
	_, err = loadOptions(v)
	assert.ErrorContains(t, err, "exac.batch_size")

	v.Set("exac.batch_size", 10)
	v.Set("exac.url", "")
	_, err = loadOptions(v)
	assert.ErrorContains(t, err, "exac.url")
}

// exacServer answers bulk lookups from a fixed table of payloads and counts
// requests in calls.
func exacServer(t *testing.T, payloads map[string]string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		var keys []string
		if err := json.NewDecoder(r.Body).Decode(&keys); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			p, ok := payloads[k]
			if !ok {
				p = `{"variant":{},"consequence":null}`
			}
			kj, _ := json.Marshal(k)
			parts = append(parts, string(kj)+":"+p)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("{" + strings.Join(parts, ",") + "}"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func samplePayloads() map[string]string {
	return map[string]string{
		"1-931393-G-T": `{"variant":{"allele_freq":0.75},"consequence":{"intron_variant":{"ENSG00000187634":{}}}}`,
		"1-931414-A-G": `{"variant":{"allele_freq":0.0123},"consequence":{"missense_variant":{"GENE1":{}},"intron_variant":{"GENE2":{}}}}`,
		"2-200-C-A":    `{"variant":{},"consequence":{"stop_gained":["GENE3","GENE4"],"stop_lost":["GENE5"]}}`,
	}
}

func testConfig(url string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.Set("exac.url", url)
	v.Set("exac.retry_interval", "1ms")
	v.Set("exac.max_retries", 1)
	return v
}

func copySample(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "sample.vcf"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "sample.vcf")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunAnnotate(t *testing.T) {
	srv := exacServer(t, samplePayloads(), nil)
	input := copySample(t)

	require.NoError(t, runAnnotate(context.Background(), testConfig(srv.URL), zap.NewNop(), input, ""))

	dir := filepath.Dir(input)
	vcfPath := filepath.Join(dir, "sample_annotated.vcf")
	csvPath := filepath.Join(dir, "sample_annotated.csv")

	p, err := vcf.NewParser(vcfPath)
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, output.AnnotHeaderLine, p.Header()[3], "ANNOT line follows the END INFO line")

	records, err := vcf.ReadAll(p)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "20|8|0.667|0.012|missense_variant|GENE1", records[1].Info[annotate.AnnotKey])
	assert.Equal(t, "5|5|NA|NA|stop_gained|GENE3,GENE4", records[3].Info[annotate.AnnotKey])
	assert.Equal(t, []string{"0/1:30:10", "0/0:30:10"}, records[1].Genotypes)

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, output.TableColumns(), rows[0])
	assert.Equal(t, []string{"1", "931414", ".", "snp", "A", "G", "20", "8", "0.667", "0.012", "missense_variant", "GENE1"}, rows[2])
	assert.Equal(t, []string{"1", "931393", ".", "snp", "G", "T", "4124", "0", "0.000", "0.750", "intron_variant", "ENSG00000187634"}, rows[1])
}

func TestRunAnnotate_OutputBase(t *testing.T) {
	srv := exacServer(t, samplePayloads(), nil)
	input := copySample(t)
	base := filepath.Join(filepath.Dir(input), "result")

	require.NoError(t, runAnnotate(context.Background(), testConfig(srv.URL), zap.NewNop(), input, base))

	for _, p := range []string{base + ".vcf", base + ".csv"} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
}

func TestRunAnnotate_ServiceFailureWritesNothing(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	input := copySample(t)
	err := runAnnotate(context.Background(), testConfig(srv.URL), zap.NewNop(), input, "")

	var se *exac.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, int32(2), calls.Load(), "one retry configured")

	entries, err := os.ReadDir(filepath.Dir(input))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the input remains")
	assert.Contains(t, hintFor(se), "exac.max_retries")
}

func TestRunAnnotate_MissingInput(t *testing.T) {
	err := runAnnotate(context.Background(), testConfig("http://127.0.0.1:1"), zap.NewNop(),
		filepath.Join(t.TempDir(), "missing.vcf"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, "Check that the file path is correct", hintFor(err))
}

func TestRunAnnotate_Cache(t *testing.T) {
	var calls atomic.Int32
	srv := exacServer(t, samplePayloads(), &calls)

	cachePath := filepath.Join(t.TempDir(), "cache.duckdb")
	v := testConfig(srv.URL)
	v.Set("cache.enabled", true)
	v.Set("cache.path", cachePath)

	input := copySample(t)
	require.NoError(t, runAnnotate(context.Background(), v, zap.NewNop(), input, ""))
	require.NoError(t, runAnnotate(context.Background(), v, zap.NewNop(), input, ""))
	assert.Equal(t, int32(1), calls.Load(), "second run is served from the cache")

	s, err := duckdb.Open(cachePath)
	require.NoError(t, err)
	defer s.Close()
	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, duckdb.Stats{Lookups: 4, Runs: 2}, st)
}

func TestHintFor(t *testing.T) {
	assert.Empty(t, hintFor(errors.New("boom")))
	assert.NotEmpty(t, hintFor(&usageError{err: errors.New("x")}))
	assert.NotEmpty(t, hintFor(&vcf.ParseError{Line: 3, Message: "bad"}))
	assert.NotEmpty(t, hintFor(&annotate.MissingFieldError{Key: "DP"}))
	assert.NotEmpty(t, hintFor(&annotate.ConsistencyError{Reason: "x"}))
	assert.NotEmpty(t, hintFor(&output.WriteError{Path: "x", Op: "create", Err: os.ErrNotExist}))
}

func TestRun_ExitCodes(t *testing.T) {
	assert.Equal(t, ExitUsage, run([]string{"annotate"}))
	assert.Equal(t, ExitUsage, run([]string{"annotate", "--bogus"}))
	assert.Equal(t, ExitUsage, run([]string{"frobnicate"}))
	assert.Equal(t, ExitError, run([]string{"annotate", "-i", filepath.Join(t.TempDir(), "missing.vcf")}))
	assert.Equal(t, ExitSuccess, run([]string{"--version"}))
}
