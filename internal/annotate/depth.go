package annotate

import (
	"strconv"
	"strings"

	"github.com/inodb/exac-annot/internal/vcf"
)

// INFO keys consumed from each record.
const (
	InfoType       = "TYPE"
	InfoTotalDepth = "DP"
	InfoAltDepth   = "AO"
	InfoRefDepth   = "RO"
)

var requiredInfoKeys = []string{InfoType, InfoTotalDepth, InfoAltDepth, InfoRefDepth}

// DepthStats holds read-depth values as written in the INFO field together
// with the derived variant-vs-reference ratio.
type DepthStats struct {
	Total string // DP
	Alt   string // AO, comma-separated for multi-allelic sites
	Ref   string // RO
	Ratio string // AO/RO per allele with 3 decimals, or NA when RO is zero
}

// ExtractDepthStats derives depth statistics from a record's INFO field.
func ExtractDepthStats(r *vcf.Record) (DepthStats, error) {
	for _, key := range requiredInfoKeys {
		if _, ok := r.Info[key]; !ok {
			return DepthStats{}, &MissingFieldError{Key: key, Variant: r.QueryKey(), Line: r.Line}
		}
	}

	ds := DepthStats{
		Total: r.Info[InfoTotalDepth],
		Alt:   r.Info[InfoAltDepth],
		Ref:   r.Info[InfoRefDepth],
	}

	ref, err := strconv.ParseFloat(ds.Ref, 64)
	if err != nil {
		return DepthStats{}, &FieldFormatError{Key: InfoRefDepth, Value: ds.Ref, Variant: r.QueryKey(), Line: r.Line}
	}

	parts := strings.Split(ds.Alt, ",")
	alts := make([]float64, len(parts))
	for i, p := range parts {
		alts[i], err = strconv.ParseFloat(p, 64)
		if err != nil {
			return DepthStats{}, &FieldFormatError{Key: InfoAltDepth, Value: ds.Alt, Variant: r.QueryKey(), Line: r.Line}
		}
	}

	ds.Ratio = VariantRatio(alts, ref)
	return ds, nil
}

// VariantRatio formats alt/ref for each alt depth, joined by commas in input
// order. A zero reference depth yields NA.
func VariantRatio(alts []float64, ref float64) string {
	if ref == 0 {
		return NA
	}
	ratios := make([]string, len(alts))
	for i, a := range alts {
		ratios[i] = strconv.FormatFloat(a/ref, 'f', 3, 64)
	}
	return strings.Join(ratios, ",")
}
