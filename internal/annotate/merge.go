package annotate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inodb/exac-annot/internal/exac"
	"github.com/inodb/exac-annot/internal/vcf"
)

// AnnotKey is the INFO key carrying the merged annotation.
const AnnotKey = "ANNOT"

// Annotations is a read-only lookup of resolved annotations keyed by
// "chrom-pos".
type Annotations struct {
	byPosition map[string]Resolution
}

// Get returns the resolution stored for a "chrom-pos" key.
func (a Annotations) Get(positionKey string) (Resolution, bool) {
	r, ok := a.byPosition[positionKey]
	return r, ok
}

// Len returns the number of keys.
func (a Annotations) Len() int {
	return len(a.byPosition)
}

// BuildAnnotations resolves the lookup result of every queried identity.
// Each queried identity must be present in results.
func BuildAnnotations(queried []vcf.Identity, results map[string]exac.VariantInfo, sev Severity) (Annotations, error) {
	byPosition := make(map[string]Resolution, len(queried))
	for _, id := range queried {
		key := id.QueryKey()
		info, ok := results[key]
		if !ok {
			return Annotations{}, &ConsistencyError{
				Key:    key,
				Reason: "variant missing from ExAC response",
			}
		}
		res, err := ResolveConsequence(info, sev)
		if err != nil {
			return Annotations{}, fmt.Errorf("resolve %s: %w", key, err)
		}
		byPosition[id.PositionKey()] = res
	}
	return Annotations{byPosition: byPosition}, nil
}

// Annotated is a record joined with its depth statistics and resolution.
type Annotated struct {
	Record *vcf.Record
	Depth  DepthStats
	Resolution
}

// Merge joins a record with its depth statistics and resolved annotation.
func Merge(r *vcf.Record, ds DepthStats, anns Annotations) (*Annotated, error) {
	key := r.PositionKey()
	res, ok := anns.Get(key)
	if !ok {
		return nil, &ConsistencyError{
			Key:    key,
			Reason: fmt.Sprintf("no annotation for record at line %d", r.Line),
		}
	}
	return &Annotated{Record: r, Depth: ds, Resolution: res}, nil
}

// AnnotValue returns the pipe-separated ANNOT value:
// total|alt|ratio|frequency|consequence|genes.
func (a *Annotated) AnnotValue() string {
	return strings.Join([]string{
		a.Depth.Total,
		a.Depth.Alt,
		a.Depth.Ratio,
		a.AlleleFreq,
		a.Consequence,
		a.GeneIDs,
	}, "|")
}

// Info returns the record's INFO column extended with the ANNOT field.
func (a *Annotated) Info() string {
	return a.Record.RawInfo + ";" + AnnotKey + "=" + a.AnnotValue()
}

// Type returns the variant type from the TYPE INFO key.
func (a *Annotated) Type() string {
	return a.Record.Info[InfoType]
}

// Row returns the twelve table fields: chrom, pos, id, type, ref, alt,
// total depth, alt depth, ratio, frequency, consequence, genes.
func (a *Annotated) Row() []string {
	r := a.Record
	return []string{
		r.Chrom,
		strconv.FormatInt(r.Pos, 10),
		r.ID,
		a.Type(),
		r.Ref,
		r.Alt,
		a.Depth.Total,
		a.Depth.Alt,
		a.Depth.Ratio,
		a.AlleleFreq,
		a.Consequence,
		a.GeneIDs,
	}
}
