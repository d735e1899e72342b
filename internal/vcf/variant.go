// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"strconv"
	"strings"
)

// Identity identifies a single variant within an input file.
type Identity struct {
	Chrom string // Chromosome name (e.g., "12", "chr12")
	Pos   int64  // 1-based genomic position
	Ref   string // Reference allele
	Alt   string // Alternate allele, verbatim from the ALT column
}

// PositionKey returns the "chrom-pos" key used to join annotations back to records.
func (id Identity) PositionKey() string {
	return id.Chrom + "-" + strconv.FormatInt(id.Pos, 10)
}

// QueryKey returns the "chrom-pos-ref-alt" key understood by the ExAC bulk API.
func (id Identity) QueryKey() string {
	return id.PositionKey() + "-" + id.Ref + "-" + id.Alt
}

// Record is one parsed VCF data line.
type Record struct {
	Identity

	ID        string            // Variant identifier (e.g., rs ID)
	Qual      string            // Quality score, kept as text for pass-through
	Filter    string            // Filter status (PASS or filter name)
	RawInfo   string            // INFO column as read
	Info      map[string]string // INFO field key-value pairs
	Format    string            // FORMAT column
	Genotypes []string          // Per-sample columns after FORMAT
	Line      int               // 1-based line number in the input
}

// InfoValue returns the INFO value for key and whether it was present.
func (r *Record) InfoValue(key string) (string, bool) {
	v, ok := r.Info[key]
	return v, ok
}

// IsMultiAllelic returns true if the ALT column lists more than one allele.
func (r *Record) IsMultiAllelic() bool {
	return strings.Contains(r.Alt, ",")
}

// Fields returns the nine fixed VCF columns in file order.
func (r *Record) Fields() []string {
	return []string{
		r.Chrom,
		strconv.FormatInt(r.Pos, 10),
		r.ID,
		r.Ref,
		r.Alt,
		r.Qual,
		r.Filter,
		r.RawInfo,
		r.Format,
	}
}
