package annotate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/exac-annot/internal/exac"
	"github.com/inodb/exac-annot/internal/vcf"
)

// Lookup fetches ExAC records for "chrom-pos-ref-alt" query keys.
type Lookup interface {
	Lookup(ctx context.Context, keys []string) (map[string]exac.VariantInfo, error)
}

// AnnotationWriter defines the interface for writing annotations.
type AnnotationWriter interface {
	WriteHeader(header []string) error
	Write(a *Annotated) error
	Flush() error
}

// Annotator annotates VCF records with ExAC data.
type Annotator struct {
	lookup   Lookup
	severity Severity
	logger   *zap.Logger
}

// NewAnnotator creates a new annotator backed by the given lookup.
func NewAnnotator(l Lookup) *Annotator {
	return &Annotator{
		lookup:   l,
		severity: DefaultSeverity(),
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger for progress and warning messages.
func (a *Annotator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Summary counts what a run produced.
type Summary struct {
	Records            int // data lines read
	Identities         int // distinct identities queried
	MissingFreq        int // records annotated with an NA frequency
	MissingConsequence int // records annotated with an NA consequence
}

// Result holds a fully merged input, ready to be written.
type Result struct {
	Header   []string
	Variants []*Annotated
	Summary  Summary
}

// Annotate reads every record from in, queries the lookup once, and merges
// the results. Nothing is written: any input, lookup, or consistency error
// is returned before output begins.
func (a *Annotator) Annotate(ctx context.Context, in vcf.RecordReader) (*Result, error) {
	records, err := vcf.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read variants: %w", err)
	}

	depths := make([]DepthStats, len(records))
	ids := make([]vcf.Identity, len(records))
	for i, r := range records {
		depths[i], err = ExtractDepthStats(r)
		if err != nil {
			return nil, err
		}
		ids[i] = r.Identity
		if r.IsMultiAllelic() {
			a.logger.Warn("multi-allelic ALT queried verbatim",
				zap.String("variant", r.QueryKey()),
				zap.Int("line", r.Line))
		}
	}

	keys := exac.EncodeIdentities(ids)
	a.logger.Info("read variants",
		zap.Int("records", len(records)),
		zap.Int("identities", len(keys)))
	a.warnSharedPositions(ids)

	results := map[string]exac.VariantInfo{}
	if len(keys) > 0 {
		results, err = a.lookup.Lookup(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("lookup variants: %w", err)
		}
	}

	anns, err := BuildAnnotations(ids, results, a.severity)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Header:   in.Header(),
		Variants: make([]*Annotated, len(records)),
		Summary:  Summary{Records: len(records), Identities: len(keys)},
	}
	for i, r := range records {
		merged, err := Merge(r, depths[i], anns)
		if err != nil {
			return nil, err
		}
		if merged.AlleleFreq == NA {
			res.Summary.MissingFreq++
		}
		if merged.Consequence == NA {
			res.Summary.MissingConsequence++
		}
		res.Variants[i] = merged
	}

	return res, nil
}

// warnSharedPositions logs identities that collapse onto the same
// "chrom-pos" key. Only the last of them is kept for the merge.
func (a *Annotator) warnSharedPositions(ids []vcf.Identity) {
	seen := make(map[string]string, len(ids))
	for _, id := range ids {
		pk, qk := id.PositionKey(), id.QueryKey()
		if prev, ok := seen[pk]; ok && prev != qk {
			a.logger.Warn("variants share a position key",
				zap.String("position", pk),
				zap.String("first", prev),
				zap.String("second", qk))
		}
		seen[pk] = qk
	}
}

// Run annotates in and writes the result to every writer. Writers see no
// calls at all when annotation fails.
func (a *Annotator) Run(ctx context.Context, in vcf.RecordReader, writers ...AnnotationWriter) (Summary, error) {
	res, err := a.Annotate(ctx, in)
	if err != nil {
		return Summary{}, err
	}
	if err := res.WriteTo(writers...); err != nil {
		return Summary{}, err
	}
	return res.Summary, nil
}

// WriteTo writes the header and every annotated record to each writer.
func (r *Result) WriteTo(writers ...AnnotationWriter) error {
	for _, w := range writers {
		if err := w.WriteHeader(r.Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for _, v := range r.Variants {
			if err := w.Write(v); err != nil {
				return fmt.Errorf("write annotation: %w", err)
			}
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("flush output: %w", err)
		}
	}
	return nil
}
