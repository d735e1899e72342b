// Package vcf provides VCF file parsing functionality.
package vcf

// RecordReader is the interface for sources that yield parsed VCF records.
type RecordReader interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// Header returns the header lines read so far, verbatim.
	Header() []string

	// LineNumber returns the current line number being processed.
	LineNumber() int
}

// ReadAll drains r and returns every record in file order.
func ReadAll(r RecordReader) ([]*Record, error) {
	var records []*Record
	for {
		rec, err := r.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return records, nil
		}
		records = append(records, rec)
	}
}
