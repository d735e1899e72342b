// Package output provides annotation output formatters.
package output

import (
	"io"

	"github.com/gocarina/gocsv"

	"github.com/inodb/exac-annot/internal/annotate"
)

// tableRow is one line of the CSV table. Tag order is column order.
type tableRow struct {
	Chrom       string `csv:"Chrom"`
	Pos         string `csv:"Pos"`
	ID          string `csv:"ID"`
	Type        string `csv:"Type"`
	Ref         string `csv:"Ref"`
	Alt         string `csv:"Alt"`
	Depth       string `csv:"Depth"`
	AltDepth    string `csv:"Num Reads Supporting Variant"`
	Ratio       string `csv:"Variant reads vs Ref reads"`
	AlleleFreq  string `csv:"ExAC variant frequency"`
	Consequence string `csv:"Variant Consequence"`
	GeneIDs     string `csv:"Related GeneID"`
}

func newTableRow(f []string) tableRow {
	return tableRow{
		Chrom:       f[0],
		Pos:         f[1],
		ID:          f[2],
		Type:        f[3],
		Ref:         f[4],
		Alt:         f[5],
		Depth:       f[6],
		AltDepth:    f[7],
		Ratio:       f[8],
		AlleleFreq:  f[9],
		Consequence: f[10],
		GeneIDs:     f[11],
	}
}

// TableColumns returns the CSV header in column order.
func TableColumns() []string {
	return []string{
		"Chrom",
		"Pos",
		"ID",
		"Type",
		"Ref",
		"Alt",
		"Depth",
		"Num Reads Supporting Variant",
		"Variant reads vs Ref reads",
		"ExAC variant frequency",
		"Variant Consequence",
		"Related GeneID",
	}
}

// TableWriter writes annotations as a comma-separated table. Rows are
// collected and marshalled on Flush, header first.
type TableWriter struct {
	w    io.Writer
	rows []tableRow
}

// NewTableWriter creates a new CSV table writer.
func NewTableWriter(w io.Writer) *TableWriter {
	return &TableWriter{w: w}
}

// WriteHeader resets the table. The VCF header is not part of the table.
func (tw *TableWriter) WriteHeader(_ []string) error {
	tw.rows = tw.rows[:0]
	return nil
}

// Write adds one row.
func (tw *TableWriter) Write(a *annotate.Annotated) error {
	tw.rows = append(tw.rows, newTableRow(a.Row()))
	return nil
}

// Flush writes the header row and every collected row.
func (tw *TableWriter) Flush() error {
	rows := tw.rows
	if rows == nil {
		rows = []tableRow{}
	}
	return gocsv.Marshal(&rows, tw.w)
}
