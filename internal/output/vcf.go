package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/exac-annot/internal/annotate"
)

// AnnotHeaderLine describes the ANNOT INFO field.
const AnnotHeaderLine = `##INFO=<ID=ANNOT,Number=1,Type=String,Description="Variant annotations. ` +
	`Total read depth | Num Reads Supporting Variant | Variant reads vs Ref reads | ` +
	`ExAC variant frequency | Variant Consequence | Related GeneID">`

// annotAnchor is the header line the ANNOT description follows.
const annotAnchor = "##INFO=<ID=END"

// VCFWriter writes records in VCF format with an ANNOT INFO field.
type VCFWriter struct {
	w *bufio.Writer
}

// NewVCFWriter creates a new VCF output writer.
func NewVCFWriter(w io.Writer) *VCFWriter {
	return &VCFWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the original header lines verbatim with the ANNOT
// description inserted after the END INFO line. Without an END line it goes
// before #CHROM, or after the last header line.
func (vw *VCFWriter) WriteHeader(header []string) error {
	for _, line := range insertAnnotHeader(header) {
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func insertAnnotHeader(header []string) []string {
	at := len(header)
	for i, line := range header {
		if strings.HasPrefix(line, annotAnchor) {
			at = i + 1
			break
		}
	}
	if at == len(header) {
		for i, line := range header {
			if strings.HasPrefix(line, "#CHROM") {
				at = i
				break
			}
		}
	}

	out := make([]string, 0, len(header)+1)
	out = append(out, header[:at]...)
	out = append(out, AnnotHeaderLine)
	return append(out, header[at:]...)
}

// Write writes one record: the nine fixed columns with the extended INFO
// followed by every genotype column.
func (vw *VCFWriter) Write(a *annotate.Annotated) error {
	fields := a.Record.Fields()
	fields[7] = a.Info()

	var lb strings.Builder
	lb.Grow(256)
	for i, f := range fields {
		if i > 0 {
			lb.WriteByte('\t')
		}
		lb.WriteString(f)
	}
	for _, g := range a.Record.Genotypes {
		lb.WriteByte('\t')
		lb.WriteString(g)
	}
	lb.WriteByte('\n')

	_, err := vw.w.WriteString(lb.String())
	return err
}

// Flush flushes the underlying writer.
func (vw *VCFWriter) Flush() error {
	return vw.w.Flush()
}
