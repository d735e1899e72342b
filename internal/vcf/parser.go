// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// fixedColumns is the number of leading VCF columns up to and including FORMAT.
const fixedColumns = 9

// Parser reads records from a VCF file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	header     []string
	pending    string // first data line, read while scanning the header
	hasPending bool
	done       bool
}

// NewParser creates a new VCF parser for the given file.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p := &Parser{file: file}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read vcf header: %w", err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek vcf file: %w", err)
	}

	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// readLine returns the next line without its terminator.
// ok is false once the input is exhausted.
func (p *Parser) readLine() (line string, ok bool, err error) {
	if p.done {
		return "", false, nil
	}
	line, err = p.reader.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			return "", false, err
		}
		p.done = true
		if line == "" {
			return "", false, nil
		}
	}
	p.lineNumber++
	return strings.TrimRight(line, "\r\n"), true, nil
}

// parseHeader reads the leading "#" lines and keeps them verbatim.
func (p *Parser) parseHeader() error {
	for {
		line, ok, err := p.readLine()
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		if !ok {
			return nil
		}
		if strings.HasPrefix(line, "#") {
			p.header = append(p.header, line)
			continue
		}
		if line == "" {
			continue
		}
		p.pending = line
		p.hasPending = true
		return nil
	}
}

// Next reads the next record from the VCF file.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Record, error) {
	if p.hasPending {
		p.hasPending = false
		return ParseRecord(p.pending, p.lineNumber)
	}

	for {
		line, ok, err := p.readLine()
		if err != nil {
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		if !ok {
			return nil, nil
		}
		if line == "" {
			continue // Skip empty lines
		}
		if strings.HasPrefix(line, "#") {
			return nil, &ParseError{
				Line:    p.lineNumber,
				Message: "header line found after data lines",
			}
		}
		return ParseRecord(line, p.lineNumber)
	}
}

// ParseRecord parses a single tab-delimited VCF data line.
func ParseRecord(line string, lineNum int) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < fixedColumns {
		return nil, &ParseError{
			Line:    lineNum,
			Message: fmt.Sprintf("expected at least %d columns, found %d", fixedColumns, len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    lineNum,
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	info, err := parseInfo(fields[7])
	if err != nil {
		return nil, &ParseError{
			Line:    lineNum,
			Message: err.Error(),
		}
	}

	r := &Record{
		Identity: Identity{
			Chrom: fields[0],
			Pos:   pos,
			Ref:   fields[3],
			Alt:   fields[4],
		},
		ID:      fields[2],
		Qual:    fields[5],
		Filter:  fields[6],
		RawInfo: fields[7],
		Info:    info,
		Format:  fields[8],
		Line:    lineNum,
	}
	if len(fields) > fixedColumns {
		r.Genotypes = fields[fixedColumns:]
	}

	return r, nil
}

// parseInfo splits the INFO column into key=value pairs.
// Every segment must contain exactly one "=".
func parseInfo(info string) (map[string]string, error) {
	segments := strings.Split(info, ";")
	result := make(map[string]string, len(segments))
	for _, kv := range segments {
		if strings.Count(kv, "=") != 1 {
			return nil, fmt.Errorf("malformed INFO segment %q: expected key=value", kv)
		}
		eq := strings.IndexByte(kv, '=')
		result[kv[:eq]] = kv[eq+1:]
	}
	return result, nil
}

// Header returns the VCF header lines.
func (p *Parser) Header() []string {
	return p.header
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
