package annotate

import "fmt"

// MissingFieldError is returned when a record lacks a required INFO key.
type MissingFieldError struct {
	Key     string
	Variant string // chrom-pos-ref-alt
	Line    int
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing INFO field %s for variant %s at line %d", e.Key, e.Variant, e.Line)
}

// FieldFormatError is returned when a required INFO value cannot be parsed.
type FieldFormatError struct {
	Key     string
	Value   string
	Variant string
	Line    int
}

func (e *FieldFormatError) Error() string {
	return fmt.Sprintf("invalid INFO field %s=%q for variant %s at line %d", e.Key, e.Value, e.Variant, e.Line)
}

// ConsistencyError reports lookup data that cannot be joined or ranked:
// a queried variant missing from the results, a record without a resolved
// annotation, or an unranked consequence term.
type ConsistencyError struct {
	Key    string // variant key the error concerns, if any
	Reason string
}

func (e *ConsistencyError) Error() string {
	if e.Key == "" {
		return "data consistency error: " + e.Reason
	}
	return fmt.Sprintf("data consistency error for %s: %s", e.Key, e.Reason)
}
