// Package annotate merges ExAC frequency and consequence data into VCF records.
package annotate

import "fmt"

// NA marks a value that is missing by design (no frequency, no consequence,
// or an undefined variant ratio).
const NA = "NA"

// Impact levels for variant consequences.
const (
	ImpactHigh     = "HIGH"
	ImpactModerate = "MODERATE"
	ImpactLow      = "LOW"
	ImpactModifier = "MODIFIER"
)

// Consequence types (Sequence Ontology terms) reported by ExAC.
const (
	// HIGH impact
	ConsequenceStopGained     = "stop_gained"
	ConsequenceStopLost       = "stop_lost"
	ConsequenceSpliceAcceptor = "splice_acceptor_variant"
	ConsequenceSpliceDonor    = "splice_donor_variant"

	// MODERATE impact
	ConsequenceMissenseVariant = "missense_variant"
	ConsequenceStopRetained    = "stop_retained_variant"
	ConsequenceInitiatorCodon  = "initiator_codon_variant"

	// LOW impact
	ConsequenceSynonymousVariant = "synonymous_variant"
	ConsequenceSpliceRegion      = "splice_region_variant"

	// MODIFIER impact
	ConsequenceIntronVariant = "intron_variant"
	Consequence5PrimeUTR     = "5_prime_UTR_variant"
	Consequence3PrimeUTR     = "3_prime_UTR_variant"
	ConsequenceNonCodingExon = "non_coding_transcript_exon_variant"
)

// Severity maps a consequence term to its impact rank (0=MODIFIER .. 3=HIGH).
// The table is closed: terms outside it cannot be ranked.
type Severity map[string]int

// DefaultSeverity returns the putative impact of each consequence term,
// following the snpEff VCF annotation format v1.0.
func DefaultSeverity() Severity {
	return Severity{
		Consequence3PrimeUTR:         ImpactRank(ImpactModifier),
		Consequence5PrimeUTR:         ImpactRank(ImpactModifier),
		ConsequenceIntronVariant:     ImpactRank(ImpactModifier),
		ConsequenceNonCodingExon:     ImpactRank(ImpactModifier),
		ConsequenceSpliceRegion:      ImpactRank(ImpactLow),
		ConsequenceSynonymousVariant: ImpactRank(ImpactLow),
		ConsequenceStopRetained:      ImpactRank(ImpactModerate),
		ConsequenceMissenseVariant:   ImpactRank(ImpactModerate),
		ConsequenceInitiatorCodon:    ImpactRank(ImpactModerate),
		ConsequenceStopLost:          ImpactRank(ImpactHigh),
		ConsequenceStopGained:        ImpactRank(ImpactHigh),
		ConsequenceSpliceDonor:       ImpactRank(ImpactHigh),
		ConsequenceSpliceAcceptor:    ImpactRank(ImpactHigh),
	}
}

// Rank returns the severity rank of term.
func (s Severity) Rank(term string) (int, error) {
	rank, ok := s[term]
	if !ok {
		return 0, &ConsistencyError{
			Reason: fmt.Sprintf("consequence term %q is not in the severity table", term),
		}
	}
	return rank, nil
}

// Impact returns the impact level name of term.
func (s Severity) Impact(term string) (string, error) {
	rank, err := s.Rank(term)
	if err != nil {
		return "", err
	}
	return ImpactName(rank), nil
}

// ImpactRank returns numeric rank for impact comparison (higher = more severe).
func ImpactRank(impact string) int {
	switch impact {
	case ImpactHigh:
		return 3
	case ImpactModerate:
		return 2
	case ImpactLow:
		return 1
	default:
		return 0
	}
}

// ImpactName is the inverse of ImpactRank.
func ImpactName(rank int) string {
	switch rank {
	case 3:
		return ImpactHigh
	case 2:
		return ImpactModerate
	case 1:
		return ImpactLow
	default:
		return ImpactModifier
	}
}
