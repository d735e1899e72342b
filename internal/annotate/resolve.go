package annotate

import (
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/inodb/exac-annot/internal/exac"
)

// Resolution is the ExAC-derived part of an annotation.
type Resolution struct {
	AlleleFreq  string // 3 decimals, or NA
	Consequence string // most severe term, or NA
	GeneIDs     string // comma-joined gene IDs of Consequence, or NA
}

// MostSevere picks the highest-ranked term. Among terms of equal rank the
// alphabetically smallest wins, so the result does not depend on the order
// of terms.
func MostSevere(terms []string, sev Severity) (string, error) {
	best, bestRank := "", -1
	for _, term := range terms {
		rank, err := sev.Rank(term)
		if err != nil {
			return "", err
		}
		switch {
		case rank > bestRank:
			best, bestRank = term, rank
		case rank == bestRank && term < best:
			best = term
		}
	}
	return best, nil
}

// ResolveConsequence reduces an ExAC record to a single consequence call.
func ResolveConsequence(info exac.VariantInfo, sev Severity) (Resolution, error) {
	res := Resolution{
		AlleleFreq:  FormatAlleleFreq(info.AlleleFreq),
		Consequence: NA,
		GeneIDs:     NA,
	}
	if len(info.Consequences) == 0 {
		return res, nil
	}

	terms := make([]string, 0, len(info.Consequences))
	for term := range info.Consequences {
		terms = append(terms, term)
	}

	chosen, err := MostSevere(terms, sev)
	if err != nil {
		return Resolution{}, err
	}
	res.Consequence = chosen
	if genes := info.Consequences[chosen]; len(genes) > 0 {
		res.GeneIDs = strings.Join(genes, ",")
	}
	return res, nil
}

// FormatAlleleFreq formats a frequency with 3 decimals, or NA when absent.
func FormatAlleleFreq(f null.Float) string {
	if !f.Valid {
		return NA
	}
	return strconv.FormatFloat(f.Float64, 'f', 3, 64)
}
