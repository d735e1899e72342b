package exac

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Jeffail/gabs"
	"gopkg.in/guregu/null.v3"
)

// VariantInfo is the part of an ExAC variant record used for annotation.
type VariantInfo struct {
	AlleleFreq null.Float // population allele frequency, invalid when absent

	// Consequences maps an SO term to its gene identifiers.
	// nil means the service returned no consequence data.
	Consequences map[string][]string
}

// DecodeBatch splits a bulk response into the raw JSON record of each
// queried identity.
func DecodeBatch(body []byte) (map[string][]byte, error) {
	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, fmt.Errorf("parse bulk response: %w", err)
	}

	children, err := parsed.ChildrenMap()
	if err != nil {
		return nil, fmt.Errorf("bulk response is not an object: %w", err)
	}

	raw := make(map[string][]byte, len(children))
	for id, child := range children {
		raw[id] = child.Bytes()
	}
	return raw, nil
}

// DecodeVariant decodes the raw JSON record of a single identity.
func DecodeVariant(raw []byte) (VariantInfo, error) {
	var info VariantInfo

	parsed, err := gabs.ParseJSON(raw)
	if err != nil {
		return info, fmt.Errorf("parse variant record: %w", err)
	}

	if af := parsed.Search("variant", "allele_freq").Data(); af != nil {
		f, ok := toFloat(af)
		if !ok {
			return info, fmt.Errorf("allele_freq is not a number: %v", af)
		}
		info.AlleleFreq = null.FloatFrom(f)
	}

	csq := parsed.Search("consequence")
	if csq.Data() == nil {
		return info, nil
	}

	terms, err := csq.ChildrenMap()
	if err != nil {
		return info, fmt.Errorf("consequence is not an object: %w", err)
	}

	info.Consequences = make(map[string][]string, len(terms))
	for term, genes := range terms {
		ids, err := geneIDs(genes)
		if err != nil {
			return info, fmt.Errorf("consequence %s: %w", term, err)
		}
		info.Consequences[term] = ids
	}
	return info, nil
}

// DecodeAll decodes every raw record in a batch.
func DecodeAll(raw map[string][]byte) (map[string]VariantInfo, error) {
	infos := make(map[string]VariantInfo, len(raw))
	for id, r := range raw {
		info, err := DecodeVariant(r)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", id, err)
		}
		infos[id] = info
	}
	return infos, nil
}

// geneIDs extracts gene identifiers from a consequence value. ExAC keys the
// per-gene transcript lists by gene ID, so for objects the sorted keys are
// returned. Plain string arrays are returned in order.
func geneIDs(c *gabs.Container) ([]string, error) {
	switch v := c.Data().(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		ids := make([]string, 0, len(v))
		for k := range v {
			ids = append(ids, k)
		}
		sort.Strings(ids)
		return ids, nil
	case []interface{}:
		ids := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("gene identifier is not a string: %v", e)
			}
			ids = append(ids, s)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("unexpected gene list type %T", v)
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
