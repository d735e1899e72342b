// Package exac provides a client for the ExAC bulk variant REST API.
package exac

import (
	"encoding/json"
	"fmt"

	"github.com/inodb/exac-annot/internal/vcf"
)

// EncodeIdentities renders identities as "chrom-pos-ref-alt" query keys.
// Input order is kept and repeated identities are dropped after their first
// occurrence.
func EncodeIdentities(ids []vcf.Identity) []string {
	seen := make(map[string]bool, len(ids))
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		k := id.QueryKey()
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

// EncodeBatch serializes query keys into the JSON array body the bulk
// endpoint expects.
func EncodeBatch(keys []string) ([]byte, error) {
	if keys == nil {
		keys = []string{}
	}
	body, err := json.Marshal(keys)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	return body, nil
}

// chunk splits keys into consecutive batches of at most size keys.
// A size of zero or less yields a single batch.
func chunk(keys []string, size int) [][]string {
	if size <= 0 || len(keys) <= size {
		return [][]string{keys}
	}
	batches := make([][]string, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		batches = append(batches, keys[start:end])
	}
	return batches
}
