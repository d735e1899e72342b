package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"
)

// maxParams bounds the number of placeholders per IN query.
const maxParams = 500

// LookupCache stores raw ExAC payloads keyed by "chrom-pos-ref-alt" and
// tags new entries with the run that fetched them.
type LookupCache struct {
	store *Store
	runID string
}

// LookupCache returns a payload cache writing on behalf of runID.
func (s *Store) LookupCache(runID string) *LookupCache {
	return &LookupCache{store: s, runID: runID}
}

// GetPayloads returns the cached payload of every key present in the cache.
func (c *LookupCache) GetPayloads(keys []string) (map[string][]byte, error) {
	return c.store.GetPayloads(keys)
}

// PutPayloads stores payloads, replacing earlier entries for the same keys.
func (c *LookupCache) PutPayloads(payloads map[string][]byte) error {
	return c.store.PutPayloads(c.runID, payloads)
}

// GetPayloads queries cached payloads for keys.
func (s *Store) GetPayloads(keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for start := 0; start < len(keys); start += maxParams {
		end := min(start+maxParams, len(keys))
		batch := keys[start:end]

		rows, err := s.db.Query(
			"SELECT query_key, payload FROM exac_lookups WHERE query_key IN ("+placeholders(len(batch))+")",
			anyArgs(batch)...)
		if err != nil {
			return nil, fmt.Errorf("query lookups: %w", err)
		}
		for rows.Next() {
			var key, payload string
			if err := rows.Scan(&key, &payload); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan lookup: %w", err)
			}
			out[key] = []byte(payload)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterate lookups: %w", err)
		}
	}
	return out, nil
}

// PutPayloads batch-inserts payloads using the Appender API. Existing rows
// for the same keys are removed first.
func (s *Store) PutPayloads(runID string, payloads map[string][]byte) error {
	if len(payloads) == 0 {
		return nil
	}

	keys := make([]string, 0, len(payloads))
	for k := range payloads {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	for start := 0; start < len(keys); start += maxParams {
		end := min(start+maxParams, len(keys))
		batch := keys[start:end]
		if _, err := conn.ExecContext(ctx,
			"DELETE FROM exac_lookups WHERE query_key IN ("+placeholders(len(batch))+")",
			anyArgs(batch)...); err != nil {
			return fmt.Errorf("replace lookups: %w", err)
		}
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "exac_lookups")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	now := time.Now().UTC()
	for _, k := range keys {
		if err := appender.AppendRow(k, string(payloads[k]), runID, now); err != nil {
			return fmt.Errorf("append lookup: %w", err)
		}
	}

	return appender.Flush()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func anyArgs(keys []string) []any {
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	return args
}
