// Package duckdb caches raw ExAC lookup payloads and a log of annotation
// runs in DuckDB.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for caching lookup results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS exac_lookups (
		query_key VARCHAR PRIMARY KEY,
		payload VARCHAR,
		run_id VARCHAR,
		fetched_at TIMESTAMP
	)`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		run_id VARCHAR PRIMARY KEY,
		input_path VARCHAR,
		input_size BIGINT,
		input_modtime TIMESTAMP,
		records INTEGER,
		identities INTEGER,
		started_at TIMESTAMP,
		finished_at TIMESTAMP
	)`)
	return err
}

// Stats summarizes the cache contents.
type Stats struct {
	Lookups int
	Runs    int
}

// Stats counts cached lookups and recorded runs.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	if err := s.db.QueryRow("SELECT count(*) FROM exac_lookups").Scan(&st.Lookups); err != nil {
		return Stats{}, fmt.Errorf("count lookups: %w", err)
	}
	if err := s.db.QueryRow("SELECT count(*) FROM runs").Scan(&st.Runs); err != nil {
		return Stats{}, fmt.Errorf("count runs: %w", err)
	}
	return st, nil
}

// Clear removes all cached lookups and the run log.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM exac_lookups"); err != nil {
		return fmt.Errorf("clear lookups: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM runs"); err != nil {
		return fmt.Errorf("clear runs: %w", err)
	}
	return nil
}
