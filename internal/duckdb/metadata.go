package duckdb

import (
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Run is one annotation run of an input file.
type Run struct {
	ID         string
	Input      FileFingerprint
	Records    int
	Identities int
	StartedAt  time.Time
	FinishedAt time.Time
}

// RecordRun appends a run to the run log.
func (s *Store) RecordRun(r Run) error {
	_, err := s.db.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Input.Path, r.Input.Size, r.Input.ModTime.UTC(),
		r.Records, r.Identities, r.StartedAt.UTC(), r.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	return nil
}

// Runs returns the run log, most recent first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT
		run_id, input_path, input_size, input_modtime,
		records, identities, started_at, finished_at
		FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(
			&r.ID, &r.Input.Path, &r.Input.Size, &r.Input.ModTime,
			&r.Records, &r.Identities, &r.StartedAt, &r.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
