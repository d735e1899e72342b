package output

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteError reports a failure producing an output file.
type WriteError struct {
	Path string
	Op   string // create, write, commit
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// AtomicFile is written under a temporary name in the destination directory
// and renamed into place on Commit. An aborted file never replaces the
// destination.
type AtomicFile struct {
	f    *os.File
	path string
	done bool
}

// CreateAtomic opens a temporary file next to path.
func CreateAtomic(path string) (*AtomicFile, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return nil, &WriteError{Path: path, Op: "create", Err: err}
	}
	return &AtomicFile{f: f, path: path}, nil
}

// Write writes to the temporary file.
func (a *AtomicFile) Write(p []byte) (int, error) {
	n, err := a.f.Write(p)
	if err != nil {
		return n, &WriteError{Path: a.path, Op: "write", Err: err}
	}
	return n, nil
}

// Path returns the destination path.
func (a *AtomicFile) Path() string {
	return a.path
}

// Commit syncs and closes the temporary file and renames it to the
// destination path.
func (a *AtomicFile) Commit() error {
	if a.done {
		return nil
	}
	a.done = true
	tmp := a.f.Name()
	if err := a.f.Sync(); err != nil {
		a.f.Close()
		os.Remove(tmp)
		return &WriteError{Path: a.path, Op: "commit", Err: err}
	}
	if err := a.f.Close(); err != nil {
		os.Remove(tmp)
		return &WriteError{Path: a.path, Op: "commit", Err: err}
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return &WriteError{Path: a.path, Op: "commit", Err: err}
	}
	if err := os.Rename(tmp, a.path); err != nil {
		os.Remove(tmp)
		return &WriteError{Path: a.path, Op: "commit", Err: err}
	}
	return nil
}

// Abort closes and removes the temporary file. It is a no-op after Commit.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	a.f.Close()
	os.Remove(a.f.Name())
}
