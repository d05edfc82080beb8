package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// JSONFile persists a document of type T as a single JSON file.
type JSONFile[T any] struct {
	path string
}

// NewJSONFile returns a backend for the file at path. The file need not
// exist; its parent directory must exist before the first Save.
func NewJSONFile[T any](path string) *JSONFile[T] {
	return &JSONFile[T]{path: path}
}

// Path returns the backing file path.
func (f *JSONFile[T]) Path() string {
	return f.path
}

// Load reads and decodes the file. A missing file is not an error: it
// returns the zero document with found=false.
func (f *JSONFile[T]) Load() (T, bool, error) {
	var doc T

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, fmt.Errorf("reading %s: %w", f.path, err)
	}

	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return doc, false, fmt.Errorf("decoding %s: %w", f.path, err)
	}
	return doc, true, nil
}

// Save atomically replaces the file with the encoding of doc.
//
// The document is written to a temporary file in the same directory, which
// is synced, closed and renamed over the target. The parent directory is
// then synced so the rename survives a crash.
func (f *JSONFile[T]) Save(doc T) error {
	data, err := encodeJSON(doc)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", f.path, err)
	}
	// Trailing newline for clean file content.
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file for %s: %w", f.path, err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing temporary file for %s: %w", f.path, err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		tmpFile.Close()
		return fmt.Errorf("setting mode on temporary file for %s: %w", f.path, err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("syncing temporary file for %s: %w", f.path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temporary file for %s: %w", f.path, err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("renaming %s into place: %w", f.path, err)
	}
	success = true

	if parent, err := os.Open(dir); err == nil {
		parent.Sync()
		parent.Close()
	}
	return nil
}
