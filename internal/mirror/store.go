package mirror

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"imemirror/internal/models"
)

// Output directory names under the run root.
const (
	RawDir        = "data"
	JSONDir       = "json"
	AggregateFile = "all.json"
)

// Store writes run artifacts under a root directory.
type Store struct {
	root string
}

// NewStore creates a store rooted at root.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// RawPath returns where the raw text of u is written.
func (s *Store) RawPath(u models.WorkUnit) string {
	return filepath.Join(s.root, RawDir, u.ISODate(), u.FileStem()+".txt")
}

// UnitPath returns where the records of u are written.
func (s *Store) UnitPath(u models.WorkUnit) string {
	return filepath.Join(s.root, JSONDir, u.ISODate(), u.FileStem()+".json")
}

// AggregatePath returns where the run aggregate for date is written.
func (s *Store) AggregatePath(date Date) string {
	return filepath.Join(s.root, JSONDir, date.ISO(), AggregateFile)
}

// PrepareDay creates the raw and JSON directories for date.
func (s *Store) PrepareDay(date Date) error {
	for _, dir := range []string{RawDir, JSONDir} {
		path := filepath.Join(s.root, dir, date.ISO())
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
	}

	return nil
}

// SaveRaw writes the decoded bulletin text as UTF-8.
func (s *Store) SaveRaw(u models.WorkUnit, text string) error {
	return writeFile(s.RawPath(u), []byte(text))
}

// SaveUnit writes the records parsed from u.
func (s *Store) SaveUnit(u models.WorkUnit, notices []models.Notice) error {
	return saveNoticesJSON(s.UnitPath(u), notices)
}

// SaveAggregate writes every record of the run.
func (s *Store) SaveAggregate(date Date, notices []models.Notice) error {
	return saveNoticesJSON(s.AggregatePath(date), notices)
}

// saveNoticesJSON writes notices as an indented JSON array, never null.
func saveNoticesJSON(path string, notices []models.Notice) error {
	if notices == nil {
		notices = []models.Notice{}
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(notices); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
