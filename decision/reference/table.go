// Package reference loads the static reference datasets that sit alongside
// the live API data: prioritized requirements and people-in-need figures per plan
package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	trackererrors "gho-tracker/pkg/errors"
)

// Table is a CSV file keyed by one column, in file order.
// A repeated key replaces the earlier row but keeps its position.
type Table struct {
	Source string
	header map[string]int
	order  []string
	rows   map[string][]string
}

// LoadTable opens and reads a keyed CSV file
func LoadTable(path, keyColumn string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, trackererrors.NewReferenceError(path, "unable to open reference file", err)
	}
	defer f.Close()

	return ReadTable(f, path, keyColumn)
}

// ReadTable reads a keyed CSV from r. Header names are matched
// case-insensitively; rows with an empty key are ignored.
func ReadTable(r io.Reader, source, keyColumn string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, trackererrors.NewReferenceError(source, "reference file is empty", nil)
	}
	if err != nil {
		return nil, trackererrors.NewReferenceError(source, "unable to read header", err)
	}

	t := &Table{
		Source: source,
		header: mapHeaders(header),
		rows:   make(map[string][]string),
	}

	keyPos, ok := t.header[normalizeHeader(keyColumn)]
	if !ok {
		return nil, trackererrors.NewReferenceError(source, fmt.Sprintf("missing key column %q", keyColumn), nil)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, trackererrors.NewReferenceError(source, "malformed CSV", err)
		}
		if keyPos >= len(record) {
			continue
		}
		key := strings.TrimSpace(record[keyPos])
		if key == "" {
			continue
		}
		if _, exists := t.rows[key]; !exists {
			t.order = append(t.order, key)
		}
		t.rows[key] = record
	}

	return t, nil
}

// Keys returns row keys in file order
func (t *Table) Keys() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of keyed rows
func (t *Table) Len() int {
	return len(t.order)
}

// HasColumn reports whether the header contains column
func (t *Table) HasColumn(column string) bool {
	_, ok := t.header[normalizeHeader(column)]
	return ok
}

// Value returns the raw cell for key and column, and whether the row exists.
// A missing column or short row yields "".
func (t *Table) Value(key, column string) (string, bool) {
	record, ok := t.rows[key]
	if !ok {
		return "", false
	}
	pos, ok := t.header[normalizeHeader(column)]
	if !ok || pos >= len(record) {
		return "", true
	}
	return record[pos], true
}

func mapHeaders(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[normalizeHeader(name)] = i
	}
	return index
}

func normalizeHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.ToLower(strings.TrimSpace(name))
}
