// Package dataset holds parsed tabular data and the pure transformations the
// viewer applies to it: filter, sort, paginate and export.
package dataset

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyInput is returned when a CSV file has no header row or a
	// workbook has no sheet to read.
	ErrEmptyInput = errors.New("input has no data")

	// ErrUnsupportedFormat is returned for file types or export formats
	// this package cannot handle.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Record is one row, aligned with Dataset.Columns. A record may be shorter
// than the header; missing cells read as Null.
type Record []Value

// Cell returns the i-th cell, or Null when the record has no such cell.
func (r Record) Cell(i int) Value {
	if i < 0 || i >= len(r) {
		return Null()
	}
	return r[i]
}

// Dataset is the full in-memory table parsed from one file.
type Dataset struct {
	Name     string
	Columns  []string
	Rows     []Record
	Checksum string
}

// ColumnIndex returns the index of the first column with the given name,
// or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// FileType is the lower-case extension of name without the dot.
func FileType(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
