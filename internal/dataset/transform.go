package dataset

import (
	"fmt"
	"slices"
	"strings"
)

// Direction is the order a sort applies.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return fmt.Sprintf("unknown(%d)", int(d))
	}
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// Filter returns the rows where at least one cell's string form contains
// query, ignoring case. The result is a new slice; an empty query keeps
// every row.
func Filter(rows []Record, query string) []Record {
	if query == "" {
		return slices.Clone(rows)
	}

	needle := strings.ToLower(query)
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		if matches(r, needle) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r Record, needle string) bool {
	for _, v := range r {
		if strings.Contains(strings.ToLower(v.String()), needle) {
			return true
		}
	}
	return false
}

// Sort orders rows in place by the cell at col. The sort is stable in both
// directions: rows whose cells compare equal keep their relative order. A
// column index outside the records leaves the order unchanged.
func Sort(rows []Record, col int, dir Direction) {
	slices.SortStableFunc(rows, func(a, b Record) int {
		c := Compare(a.Cell(col), b.Cell(col))
		if dir == Descending {
			return -c
		}
		return c
	})
}

// TotalPages is the number of pages needed for n rows.
func TotalPages(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Page returns the 1-based page of rows as a sub-slice of rows. Pages past
// the end are empty.
func Page(rows []Record, page, size int) []Record {
	if page < 1 || size <= 0 {
		return nil
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return nil
	}
	end := min(start+size, len(rows))
	return rows[start:end:end]
}
