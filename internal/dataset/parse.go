package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"csvtree/internal/hash"
)

const utf8BOM = "\uFEFF"

// ParseCSV reads comma-separated text whose first row is the header. Blank
// lines are skipped and a leading byte order mark is dropped. Any structural
// problem, including a row whose field count differs from the header, fails
// the whole parse. Input without a header row returns ErrEmptyInput.
func ParseCSV(r io.Reader) (*Dataset, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && string(prefix) == utf8BOM {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
	}

	reader := csv.NewReader(br)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	ds := &Dataset{
		Columns: headerNames(records[0]),
		Rows:    make([]Record, 0, len(records)-1),
	}

	for _, raw := range records[1:] {
		ds.Rows = append(ds.Rows, inferRecord(raw))
	}

	return ds, nil
}

// ParseXLSX reads the first sheet of a workbook with the same rules as
// ParseCSV, except that rows shorter than the header are kept.
func ParseXLSX(r io.Reader) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptyInput
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	ds := &Dataset{Columns: []string{}, Rows: make([]Record, 0, len(rows))}
	headerSeen := false
	for i, raw := range rows {
		if isBlank(raw) {
			continue
		}
		if !headerSeen {
			ds.Columns = headerNames(raw)
			headerSeen = true
			continue
		}
		if len(raw) > len(ds.Columns) {
			return nil, fmt.Errorf("failed to parse sheet %q: row %d has %d fields, header has %d",
				sheet, i+1, len(raw), len(ds.Columns))
		}
		ds.Rows = append(ds.Rows, inferRecord(raw))
	}
	if !headerSeen {
		return nil, ErrEmptyInput
	}

	return ds, nil
}

// Load parses data according to the extension of name and stamps the
// dataset with its name and content checksum.
func Load(name string, data []byte) (*Dataset, error) {
	var (
		ds  *Dataset
		err error
	)

	switch FileType(name) {
	case "csv":
		ds, err = ParseCSV(bytes.NewReader(data))
	case "xlsx":
		ds, err = ParseXLSX(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
	if err != nil {
		return nil, err
	}

	ds.Name = filepath.Base(name)
	ds.Checksum = hash.Sum(data)
	return ds, nil
}

// LoadFile reads and parses the file at path.
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Load(path, data)
}

func headerNames(raw []string) []string {
	cols := make([]string, len(raw))
	for i, h := range raw {
		cols[i] = strings.TrimSpace(h)
	}
	return cols
}

func inferRecord(raw []string) Record {
	rec := make(Record, len(raw))
	for i, cell := range raw {
		rec[i] = Infer(cell)
	}
	return rec
}

func isBlank(raw []string) bool {
	for _, cell := range raw {
		if cell != "" {
			return false
		}
	}
	return true
}
