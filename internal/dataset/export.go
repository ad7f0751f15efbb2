package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format is an export file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatXLSX    Format = "xlsx"
	FormatParquet Format = "parquet"
)

// Formats lists every supported export format.
var Formats = []Format{FormatCSV, FormatJSON, FormatXLSX, FormatParquet}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: export format %q", ErrUnsupportedFormat, s)
}

// MIMEType returns the content type of an exported file.
func (f Format) MIMEType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}

// ExportFilename derives the download name for a filtered export of the
// file called name: filtered_<name> for CSV, with the extension swapped for
// the other formats.
func ExportFilename(name string, format Format) string {
	base := filepath.Base(name)
	if format == FormatCSV || format == "" {
		return "filtered_" + base
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return "filtered_" + stem + "." + string(format)
}

// Export writes rows under the given columns in format.
func Export(w io.Writer, format Format, columns []string, rows []Record) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, columns, rows)
	case FormatJSON:
		return writeJSON(w, columns, rows)
	case FormatXLSX:
		return writeXLSX(w, columns, rows)
	case FormatParquet:
		return writeParquet(w, columns, rows)
	default:
		return fmt.Errorf("%w: export format %q", ErrUnsupportedFormat, format)
	}
}

func writeCSV(w io.Writer, columns []string, rows []Record) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	line := make([]string, len(columns))
	for _, r := range rows {
		for i := range columns {
			line[i] = r.Cell(i).String()
		}
		// A lone empty field would be written as a blank line, which
		// parsing skips; quote it so the row survives.
		if len(line) == 1 && line[0] == "" {
			writer.Flush()
			if _, err := io.WriteString(w, "\"\"\n"); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
			continue
		}
		if err := writer.Write(line); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// writeJSON emits an array of objects whose keys follow column order.
func writeJSON(w io.Writer, columns []string, rows []Record) error {
	bw := bufio.NewWriter(w)

	keys := make([][]byte, len(columns))
	for i, c := range columns {
		k, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to encode column name: %w", err)
		}
		keys[i] = k
	}

	bw.WriteString("[")
	for n, r := range rows {
		if n > 0 {
			bw.WriteString(",")
		}
		bw.WriteString("\n  {")
		for i := range columns {
			if i > 0 {
				bw.WriteString(", ")
			}
			v, err := json.Marshal(r.Cell(i))
			if err != nil {
				return fmt.Errorf("failed to encode row %d: %w", n, err)
			}
			bw.Write(keys[i])
			bw.WriteString(": ")
			bw.Write(v)
		}
		bw.WriteString("}")
	}
	if len(rows) > 0 {
		bw.WriteString("\n")
	}
	bw.WriteString("]\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

func writeXLSX(w io.Writer, columns []string, rows []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"

	for i, c := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellStr(sheet, cell, c); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for n, r := range rows {
		for i := range columns {
			v := r.Cell(i)
			if v.IsNull() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, n+2)
			if err != nil {
				return fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v.Any()); err != nil {
				return fmt.Errorf("failed to write row %d: %w", n+1, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
