// Package viewer holds the lifecycle of one loaded dataset and the view state
// derived from it: search query, sort config and current page.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"csvtree/internal/dataset"
)

// PageSize is the number of rows on one page.
const PageSize = 50

var (
	// ErrReadFailure means the file could not be read.
	ErrReadFailure = errors.New("read failure")

	// ErrParseFailure means the file was read but is not valid tabular data.
	ErrParseFailure = errors.New("parse failure")

	// ErrNoDataset is returned by operations that need a loaded dataset.
	ErrNoDataset = errors.New("no dataset loaded")
)

type Status int

const (
	Idle Status = iota
	Loading
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

type SortDirection = dataset.Direction

const (
	Ascending  = dataset.Ascending
	Descending = dataset.Descending
)

type SortConfig struct {
	Column    string
	Direction SortDirection
}

// Generation identifies one load attempt. Only the latest generation may
// complete.
type Generation uint64

// Viewer is safe for concurrent use; loads started from several goroutines
// resolve as last-load-wins.
type Viewer struct {
	mu     sync.Mutex
	logger *slog.Logger

	gen    Generation
	status Status
	name   string
	ds     *dataset.Dataset
	err    error
	start  time.Time

	query    string
	sort     *SortConfig
	page     int
	filtered []dataset.Record
}

// New creates an idle viewer. A nil logger discards.
func New(logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Viewer{logger: logger, page: 1}
}

// Begin starts a new load attempt for the file called name. Any previous
// dataset is hidden until the attempt finishes.
func (v *Viewer) Begin(name string) Generation {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.gen++
	v.status = Loading
	v.name = filepath.Base(name)
	v.ds = nil
	v.err = nil
	v.filtered = nil
	v.page = 1
	v.start = time.Now()

	v.logger.Debug("load started", "file", v.name, "generation", v.gen)
	return v.gen
}

// Finish completes the load attempt gen with its result. It reports false,
// and changes nothing, when a newer attempt has begun since.
func (v *Viewer) Finish(gen Generation, ds *dataset.Dataset, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen || v.status != Loading {
		v.logger.Debug("stale load result dropped", "generation", gen, "current", v.gen)
		return false
	}

	if err == nil && ds == nil {
		err = ErrParseFailure
	}

	if err != nil {
		if !errors.Is(err, ErrReadFailure) && !errors.Is(err, ErrParseFailure) {
			err = fmt.Errorf("%w: %w", ErrParseFailure, err)
		}
		v.status = Failed
		v.err = err
		v.logger.Warn("load failed", "file", v.name, "kind", failureKind(err), "error", err)
		return true
	}

	v.status = Ready
	v.ds = ds
	v.recompute()

	v.logger.Info("load finished",
		"file", v.name,
		"rows", len(ds.Rows),
		"columns", len(ds.Columns),
		"checksum", ds.Checksum,
		"duration", time.Since(v.start))
	return true
}

// Fetch reads and parses the file at path, classifying failures as
// ErrReadFailure or ErrParseFailure.
func Fetch(ctx context.Context, path string) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailure, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailure, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailure, err)
	}

	ds, err := dataset.Load(path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailure, err)
	}
	return ds, nil
}

// Load reads and parses path synchronously. The returned error is the
// classified failure, if any.
func (v *Viewer) Load(ctx context.Context, path string) error {
	gen := v.Begin(path)
	ds, err := Fetch(ctx, path)
	v.Finish(gen, ds, err)
	return err
}

func failureKind(err error) string {
	if errors.Is(err, ErrReadFailure) {
		return "read"
	}
	return "parse"
}

// recompute rebuilds filtered from the dataset, query and sort. Callers hold mu.
func (v *Viewer) recompute() {
	v.page = 1
	if v.ds == nil {
		v.filtered = nil
		return
	}

	v.filtered = dataset.Filter(v.ds.Rows, v.query)
	if v.sort != nil {
		dataset.Sort(v.filtered, v.ds.ColumnIndex(v.sort.Column), v.sort.Direction)
	}
}

// SetSearchQuery filters rows by a case-insensitive substring and returns to
// page 1.
func (v *Viewer) SetSearchQuery(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.query = q
	v.recompute()
}

// SetSort sorts by column ascending, or flips the direction when column is
// already the sort column. It returns to page 1.
func (v *Viewer) SetSort(column string) SortConfig {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.sort != nil && v.sort.Column == column {
		v.sort.Direction = v.sort.Direction.Flip()
	} else {
		v.sort = &SortConfig{Column: column, Direction: Ascending}
	}
	v.recompute()
	return *v.sort
}

// ClearSort drops the sort config, restoring input order.
func (v *Viewer) ClearSort() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.sort = nil
	v.recompute()
}

// SetPage moves to page n clamped to [1, TotalPages] and returns the page
// actually selected. With no rows the only page is 1.
func (v *Viewer) SetPage(n int) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	last := max(1, dataset.TotalPages(len(v.filtered), PageSize))
	v.page = min(max(n, 1), last)
	return v.page
}

// Page returns the visible slice of filtered rows.
func (v *Viewer) Page() []dataset.Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	return dataset.Page(v.filtered, v.page, PageSize)
}

func (v *Viewer) TotalPages() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return dataset.TotalPages(len(v.filtered), PageSize)
}

func (v *Viewer) CurrentPage() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// FilteredRows returns a copy of the rows after search and sort.
func (v *Viewer) FilteredRows() []dataset.Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.filtered)
}

// FilteredCount is len(FilteredRows()) without the copy.
func (v *Viewer) FilteredCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.filtered)
}

// Generation returns the latest load attempt.
func (v *Viewer) Generation() Generation {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gen
}

func (v *Viewer) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

func (v *Viewer) Name() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.name
}

// Dataset returns the loaded dataset, or nil unless the viewer is Ready.
func (v *Viewer) Dataset() *dataset.Dataset {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ds
}

func (v *Viewer) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// Sort returns the active sort config, if any.
func (v *Viewer) Sort() (SortConfig, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sort == nil {
		return SortConfig{}, false
	}
	return *v.sort, true
}

// Err returns the detailed failure of the last load.
func (v *Viewer) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Message is the static user-facing text for a failed load, or "".
func (v *Viewer) Message() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.status != Failed {
		return ""
	}
	if errors.Is(v.err, ErrReadFailure) {
		return "Failed to load file."
	}
	return "Failed to parse file."
}

// Export writes the current filtered rows under the dataset's columns.
func (v *Viewer) Export(w io.Writer, format dataset.Format) error {
	v.mu.Lock()
	if v.status != Ready {
		v.mu.Unlock()
		return ErrNoDataset
	}
	columns := v.ds.Columns
	rows := v.filtered
	v.mu.Unlock()

	return dataset.Export(w, format, columns, rows)
}

// ExportFilename is the file name an export in format is saved under.
func (v *Viewer) ExportFilename(format dataset.Format) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return dataset.ExportFilename(v.name, format)
}

// WriteExport saves the filtered rows into dir and returns the path written.
func (v *Viewer) WriteExport(dir string, format dataset.Format) (string, error) {
	if v.Status() != Ready {
		return "", ErrNoDataset
	}

	path := filepath.Join(dir, v.ExportFilename(format))
	if err := v.WriteExportTo(path, format); err != nil {
		return "", err
	}
	return path, nil
}

// WriteExportTo saves the filtered rows to path. A failed export leaves no
// file behind.
func (v *Viewer) WriteExportTo(path string, format dataset.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := v.Export(f, format); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to export: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}

	v.logger.Info("export written", "path", path, "rows", v.FilteredCount(), "format", format)
	return nil
}
