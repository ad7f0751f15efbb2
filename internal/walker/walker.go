package walker

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"csvtree/internal/dataset"
	"csvtree/internal/progress"
)

type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
	Owner   string
	IsDir   bool
}

type WalkResult struct {
	Root   string
	Files  []FileInfo
	Dirs   []FileInfo
	Errors []error
}

// Walk collects every non-excluded file and directory below rootPath. The
// root itself is not part of the result.
func Walk(rootPath string, exclusions []string) (*WalkResult, error) {
	result := &WalkResult{
		Root:   rootPath,
		Files:  make([]FileInfo, 0),
		Dirs:   make([]FileInfo, 0),
		Errors: make([]error, 0),
	}

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// If error is on the root path, return it (don't continue walking)
			if path == rootPath {
				return err
			}
			// Skip permission errors and continue walking
			result.Errors = append(result.Errors, err)
			return nil
		}

		if path == rootPath {
			return nil
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}

		if shouldExclude(relPath, d, exclusions) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}

		entry := FileInfo{
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Owner:   ownerOf(info),
			IsDir:   d.IsDir(),
		}
		if d.IsDir() {
			entry.Size = 0
			result.Dirs = append(result.Dirs, entry)
		} else {
			result.Files = append(result.Files, entry)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return result, nil
}

func shouldExclude(relPath string, d fs.DirEntry, exclusions []string) bool {
	for _, pattern := range exclusions {
		// Handle directory exclusions (patterns ending with /)
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			parts := strings.Split(relPath, string(filepath.Separator))
			// The last segment of a file path is not a directory
			if !d.IsDir() {
				parts = parts[:len(parts)-1]
			}
			for _, part := range parts {
				if matched, _ := filepath.Match(dirPattern, part); matched {
					return true
				}
				if part == dirPattern {
					return true
				}
			}
		} else {
			matched, err := filepath.Match(pattern, filepath.Base(relPath))
			if err == nil && matched {
				return true
			}
			// Also try matching against the full relative path for patterns with /
			if strings.Contains(pattern, "/") {
				matched, err := filepath.Match(pattern, relPath)
				if err == nil && matched {
					return true
				}
			}
		}
	}
	return false
}

// FilterByType returns the files whose extension is accepted by keep.
func FilterByType(files []FileInfo, keep func(fileType string) bool) []FileInfo {
	out := make([]FileInfo, 0, len(files))
	for _, f := range files {
		if keep(dataset.FileType(f.Path)) {
			out = append(out, f)
		}
	}
	return out
}

// Summary describes one inspected file.
type Summary struct {
	Path     string
	Rows     int
	Columns  int
	Checksum string
	Err      error
}

type InspectResult struct {
	Summaries []Summary // same order as the input files
	Errors    []error
}

// InspectFiles loads every file on a bounded pool of workers. A file that
// fails to load is recorded in its Summary and in Errors; it does not stop
// the others. Cancelling ctx stops scheduling further files.
func InspectFiles(ctx context.Context, files []FileInfo, numWorkers int, progressBar *progress.Bar) (*InspectResult, error) {
	if numWorkers <= 0 {
		numWorkers = 1
	}

	result := &InspectResult{
		Summaries: make([]Summary, len(files)),
		Errors:    make([]error, 0),
	}

	if len(files) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)

	for i, fileInfo := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			summary := Summary{Path: fileInfo.Path}
			ds, err := dataset.LoadFile(fileInfo.Path)
			if err != nil {
				summary.Err = err
			} else {
				summary.Rows = len(ds.Rows)
				summary.Columns = len(ds.Columns)
				summary.Checksum = ds.Checksum
			}
			result.Summaries[i] = summary

			mu.Lock()
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: %w", fileInfo.Path, err))
			}
			mu.Unlock()

			if progressBar != nil {
				progressBar.SetDirectory(filepath.Dir(fileInfo.Path))
				progressBar.Increment()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("inspection interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("inspection interrupted: %w", err)
	}

	return result, nil
}
