package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"csvtree/internal/config"
	"csvtree/internal/dataset"
	"csvtree/internal/hash"
	"csvtree/internal/progress"
	"csvtree/internal/walker"
)

func newInspectCommand(a *app) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "inspect [dir]",
		Short: "Load every viewable file under a directory and summarize it",
		Long: `Load every file whose type is listed in extensions, on a pool of workers,
and print rows, columns and checksum for each. Exits with status 2 when any
file fails to load.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers <= 0 {
				workers = a.cfg.Workers
			}

			dir, err := filepath.Abs(argOrDot(args))
			if err != nil {
				return fmt.Errorf("failed to get absolute path: %w", err)
			}

			logger := config.GetLogger(cmd.Context())
			logger.Info("scanning directory", "dir", dir)

			walkResult, err := walker.Walk(dir, a.cfg.Exclude)
			if err != nil {
				return err
			}

			files := walker.FilterByType(walkResult.Files, a.cfg.IsViewable)
			bar := progress.NewWithWriter(int64(len(files)), cmd.ErrOrStderr())

			result, err := walker.InspectFiles(cmd.Context(), files, workers, bar)
			bar.Finish()
			if err != nil {
				return err
			}

			renderInspect(cmd.OutOrStdout(), dir, result)
			logger.Info("inspect finished", "files", len(files), "failed", len(result.Errors))

			if len(result.Errors) > 0 {
				return &exitError{
					code: 2,
					err:  fmt.Errorf("%d of %d files failed to load", len(result.Errors), len(files)),
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of worker goroutines (default: workers from config)")

	return cmd
}

func renderInspect(w io.Writer, root string, result *walker.InspectResult) {
	if len(result.Summaries) == 0 {
		_, _ = fmt.Fprintln(w, "(0 files)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Type", "Rows", "Columns", "Checksum", "Status"})

	var rows, failed int
	for _, s := range result.Summaries {
		rel, err := filepath.Rel(root, s.Path)
		if err != nil {
			rel = s.Path
		}

		status := "ok"
		if s.Err != nil {
			status = s.Err.Error()
			failed++
		}
		rows += s.Rows

		t.AppendRow(table.Row{rel, dataset.FileType(s.Path), s.Rows, s.Columns, hash.Short(s.Checksum), status})
	}

	t.AppendFooter(table.Row{fmt.Sprintf("%d files", len(result.Summaries)), "", rows, "", "", fmt.Sprintf("%d failed", failed)})
	t.Render()
}
