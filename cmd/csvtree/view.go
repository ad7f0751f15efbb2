package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"csvtree/internal/dataset"
	"csvtree/internal/viewer"
)

// viewOptions are the transformations shared by view and export.
type viewOptions struct {
	search string
	sorts  []string
}

func (o *viewOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.search, "search", "s", "", "Keep rows where any cell contains this text (case-insensitive)")
	cmd.Flags().StringArrayVar(&o.sorts, "sort", nil, "Sort by column; repeat the flag with the same column to flip its direction")
}

// open loads path into a new viewer and applies the options in order.
func (a *app) open(ctx context.Context, path string, opts viewOptions) (*viewer.Viewer, error) {
	v := viewer.New(a.logger)
	if err := v.Load(ctx, path); err != nil {
		return nil, &userError{msg: v.Message(), err: err}
	}

	if opts.search != "" {
		v.SetSearchQuery(opts.search)
	}
	for _, col := range opts.sorts {
		if v.Dataset().ColumnIndex(col) < 0 {
			return nil, fmt.Errorf("unknown column %q", col)
		}
		v.SetSort(col)
	}
	return v, nil
}

func newViewCommand(a *app) *cobra.Command {
	var (
		opts viewOptions
		page int
	)

	cmd := &cobra.Command{
		Use:   "view <file>",
		Short: "Print one page of a CSV or XLSX file",
		Example: `  csvtree view people.csv
  csvtree view people.csv --search nyc --sort age --page 2
  csvtree view people.csv --sort age --sort age`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.open(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			v.SetPage(page)
			renderPage(cmd.OutOrStdout(), v)
			return nil
		},
	}

	opts.bind(cmd)
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page to show (clamped to the available pages)")

	return cmd
}

func renderPage(w io.Writer, v *viewer.Viewer) {
	ds := v.Dataset()
	rows := v.Page()

	if len(rows) == 0 {
		_, _ = fmt.Fprintf(w, "(0 rows of %d)\n", len(ds.Rows))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(ds.Columns))
	for i, c := range ds.Columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, rec := range rows {
		row := make(table.Row, len(ds.Columns))
		for i := range ds.Columns {
			row[i] = rec.Cell(i).String()
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "page %d of %d (%d of %d rows)\n",
		v.CurrentPage(), max(v.TotalPages(), 1), v.FilteredCount(), len(ds.Rows))
}

func newExportCommand(a *app) *cobra.Command {
	var (
		opts   viewOptions
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the filtered and sorted rows of a file",
		Long: `Write every row that survives --search, in --sort order, to a new file.
Without -o the file goes to export_dir as filtered_<name>. Use -o - for stdout.`,
		Example: `  csvtree export people.csv --search nyc
  csvtree export people.csv --sort age --format parquet -o people.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = a.cfg.ExportFormat
			}
			f, err := dataset.ParseFormat(format)
			if err != nil {
				return err
			}

			v, err := a.open(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			if output == "-" {
				return v.Export(cmd.OutOrStdout(), f)
			}

			path := output
			if path == "" {
				path, err = v.WriteExport(a.cfg.ExportDir, f)
			} else {
				err = v.WriteExportTo(path, f)
			}
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d rows to %s (%s)\n", v.FilteredCount(), path, f.MIMEType())
			return nil
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "", "Export format (csv|json|xlsx|parquet); defaults to export_format")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path, or - for stdout")

	return cmd
}
