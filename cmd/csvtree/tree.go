package main

import (
	"fmt"
	"io"
	"path"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"csvtree/internal/tree"
)

func newTreeCommand(a *app) *cobra.Command {
	var (
		expandAll bool
		details   bool
		savePath  string
	)

	cmd := &cobra.Command{
		Use:   "tree [dir|manifest]",
		Short: "Print the file tree",
		Long: `Print the tree of a directory or a saved manifest. Only the root is expanded
unless --expand-all is given.`,
		Example: `  csvtree tree data --expand-all
  csvtree tree data --details
  csvtree tree data --save data.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.loadRoot(argOrDot(args))
			if err != nil {
				return err
			}

			if savePath != "" {
				if err := tree.Save(root, savePath); err != nil {
					return fmt.Errorf("failed to save tree: %w", err)
				}
				a.logger.Info("manifest written", "path", savePath)
			}

			out := cmd.OutOrStdout()
			if details {
				renderDetails(out, root)
				return nil
			}

			t := tree.New(root, nil)
			if expandAll {
				t.ExpandAll()
			} else {
				t.Toggle(tree.RootID)
			}
			for _, line := range tree.Format(t.Lines()) {
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&expandAll, "expand-all", false, "Expand every folder")
	cmd.Flags().BoolVar(&details, "details", false, "Print a table of every node with its metadata")
	cmd.Flags().StringVar(&savePath, "save", "", "Also write the tree to a JSON or YAML manifest")

	return cmd
}

func renderDetails(w io.Writer, root *tree.Node) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Path", "Type", "File Type", "Size", "Created", "Modified By"})

	var walk func(n *tree.Node, prefix string)
	walk = func(n *tree.Node, prefix string) {
		p := path.Join(prefix, n.Name)

		size, created := "", ""
		if !n.IsFolder() {
			size = tree.FormatSize(n.Size)
		}
		if !n.CreatedAt.IsZero() {
			created = n.CreatedAt.Format(time.DateTime)
		}
		t.AppendRow(table.Row{p, string(n.Type), n.FileType, size, created, n.ModifiedBy})

		for _, c := range n.Children {
			walk(c, p)
		}
	}
	walk(root, "")

	folders, files := tree.Count(root)
	t.AppendFooter(table.Row{fmt.Sprintf("%d folders, %d files", folders, files), "", "", tree.FormatSize(tree.TotalSize(root))})
	t.Render()
}
