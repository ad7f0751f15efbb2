package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"csvtree/internal/ui"
)

func newBrowseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "browse [dir|manifest]",
		Short:       "Open the interactive tree and table browser",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{interactive: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.browse(cmd, args)
		},
	}
}

func (a *app) browse(cmd *cobra.Command, args []string) error {
	root, err := a.loadRoot(argOrDot(args))
	if err != nil {
		return err
	}

	m := ui.New(ui.Options{Root: root, Config: a.cfg, Logger: a.logger})
	defer m.Close()

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}
