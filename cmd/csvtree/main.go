package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"csvtree/internal/config"
	"csvtree/internal/tree"
)

// Version is set at build time.
var Version = "0.1.0"

// app holds what the root command resolves before any subcommand runs.
type app struct {
	cfgFile  string
	logLevel string
	logFile  string

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

// exitError carries a process exit code other than 1.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// userError shows a fixed message while keeping the cause for errors.Is.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

// interactive marks commands that own the terminal; they must not log to it.
const interactive = "interactive"

func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "csvtree [dir|manifest]",
		Short: "Browse a file tree and view CSV and XLSX files",
		Long: `csvtree shows a collapsible tree of files and folders and opens tabular files
in a viewer with search, sort, pagination and export.

Run without a subcommand to start the interactive browser.`,
		Version:     Version,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{interactive: "true"},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if a.closeLog != nil {
				return a.closeLog()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.browse(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default: ./"+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "write logs to this file")

	rootCmd.AddCommand(newBrowseCommand(a))
	rootCmd.AddCommand(newTreeCommand(a))
	rootCmd.AddCommand(newViewCommand(a))
	rootCmd.AddCommand(newExportCommand(a))
	rootCmd.AddCommand(newInspectCommand(a))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// setup loads the config, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.cfgFile
	if path == "" {
		path = config.DefaultPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFile != "" {
		cfg.LogFile = a.logFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	w := cmd.ErrOrStderr()
	if cmd.Annotations[interactive] == "true" {
		w = nil
	}

	logger, closeLog, err := config.NewLogger(cfg, w)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.closeLog = closeLog
	cmd.SetContext(config.WithLogger(cmd.Context(), logger))
	return nil
}

// loadRoot builds the tree for a directory or reads it from a manifest.
func (a *app) loadRoot(path string) (*tree.Node, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	if !info.IsDir() {
		if !tree.IsManifest(path) {
			return nil, fmt.Errorf("%s is neither a directory nor a tree manifest", path)
		}
		root, err := tree.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load manifest: %w", err)
		}
		return root, nil
	}

	root, result, err := tree.BuildDir(path, a.cfg.Exclude)
	if err != nil {
		return nil, err
	}
	for _, werr := range result.Errors {
		a.logger.Warn("skipped entry", "error", werr)
	}
	a.logger.Debug("tree built", "root", path, "files", len(result.Files), "folders", len(result.Dirs))
	return root, nil
}

func argOrDot(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}
