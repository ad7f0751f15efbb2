package config

import (
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "csvtree.yaml"

var (
	exportFormats = []string{"csv", "json", "xlsx", "parquet"}
	logLevels     = []string{"debug", "info", "warn", "error"}
)

type Config struct {
	Exclude      []string `yaml:"exclude"`
	Extensions   []string `yaml:"extensions"`
	ExportDir    string   `yaml:"export_dir"`
	ExportFormat string   `yaml:"export_format"`
	Workers      int      `yaml:"workers"`
	Watch        bool     `yaml:"watch"`
	LogLevel     string   `yaml:"log_level"`
	LogFile      string   `yaml:"log_file"`
}

func DefaultConfig() *Config {
	return &Config{
		Exclude: []string{
			".git/",
			".svn/",
			"node_modules/",
			"vendor/",
			"__pycache__/",
			"*.tmp",
			"*.swp",
			".DS_Store",
			"Thumbs.db",
		},
		Extensions:   []string{"csv", "xlsx"},
		ExportDir:    ".",
		ExportFormat: "csv",
		Workers:      runtime.NumCPU() * 2,
		LogLevel:     "info",
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so a partial file only overrides what it names
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}
	for i, ext := range cfg.Extensions {
		cfg.Extensions[i] = strings.ToLower(strings.TrimPrefix(ext, "."))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that have a fixed set of choices.
func (c *Config) Validate() error {
	if !slices.Contains(exportFormats, c.ExportFormat) {
		return fmt.Errorf("invalid export_format %q (want one of %s)", c.ExportFormat, strings.Join(exportFormats, ", "))
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level %q (want one of %s)", c.LogLevel, strings.Join(logLevels, ", "))
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// IsViewable reports whether a file type is one the viewer can open.
func (c *Config) IsViewable(fileType string) bool {
	return slices.Contains(c.Extensions, strings.ToLower(fileType))
}
