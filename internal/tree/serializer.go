package tree

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk form of a tree.
type Manifest struct {
	Generator string    `json:"generator" yaml:"generator"`
	Created   time.Time `json:"created" yaml:"created"`
	Size      string    `json:"size,omitempty" yaml:"size,omitempty"`
	Tree      *Node     `json:"tree" yaml:"tree"`
}

// IsManifest reports whether path names a file Load can read.
func IsManifest(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// FormatSize renders a byte count for display.
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// TotalSize sums the sizes of every file under n.
func TotalSize(n *Node) int64 {
	if n == nil {
		return 0
	}
	if !n.IsFolder() {
		return n.Size
	}
	var total int64
	for _, c := range n.Children {
		total += TotalSize(c)
	}
	return total
}

// Save writes root as a manifest, YAML when path ends in .yaml or .yml and
// JSON otherwise.
func Save(root *Node, path string) error {
	manifest := Manifest{
		Generator: "csvtree",
		Created:   time.Now(),
		Size:      FormatSize(TotalSize(root)),
		Tree:      root,
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(manifest)
	} else {
		data, err = json.MarshalIndent(manifest, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal tree: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Load reads a manifest written by Save, or one written by hand. Relative
// Source paths resolve against the manifest's directory.
func Load(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var manifest Manifest
	if isYAML(path) {
		err = yaml.Unmarshal(data, &manifest)
	} else {
		err = json.Unmarshal(data, &manifest)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal tree: %w", err)
	}

	if manifest.Tree == nil {
		return nil, fmt.Errorf("manifest %s has no tree", path)
	}

	Normalize(manifest.Tree)
	resolveSources(manifest.Tree, filepath.Dir(path))
	return manifest.Tree, nil
}

func resolveSources(n *Node, base string) {
	if n.Source != "" && !filepath.IsAbs(n.Source) {
		n.Source = filepath.Join(base, n.Source)
	}
	for _, c := range n.Children {
		resolveSources(c, base)
	}
}
