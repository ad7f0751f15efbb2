package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"csvtree/internal/dataset"
	"csvtree/internal/walker"
)

// Build turns a directory walk into a node tree rooted at rootPath.
// Within each folder, subfolders come first, then files, each group sorted
// by name case-insensitively for deterministic ordering.
func Build(rootPath string, result *walker.WalkResult) (*Node, error) {
	cleanRoot := filepath.Clean(rootPath)

	root := NewFolder(filepath.Base(cleanRoot))
	root.Source = absPath(cleanRoot)
	if info, err := os.Stat(cleanRoot); err == nil {
		root.CreatedAt = info.ModTime()
	}

	folders := map[string]*Node{cleanRoot: root}

	// WalkDir visits in lexical order, so a parent is always seen before its
	// children
	for _, d := range result.Dirs {
		path := filepath.Clean(d.Path)
		parent, ok := folders[filepath.Dir(path)]
		if !ok {
			return nil, fmt.Errorf("folder %s has no parent in walk of %s", path, cleanRoot)
		}

		n := NewFolder(filepath.Base(path))
		n.CreatedAt = d.ModTime
		n.ModifiedBy = d.Owner
		n.Source = absPath(path)
		parent.Children = append(parent.Children, n)
		folders[path] = n
	}

	for _, f := range result.Files {
		path := filepath.Clean(f.Path)
		parent, ok := folders[filepath.Dir(path)]
		if !ok {
			return nil, fmt.Errorf("file %s has no parent in walk of %s", path, cleanRoot)
		}

		n := NewFile(filepath.Base(path), dataset.FileType(path))
		n.CreatedAt = f.ModTime
		n.ModifiedBy = f.Owner
		n.Size = f.Size
		n.Source = absPath(path)
		parent.Children = append(parent.Children, n)
	}

	sortChildren(root)
	return root, nil
}

// BuildDir walks rootPath and builds its tree.
func BuildDir(rootPath string, exclusions []string) (*Node, *walker.WalkResult, error) {
	result, err := walker.Walk(rootPath, exclusions)
	if err != nil {
		return nil, nil, err
	}

	root, err := Build(rootPath, result)
	if err != nil {
		return nil, nil, err
	}
	return root, result, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func sortChildren(n *Node) {
	slices.SortStableFunc(n.Children, func(a, b *Node) int {
		if a.IsFolder() != b.IsFolder() {
			if a.IsFolder() {
				return -1
			}
			return 1
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	for _, c := range n.Children {
		if c.IsFolder() {
			sortChildren(c)
		}
	}
}
