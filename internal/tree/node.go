// Package tree models a file/folder tree, its per-node expansion state and
// the flat list of lines it renders to.
package tree

import (
	"strconv"
	"strings"
	"time"
)

type NodeType string

const (
	Folder NodeType = "folder"
	File   NodeType = "file"
)

// Node is one entry of the tree. Folders own an ordered list of children;
// files have none. Children order is display order.
type Node struct {
	Name       string    `json:"name" yaml:"name"`
	Type       NodeType  `json:"type" yaml:"type"`
	FileType   string    `json:"fileType,omitempty" yaml:"fileType,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitzero" yaml:"createdAt,omitempty"`
	ModifiedBy string    `json:"modifiedBy,omitempty" yaml:"modifiedBy,omitempty"`
	Size       int64     `json:"size,omitempty" yaml:"size,omitempty"`
	Source     string    `json:"source,omitempty" yaml:"source,omitempty"`
	Children   []*Node   `json:"children,omitempty" yaml:"children,omitempty"`
}

func NewFolder(name string, children ...*Node) *Node {
	if children == nil {
		children = []*Node{}
	}
	return &Node{Name: name, Type: Folder, Children: children}
}

func NewFile(name, fileType string) *Node {
	return &Node{Name: name, Type: File, FileType: fileType}
}

func (n *Node) IsFolder() bool { return n.Type == Folder }

// Normalize repairs a tree decoded from outside: folders get a non-nil
// children slice, files lose any children, and nil children are dropped.
// An unknown type is treated as a file.
func Normalize(n *Node) {
	if n == nil {
		return
	}
	if n.Type != Folder {
		n.Type = File
		n.Children = nil
		return
	}

	kept := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		Normalize(c)
		kept = append(kept, c)
	}
	n.Children = kept
}

// Count returns the number of folders and files in the tree rooted at n,
// n included.
func Count(n *Node) (folders, files int) {
	if n == nil {
		return 0, 0
	}
	if !n.IsFolder() {
		return 0, 1
	}
	folders = 1
	for _, c := range n.Children {
		fo, fi := Count(c)
		folders += fo
		files += fi
	}
	return folders, files
}

// ID is the position of a node in its tree: "/" for the root, "/0/2" for the
// third child of the root's first child.
type ID string

const RootID ID = "/"

// Child returns the ID of the i-th child of id.
func (id ID) Child(i int) ID {
	if id == RootID {
		return ID("/" + strconv.Itoa(i))
	}
	return ID(string(id) + "/" + strconv.Itoa(i))
}

// Parent returns the ID of the enclosing folder; the root is its own parent.
func (id ID) Parent() ID {
	i := strings.LastIndexByte(string(id), '/')
	if i <= 0 {
		return RootID
	}
	return id[:i]
}

// Depth is the number of steps from the root.
func (id ID) Depth() int {
	if id == RootID {
		return 0
	}
	return strings.Count(string(id), "/")
}

func (id ID) indexes() ([]int, bool) {
	if id == RootID {
		return nil, true
	}
	if !strings.HasPrefix(string(id), "/") {
		return nil, false
	}
	parts := strings.Split(string(id)[1:], "/")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

// Find resolves id against root, or returns nil.
func Find(root *Node, id ID) *Node {
	idx, ok := id.indexes()
	if !ok || root == nil {
		return nil
	}
	n := root
	for _, i := range idx {
		if i >= len(n.Children) || n.Children[i] == nil {
			return nil
		}
		n = n.Children[i]
	}
	return n
}
