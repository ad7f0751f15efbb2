package tree

import "strings"

// Expansion records which folders are expanded. Folders never toggled have
// no entry and are collapsed.
type Expansion map[ID]bool

type LineKind int

const (
	LineFolder LineKind = iota
	LineFile
	// LineEmpty stands for the contents of an expanded folder with no children.
	LineEmpty
)

// Line is one rendered row of the tree.
type Line struct {
	ID       ID
	Depth    int
	Kind     LineKind
	Node     *Node
	Expanded bool
}

// Render flattens root into display lines. Children of a folder appear only
// while the folder is expanded; an expanded empty folder is followed by one
// LineEmpty line whose ID and Node are the folder's own.
func Render(root *Node, expansion Expansion) []Line {
	if root == nil {
		return nil
	}
	var lines []Line
	render(root, RootID, 0, expansion, &lines)
	return lines
}

func render(n *Node, id ID, depth int, expansion Expansion, lines *[]Line) {
	if !n.IsFolder() {
		*lines = append(*lines, Line{ID: id, Depth: depth, Kind: LineFile, Node: n})
		return
	}

	open := expansion[id]
	*lines = append(*lines, Line{ID: id, Depth: depth, Kind: LineFolder, Node: n, Expanded: open})
	if !open {
		return
	}

	if len(n.Children) == 0 {
		*lines = append(*lines, Line{ID: id, Depth: depth + 1, Kind: LineEmpty, Node: n})
		return
	}
	for i, c := range n.Children {
		if c == nil {
			continue
		}
		render(c, id.Child(i), depth+1, expansion, lines)
	}
}

// EmptyFolderText is shown in place of the children of an empty folder.
const EmptyFolderText = "(empty folder)"

// Text returns the line as indented plain text.
func (l Line) Text() string {
	indent := strings.Repeat("  ", l.Depth)
	switch l.Kind {
	case LineFolder:
		marker := "▸ "
		if l.Expanded {
			marker = "▾ "
		}
		return indent + marker + l.Node.Name + "/"
	case LineEmpty:
		return indent + "  " + EmptyFolderText
	default:
		return indent + "  " + l.Node.Name
	}
}

// Format renders every line as text.
func Format(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text()
	}
	return out
}
