package tree

// ActivateFunc is called with the file node the user activated.
type ActivateFunc func(*Node)

// Tree pairs an immutable node tree with its expansion state. The state
// lives as long as the Tree; building a new Tree starts fully collapsed.
type Tree struct {
	root       *Node
	expansion  Expansion
	onActivate ActivateFunc
}

func New(root *Node, onActivate ActivateFunc) *Tree {
	return &Tree{
		root:       root,
		expansion:  make(Expansion),
		onActivate: onActivate,
	}
}

func (t *Tree) Root() *Node { return t.root }

// Node resolves id, or returns nil.
func (t *Tree) Node(id ID) *Node { return Find(t.root, id) }

// Expanded reports whether the folder at id is expanded.
func (t *Tree) Expanded(id ID) bool { return t.expansion[id] }

// Toggle flips the expanded flag of the folder at id and returns the new
// state. Other folders keep theirs, so collapsing a parent and opening it
// again shows its subfolders as they were. Non-folders are ignored.
func (t *Tree) Toggle(id ID) bool {
	n := t.Node(id)
	if n == nil || !n.IsFolder() {
		return false
	}
	open := !t.expansion[id]
	if open {
		t.expansion[id] = true
	} else {
		delete(t.expansion, id)
	}
	return open
}

// Activate notifies the callback when id is a file and toggles it when id is
// a folder. It reports whether id named a node.
func (t *Tree) Activate(id ID) bool {
	n := t.Node(id)
	if n == nil {
		return false
	}
	if n.IsFolder() {
		t.Toggle(id)
		return true
	}
	if t.onActivate != nil {
		t.onActivate(n)
	}
	return true
}

// Lines renders the tree under the current expansion state.
func (t *Tree) Lines() []Line { return Render(t.root, t.expansion) }

// ExpandAll opens every folder.
func (t *Tree) ExpandAll() {
	var walk func(n *Node, id ID)
	walk = func(n *Node, id ID) {
		if n == nil || !n.IsFolder() {
			return
		}
		t.expansion[id] = true
		for i, c := range n.Children {
			walk(c, id.Child(i))
		}
	}
	walk(t.root, RootID)
}

// CollapseAll forgets every expanded folder.
func (t *Tree) CollapseAll() {
	clear(t.expansion)
}
