package doctree

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Anchors  []string   // Structural ids the section can be linked by
	Text     string     // One logical line per line; list items as "- item"
	Page     int        // Source page/line (0 if N/A)
	Children []*DocNode // Subsections
}

// Anchor returns the section's single anchor, or "" when it has none or
// more than one.
func (n *DocNode) Anchor() string {
	if len(n.Anchors) != 1 {
		return ""
	}
	return n.Anchors[0]
}

// Walk visits every node depth first. fn receives the node and its parent
// section, nil at the top level; returning false skips the node's children.
func (t *DocTree) Walk(fn func(n, parent *DocNode) bool) {
	var walk func(n, parent *DocNode)
	walk = func(n, parent *DocNode) {
		if !fn(n, parent) {
			return
		}
		for _, c := range n.Children {
			walk(c, n)
		}
	}
	for _, c := range t.Children {
		walk(c, nil)
	}
}
