package timeline

import (
	"github.com/dgallion1/doctimeline/internal/alias"
	"github.com/dgallion1/doctimeline/internal/ref"
)

// SubmoduleNode is one (chunk, submodule) pair placed in the forest. The same
// pair reached along two paths yields two nodes.
type SubmoduleNode struct {
	Chunk     *Chunk
	Index     int
	Children  []*SubmoduleNode
	Important bool
	Group     string

	forest *Forest
	stats  *NodeStats
	total  *Rollup
}

// Pair returns the node's identity.
func (n *SubmoduleNode) Pair() alias.Pair {
	return alias.Pair{Name: n.Chunk.Name, Index: n.Index}
}

// ID is the display id, "name (II)".
func (n *SubmoduleNode) ID() string {
	return ref.DisplayID(n.Chunk.Name, n.Index)
}

// DiagramID is ID made safe for diagram identifiers.
func (n *SubmoduleNode) DiagramID() string {
	return ref.SanitizeID(n.ID())
}

// Label is the chunk title with the submodule ordinal.
func (n *SubmoduleNode) Label() string {
	return ref.DisplayID(n.Chunk.Title, n.Index)
}

// Anchor is the anchor the node links back to.
func (n *SubmoduleNode) Anchor() string {
	if len(n.Chunk.Anchors) == 0 {
		return ""
	}
	return n.Chunk.Anchors[len(n.Chunk.Anchors)-1]
}

// SetImportant marks the node and its whole subtree.
func (n *SubmoduleNode) SetImportant() {
	n.Important = true
	for _, c := range n.Children {
		if !c.Important {
			c.SetImportant()
		}
	}
}

// Walk visits n and its descendants depth first.
func (n *SubmoduleNode) Walk(fn func(*SubmoduleNode)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
