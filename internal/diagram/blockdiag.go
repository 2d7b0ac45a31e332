// Package diagram renders a resolved timeline forest as blockdiag source.
package diagram

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/doctimeline/internal/timeline"
)

const highlight = "red"

// EdgeLines walks root depth first and returns one "child -> parent" line per
// edge. Edges into an important node are colored.
func EdgeLines(root *timeline.SubmoduleNode) []string {
	return appendEdges(nil, root)
}

func appendEdges(lines []string, n *timeline.SubmoduleNode) []string {
	self := n.DiagramID()
	for _, c := range n.Children {
		line := fmt.Sprintf("%s -> %s", c.DiagramID(), self)
		if n.Important {
			line += fmt.Sprintf(` [color = "%s"]`, highlight)
		}
		lines = append(lines, line)
		lines = appendEdges(lines, c)
	}
	return lines
}

// NodeLine formats the node description of n.
func NodeLine(n *timeline.SubmoduleNode) string {
	var opts []string
	if n.Group != "" {
		opts = append(opts, fmt.Sprintf(`group = "%s"`, quote(n.Group)))
	}
	if n.Important {
		opts = append(opts, fmt.Sprintf(`linecolor = "%s"`, highlight))
	}
	opts = append(opts, fmt.Sprintf(`label = "%s"`, quote(n.Label())))
	if a := n.Anchor(); a != "" {
		opts = append(opts, fmt.Sprintf(`href = "#%s"`, quote(a)))
	}
	return fmt.Sprintf("%s [%s]", n.DiagramID(), strings.Join(opts, ", "))
}

// NodeSet collects node descriptions; the same description added from two
// roots is kept once.
type NodeSet map[string]struct{}

// NodeLines adds the description of root and every descendant to set.
func NodeLines(root *timeline.SubmoduleNode, set NodeSet) {
	root.Walk(func(n *timeline.SubmoduleNode) {
		set[NodeLine(n)] = struct{}{}
	})
}

// Sorted returns the descriptions in lexical order.
func (s NodeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// GroupBlock returns the lines declaring a labelled, colored node group.
func GroupBlock(group, label, color string) []string {
	return []string{
		fmt.Sprintf("group %s {", group),
		fmt.Sprintf(`  label = "%s"`, quote(label)),
		fmt.Sprintf(`  color = "%s"`, color),
		"}",
	}
}

// Lines assembles the diagram body for a forest: node descriptions first,
// then the group blocks, then the edges of every root with repeats removed.
func Lines(f *timeline.Forest, groups [][]string) []string {
	nodes := make(NodeSet)
	var edges []string
	seen := make(map[string]bool)
	for _, r := range f.Roots {
		NodeLines(r, nodes)
		for _, e := range EdgeLines(r) {
			if !seen[e] {
				seen[e] = true
				edges = append(edges, e)
			}
		}
	}

	lines := nodes.Sorted()
	for _, g := range groups {
		lines = append(lines, g...)
	}
	return append(lines, edges...)
}

// Source wraps body lines into a complete blockdiag document.
func Source(lines []string) string {
	var sb strings.Builder
	sb.WriteString("blockdiag {\n")
	for _, l := range lines {
		sb.WriteString("\t")
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

func quote(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
