// Package extract finds timeline directives in a parsed document and replays
// them into a timeline session.
package extract

import (
	"regexp"
	"strings"

	"github.com/dgallion1/doctimeline/internal/doctree"
	"github.com/dgallion1/doctimeline/internal/timeline"
)

// Kind names a directive.
type Kind string

const (
	KindRequestedTime  Kind = "requested-time"
	KindDependentTasks Kind = "dependent-tasks"
	KindWorkedOn       Kind = "worked-on"
	KindTaskGroup      Kind = "task-group"
	KindTaskTable      Kind = "task-table"
)

const (
	milestonesTitle = "milestones"
	deadlinesTitle  = "deadlines"
)

var directiveRe = regexp.MustCompile(
	`(?i)^(requested-time|dependent-tasks|worked-on|task-group|task-table)\s*(?:\(\s*([^)]*?)\s*\))?\s*:\s*(.*)$`)

// Directive is one directive occurrence. Values holds the inline value, or
// the list items that follow a directive with no inline value.
type Directive struct {
	Kind     Kind
	Section  timeline.SectionRef
	Selector string // roman numeral in parentheses, "" when absent
	Values   []string
}

// Declarations is everything one document declares.
type Declarations struct {
	DocID      string
	Title      string
	Directives []Directive
	Milestones []string // raw citation items
	Deadlines  []string

	MilestoneSections int
	DeadlineSections  int
}

// HasTimeline reports whether the document declares milestones or deadlines.
func (d *Declarations) HasTimeline() bool {
	return d.MilestoneSections > 0 || d.DeadlineSections > 0
}

// Count returns the number of directives of kind k.
func (d *Declarations) Count(k Kind) int {
	n := 0
	for _, dir := range d.Directives {
		if dir.Kind == k {
			n++
		}
	}
	return n
}

// FromTree collects the directives of every section of tree in document
// order. Items listed under a section titled "Milestones" or "Deadlines" are
// citations, not directives.
func FromTree(docID string, tree *doctree.DocTree) *Declarations {
	d := &Declarations{DocID: docID, Title: tree.Title}
	tree.Walk(func(n, parent *doctree.DocNode) bool {
		switch strings.ToLower(strings.TrimSpace(n.Title)) {
		case milestonesTitle:
			d.MilestoneSections++
			d.Milestones = append(d.Milestones, listItems(n.Text)...)
			return true
		case deadlinesTitle:
			d.DeadlineSections++
			d.Deadlines = append(d.Deadlines, listItems(n.Text)...)
			return true
		}

		sec := timeline.SectionRef{
			DocID:     docID,
			Title:     n.Title,
			AnchorIDs: n.Anchors,
		}
		if parent != nil {
			sec.ParentAnchor = parent.Anchor()
		}
		d.Directives = append(d.Directives, scan(n.Text, sec)...)
		return true
	})
	return d
}

// scan finds directive lines in a section's text.
func scan(text string, sec timeline.SectionRef) []Directive {
	lines := strings.Split(text, "\n")
	var out []Directive
	for i := 0; i < len(lines); i++ {
		m := directiveRe.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil {
			continue
		}
		dir := Directive{
			Kind:     Kind(strings.ToLower(m[1])),
			Section:  sec,
			Selector: m[2],
		}
		if v := strings.TrimSpace(m[3]); v != "" {
			dir.Values = []string{v}
			out = append(out, dir)
			continue
		}

		// Block form: the list right below the directive.
		j := i + 1
		for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
			j++
		}
		for ; j < len(lines); j++ {
			item, ok := listItem(lines[j])
			if !ok {
				break
			}
			dir.Values = append(dir.Values, item)
			i = j
		}
		out = append(out, dir)
	}
	return out
}

// listItems returns the "- item" lines of text.
func listItems(text string) []string {
	var items []string
	for _, l := range strings.Split(text, "\n") {
		if item, ok := listItem(l); ok {
			items = append(items, item)
		}
	}
	return items
}

func listItem(line string) (string, bool) {
	item, ok := strings.CutPrefix(strings.TrimSpace(line), "- ")
	if !ok {
		return "", false
	}
	item = strings.TrimSpace(item)
	return item, item != ""
}
