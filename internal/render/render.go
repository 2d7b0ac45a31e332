// Package render turns a session and one document's timeline declarations
// into diagram source and summary tables.
package render

import (
	"fmt"
	"time"

	"github.com/dgallion1/doctimeline/internal/diagram"
	"github.com/dgallion1/doctimeline/internal/extract"
	"github.com/dgallion1/doctimeline/internal/report"
	"github.com/dgallion1/doctimeline/internal/timeline"
)

// TotalLabel labels the row covering every root of the forest.
const TotalLabel = "Total"

// Table is a per-chunk breakdown requested with task-table.
type Table struct {
	Ref  string     `json:"ref"`
	Rows [][]string `json:"rows"`
}

// Result is a rendered timeline.
type Result struct {
	DocID       string                `json:"doc_id"`
	Diagram     string                `json:"diagram"`
	Lines       []string              `json:"lines"`
	Milestones  []timeline.Marker     `json:"milestones"`
	Deadlines   []timeline.Marker     `json:"deadlines"`
	Total       timeline.Summary      `json:"total"`
	Header      []string              `json:"header"`
	Rows        [][]string            `json:"rows"`
	Tables      []Table               `json:"tables"`
	Diagnostics []timeline.Diagnostic `json:"-"`
}

// Warnings returns the diagnostics as display strings.
func (r *Result) Warnings() []string {
	out := make([]string, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		out = append(out, d.String())
	}
	return out
}

// Text renders the summary rows and every breakdown table as fixed-width
// text.
func (r *Result) Text() string {
	out := report.Text(r.Rows)
	for _, t := range r.Tables {
		out += "\n" + t.Ref + "\n" + report.Text(t.Rows)
	}
	return out
}

// Timeline resolves s at now and renders the milestones, deadlines and
// tables declared by tl. A nil tl renders the bare dependency forest.
func Timeline(s *timeline.Session, tl *extract.Timeline, now time.Time) (*Result, error) {
	if tl == nil {
		tl = &extract.Timeline{}
	}
	f, err := s.Resolve(now)
	if err != nil {
		return nil, err
	}

	res := &Result{DocID: tl.DocID, Header: report.Header(), Diagnostics: f.Diagnostics}

	// Markers tag nodes with their group, so they resolve before the lines
	// are built.
	res.Milestones, err = f.ResolveMilestones(tl.Milestones)
	if err != nil {
		return nil, err
	}
	res.Deadlines, err = f.ResolveDeadlines(tl.Deadlines)
	if err != nil {
		return nil, err
	}

	var groups [][]string
	var summaries []timeline.Summary
	for _, m := range append(append([]timeline.Marker(nil), res.Milestones...), res.Deadlines...) {
		groups = append(groups, diagram.GroupBlock(m.Group, m.Label, m.Color))
		summaries = append(summaries, m.Summary)
	}
	res.Total = f.Total(TotalLabel)
	summaries = append(summaries, res.Total)

	res.Lines = diagram.Lines(f, groups)
	res.Diagram = diagram.Source(res.Lines)
	res.Rows = report.Rows(summaries)

	for _, name := range tl.Tables {
		rows, err := ChunkTable(s, f, name)
		if err != nil {
			return nil, err
		}
		res.Tables = append(res.Tables, Table{Ref: name, Rows: rows})
	}
	return res, nil
}

// ChunkTable resolves name to a single chunk and returns its per-submodule
// breakdown rows.
func ChunkTable(s *timeline.Session, f *timeline.Forest, name string) ([][]string, error) {
	pairs, err := s.Aliases().Resolve(name, false)
	if err != nil {
		return nil, fmt.Errorf("task table %q: %w", name, err)
	}
	c, ok := s.Chunk(pairs[0].Name)
	if !ok {
		return nil, fmt.Errorf("task table %q: chunk %s not found", name, pairs[0].Name)
	}
	return report.ChunkTable(c, f)
}
