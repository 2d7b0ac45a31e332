package timeline

import (
	"fmt"

	"github.com/dgallion1/doctimeline/internal/alias"
	"github.com/dgallion1/doctimeline/internal/ref"
)

// Marker is a resolved milestone or deadline.
type Marker struct {
	Group   string       `json:"group"` // diagram group id, "Milestone0"
	Label   string       `json:"label"` // display label, "Milestone 1"
	Color   string       `json:"color"`
	Cited   ref.Citation `json:"cited"`
	Summary Summary      `json:"summary"`
}

const (
	milestoneColor = "#aaaaaa"
	deadlineColor  = "#bbbbbb"
)

// ResolveMilestones rolls up each milestone's cited submodules and marks
// their prerequisite chains important. Each citation must name exactly one
// chunk.
func (f *Forest) ResolveMilestones(items []ref.Citation) ([]Marker, error) {
	markers := make([]Marker, 0, len(items))
	for i, c := range items {
		m := Marker{
			Group: fmt.Sprintf("Milestone%d", i),
			Label: fmt.Sprintf("Milestone %d", i+1),
			Color: milestoneColor,
			Cited: c,
		}
		r, err := f.collect(c, m.Group, true)
		if err != nil {
			return nil, fmt.Errorf("milestone %d: %w", i+1, err)
		}
		m.Summary = Finalize(m.Label, r, f.Now)
		markers = append(markers, m)
	}
	return markers, nil
}

// ResolveDeadlines rolls up each deadline's cited submodules.
func (f *Forest) ResolveDeadlines(items []ref.Citation) ([]Marker, error) {
	markers := make([]Marker, 0, len(items))
	for i, c := range items {
		m := Marker{
			Group: fmt.Sprintf("Deadline%d", i),
			Label: fmt.Sprintf("Deadline %d", i+1),
			Color: deadlineColor,
			Cited: c,
		}
		if !c.Date.IsZero() {
			m.Label = "Deadline " + c.Date.Format("2006-01-02")
		}
		r, err := f.collect(c, m.Group, false)
		if err != nil {
			return nil, fmt.Errorf("deadline %d: %w", i+1, err)
		}
		m.Summary = Finalize(m.Label, r, f.Now)
		markers = append(markers, m)
	}
	return markers, nil
}

// Total rolls up every root of the forest.
func (f *Forest) Total(label string) Summary {
	r := NewRollup()
	for _, n := range f.Roots {
		r.Merge(n.TotalStats())
	}
	return Finalize(label, r, f.Now)
}

func (f *Forest) collect(c ref.Citation, group string, important bool) (*Rollup, error) {
	pairs, err := f.aliases.Resolve(c.Ref, false)
	if err != nil {
		return nil, err
	}
	chunk, ok := f.session.chunks[pairs[0].Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", alias.ErrUnknownReference, c.Ref)
	}

	subs := c.Submodules
	if len(subs) == 0 {
		for i := 0; i < chunk.NumSubmodules(); i++ {
			subs = append(subs, i)
		}
	}

	r := NewRollup()
	for _, idx := range subs {
		n, err := chunk.Submodule(idx, f)
		if err != nil {
			return nil, err
		}
		r.Merge(n.TotalStats())
		for _, inst := range f.instances[n.Pair()] {
			if important {
				inst.SetImportant()
			}
			inst.Group = group
		}
	}
	return r, nil
}
