package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgallion1/doctimeline/internal/ref"
	"github.com/dgallion1/doctimeline/internal/timeline"
)

// Timeline is the parsed timeline part of one document.
type Timeline struct {
	DocID      string
	Milestones []ref.Citation
	Deadlines  []ref.Citation
	Tables     []string // chunk references with a breakdown table
}

// Apply replaces everything docID previously declared in s with d. Any parse
// failure aborts the apply and leaves the document purged.
func Apply(s *timeline.Session, d *Declarations, now time.Time, loc *time.Location) (*Timeline, error) {
	s.Purge(d.DocID)
	tl, err := apply(s, d, now, loc)
	if err != nil {
		s.Purge(d.DocID)
		return nil, err
	}
	return tl, nil
}

func apply(s *timeline.Session, d *Declarations, now time.Time, loc *time.Location) (*Timeline, error) {
	tl := &Timeline{DocID: d.DocID}

	for _, dir := range d.Directives {
		switch dir.Kind {
		case KindTaskGroup:
			for _, label := range dir.Values {
				if _, err := s.GroupFor(dir.Section, strings.TrimSpace(label)); err != nil {
					return nil, fmt.Errorf("%s in %q: %w", dir.Kind, dir.Section.Title, err)
				}
			}
			continue
		case KindTaskTable:
			tl.Tables = append(tl.Tables, dir.Values...)
			continue
		}

		c, err := s.ChunkFor(dir.Section)
		if err != nil {
			return nil, fmt.Errorf("%s in %q: %w", dir.Kind, dir.Section.Title, err)
		}
		idx, err := selector(dir.Selector)
		if err != nil {
			return nil, fmt.Errorf("%s in %q: %w", dir.Kind, dir.Section.Title, err)
		}

		switch dir.Kind {
		case KindRequestedTime:
			err = c.SetRequestedTimes(dir.Values)
		case KindDependentTasks:
			err = c.AddDependencies(idx, dir.Values)
		case KindWorkedOn:
			err = c.RecordWorkLog(idx, dir.Values, now, loc)
		}
		if err != nil {
			return nil, fmt.Errorf("%q: %w", dir.Section.Title, err)
		}
	}

	for _, item := range d.Milestones {
		c, err := ref.ParseCitation(item, loc)
		if err != nil {
			return nil, fmt.Errorf("milestone %q: %w", item, err)
		}
		tl.Milestones = append(tl.Milestones, c)
	}
	for _, item := range d.Deadlines {
		c, err := ref.ParseCitation(item, loc)
		if err != nil {
			return nil, fmt.Errorf("deadline %q: %w", item, err)
		}
		tl.Deadlines = append(tl.Deadlines, c)
	}
	return tl, nil
}

// selector converts "II" to 1. An absent selector means the first submodule;
// only the first numeral of a list counts.
func selector(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	first, _, _ := strings.Cut(strings.ReplaceAll(s, ",", " "), " ")
	n, err := ref.FromRoman(first)
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}
