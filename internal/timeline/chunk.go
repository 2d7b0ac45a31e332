package timeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/doctimeline/internal/alias"
	"github.com/dgallion1/doctimeline/internal/ref"
)

// workLog is the accumulated work record of one submodule.
type workLog struct {
	start     time.Time // earliest logged start, zero if none
	minutes   int
	done      float64
	completed time.Time
}

// Chunk is one named unit of work declared by a document section.
type Chunk struct {
	Name         string   // canonical name, the slug of Title
	Title        string
	DocID        string
	Anchors      []string // structural ids the chunk may also be cited by
	ParentAnchor string   // anchor of the enclosing section, "" at top level

	requested []int // minutes per submodule
	deps      map[int][]string
	work      map[int]*workLog

	session *Session
}

// NumSubmodules is the number of requested-time entries.
func (c *Chunk) NumSubmodules() int {
	return len(c.requested)
}

// RequestedMinutes returns the requested minutes of submodule idx.
func (c *Chunk) RequestedMinutes(idx int) (int, error) {
	if idx < 0 || idx >= len(c.requested) {
		return 0, fmt.Errorf("%w: %s", ErrUnresolvedSubmodule, ref.DisplayID(c.Name, idx))
	}
	return c.requested[idx], nil
}

// Dependencies returns the raw reference strings declared for submodule idx.
func (c *Chunk) Dependencies(idx int) []string {
	return c.deps[idx]
}

// SetRequestedTimes replaces the requested durations, one per submodule.
// Nothing changes when any entry fails to parse.
func (c *Chunk) SetRequestedTimes(durations []string) error {
	parsed := make([]int, 0, len(durations))
	for _, d := range durations {
		m, err := ref.ParseDuration(d)
		if err != nil {
			return fmt.Errorf("requested time for %s: %w", c.Name, err)
		}
		parsed = append(parsed, m)
	}
	c.requested = parsed
	c.invalidate()
	return nil
}

// AddDependencies appends prerequisite references to submodule idx. The
// references are checked for syntax here and resolved at Resolve time.
func (c *Chunk) AddDependencies(idx int, refs []string) error {
	for _, r := range refs {
		if _, _, err := ref.SplitNameAndSubmodules(r); err != nil {
			return fmt.Errorf("dependency of %s: %w", ref.DisplayID(c.Name, idx), err)
		}
	}
	if c.deps == nil {
		c.deps = make(map[int][]string)
	}
	for _, r := range refs {
		c.deps[idx] = append(c.deps[idx], strings.TrimSpace(r))
	}
	return nil
}

// RecordWorkLog applies work-log lines to submodule idx: the start keeps the
// earliest date, minutes add up, and the last percentage wins. now stamps a
// completion that carries no date of its own.
func (c *Chunk) RecordWorkLog(idx int, lines []string, now time.Time, loc *time.Location) error {
	entries := make([]ref.WorkLogEntry, 0, len(lines))
	for _, l := range lines {
		e, err := ref.ParseWorkLogLine(l, now, loc)
		if err != nil {
			return fmt.Errorf("worked-on for %s: %w", ref.DisplayID(c.Name, idx), err)
		}
		entries = append(entries, e)
	}

	if c.work == nil {
		c.work = make(map[int]*workLog)
	}
	w, ok := c.work[idx]
	if !ok {
		w = &workLog{}
		c.work[idx] = w
	}
	for _, e := range entries {
		if !e.Start.IsZero() && (w.start.IsZero() || e.Start.Before(w.start)) {
			w.start = e.Start
		}
		w.minutes += e.Minutes
		if e.HasCompleteness {
			w.done = e.Completeness
			w.completed = e.Completed
		}
	}
	return nil
}

// Submodule returns the node for submodule idx within forest f. A pair that
// no root reached is built and expanded on demand; such a node belongs to no
// root and is not part of the diagram walk.
func (c *Chunk) Submodule(idx int, f *Forest) (*SubmoduleNode, error) {
	if idx < 0 || idx >= len(c.requested) {
		return nil, fmt.Errorf("%w: %s has %d submodules", ErrUnresolvedSubmodule,
			ref.DisplayID(c.Name, idx), len(c.requested))
	}
	p := alias.Pair{Name: c.Name, Index: idx}
	if n, ok := f.resolved[p]; ok {
		return n, nil
	}
	n, err := f.newNode(p)
	if err != nil {
		return nil, err
	}
	if err := f.expand(n, nil); err != nil {
		return nil, err
	}
	return n, nil
}

// ContributeAliases registers the chunk under its title, slug, canonical
// name, anchors and every group declared in its direct parent section.
func (c *Chunk) ContributeAliases(t *alias.Table, groups []Group) {
	target := alias.Target{Name: c.Name, Submodules: len(c.requested)}
	t.Add(c.Title, target)
	t.Add(ref.Slugify(c.Title), target)
	t.Add(c.Name, target)
	for _, a := range c.Anchors {
		t.Add(a, target)
	}
	for _, g := range groups {
		if g.Contains(c) {
			t.Add(g.Label, target)
		}
	}
}

// dependentIndices lists the submodules that declare dependencies, sorted.
func (c *Chunk) dependentIndices() []int {
	idx := make([]int, 0, len(c.deps))
	for i := range c.deps {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

func (c *Chunk) invalidate() {
	if c.session != nil {
		c.session.aliases = nil
	}
}

// own returns the raw counters of submodule idx. A submodule without a start
// date counts as started at now.
func (c *Chunk) own(idx int, now time.Time) NodeStats {
	s := NodeStats{Start: now, End: now}
	if idx < len(c.requested) {
		s.RequestedMinutes = c.requested[idx]
	}
	if w, ok := c.work[idx]; ok {
		if !w.start.IsZero() {
			s.Start = w.start
		}
		s.MinutesWorked = w.minutes
		s.Done = w.done
		if !w.completed.IsZero() {
			s.End = w.completed
		}
	}
	s.DaysWorked = days(s.End.Sub(s.Start))
	return s
}
