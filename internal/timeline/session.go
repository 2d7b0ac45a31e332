// Package timeline holds the chunks declared across a set of documents and
// resolves them into a dependency forest with rolled-up progress statistics.
package timeline

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgallion1/doctimeline/internal/alias"
	"github.com/dgallion1/doctimeline/internal/ref"
)

var (
	ErrMissingAnchor       = errors.New("section has no anchor")
	ErrNonUniqueAnchor     = errors.New("section has more than one anchor")
	ErrDuplicateChunk      = errors.New("chunk declared by two sections")
	ErrNoRootsFound        = errors.New("no root chunks found")
	ErrCyclicDependency    = errors.New("cyclic dependency")
	ErrUnresolvedSubmodule = errors.New("unresolved submodule")
)

// SectionRef locates the document section a directive was declared in.
type SectionRef struct {
	DocID        string
	Title        string
	AnchorIDs    []string
	ParentAnchor string
}

// Group binds a label to the section a task-group was declared in.
type Group struct {
	Label           string
	DocID           string
	ContainerAnchor string
}

// Contains reports whether c is declared directly below the group's section.
// Deeper descendants are not members.
func (g Group) Contains(c *Chunk) bool {
	if g.ContainerAnchor == "" {
		return false
	}
	return c.DocID == g.DocID && c.ParentAnchor == g.ContainerAnchor
}

type groupKey struct {
	docID string
	label string
}

// Session is the chunk registry for one build. It is not safe for
// concurrent use.
type Session struct {
	chunks  map[string]*Chunk
	groups  map[groupKey]Group
	aliases *alias.Table
	log     *slog.Logger
}

// NewSession returns an empty session.
func NewSession(log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		chunks: make(map[string]*Chunk),
		groups: make(map[groupKey]Group),
		log:    log,
	}
}

// ChunkFor returns the chunk defined by sec, creating it on first use. The
// section must carry exactly one anchor.
func (s *Session) ChunkFor(sec SectionRef) (*Chunk, error) {
	anchor, err := sectionAnchor(sec)
	if err != nil {
		return nil, err
	}

	name := ref.Slugify(sec.Title)
	if name == "" || name == "-" {
		name = anchor
	}
	if c, ok := s.chunks[name]; ok {
		if c.DocID != sec.DocID || c.Anchors[0] != anchor {
			return nil, fmt.Errorf("%w: %q (%s#%s and %s#%s)", ErrDuplicateChunk,
				sec.Title, c.DocID, c.Anchors[0], sec.DocID, anchor)
		}
		return c, nil
	}

	c := s.Define(name, sec.Title, sec.DocID)
	c.Anchors = []string{anchor}
	c.ParentAnchor = sec.ParentAnchor
	return c, nil
}

func sectionAnchor(sec SectionRef) (string, error) {
	switch len(sec.AnchorIDs) {
	case 0:
		return "", fmt.Errorf("%w: %q in %s", ErrMissingAnchor, sec.Title, sec.DocID)
	case 1:
		return sec.AnchorIDs[0], nil
	default:
		return "", fmt.Errorf("%w: %q in %s has %v", ErrNonUniqueAnchor, sec.Title, sec.DocID, sec.AnchorIDs)
	}
}

// Define registers a chunk under the given canonical name, or returns the
// existing one.
func (s *Session) Define(name, title, docID string) *Chunk {
	if c, ok := s.chunks[name]; ok {
		return c
	}
	c := &Chunk{Name: name, Title: title, DocID: docID, session: s}
	s.chunks[name] = c
	s.aliases = nil
	return c
}

// Chunk returns the chunk with canonical name, if any.
func (s *Session) Chunk(name string) (*Chunk, bool) {
	c, ok := s.chunks[name]
	return c, ok
}

// Chunks returns every chunk sorted by canonical name.
func (s *Session) Chunks() []*Chunk {
	out := make([]*Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AddGroup declares a task group. Within one document a later declaration
// of the same label replaces the earlier one; the same label in different
// documents names the members of both.
func (s *Session) AddGroup(g Group) {
	s.groups[groupKey{g.DocID, g.Label}] = g
	s.aliases = nil
}

// GroupFor declares a task group labelled label on the section sec. The
// section must carry exactly one anchor.
func (s *Session) GroupFor(sec SectionRef, label string) (Group, error) {
	anchor, err := sectionAnchor(sec)
	if err != nil {
		return Group{}, err
	}
	g := Group{Label: label, DocID: sec.DocID, ContainerAnchor: anchor}
	s.AddGroup(g)
	return g, nil
}

// Groups returns the declared groups sorted by label, then document.
func (s *Session) Groups() []Group {
	out := make([]Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].DocID < out[j].DocID
	})
	return out
}

// Purge drops every chunk and group declared by docID and returns how many
// chunks were removed.
func (s *Session) Purge(docID string) int {
	removed := 0
	for name, c := range s.chunks {
		if c.DocID == docID {
			delete(s.chunks, name)
			removed++
		}
	}
	for k := range s.groups {
		if k.docID == docID {
			delete(s.groups, k)
		}
	}
	s.aliases = nil
	s.log.Debug("purged document", "doc_id", docID, "chunks", removed)
	return removed
}

// Aliases returns the alias table, rebuilding it if any chunk or group
// changed since the last call.
func (s *Session) Aliases() *alias.Table {
	if s.aliases != nil {
		return s.aliases
	}
	t := alias.NewTable()
	groups := s.Groups()
	for _, c := range s.Chunks() {
		c.ContributeAliases(t, groups)
	}
	s.aliases = t
	return t
}
