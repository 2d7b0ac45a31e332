// Package alias maps the names authors type in cross-references to the
// canonical chunks they denote.
package alias

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/dgallion1/doctimeline/internal/ref"
)

var (
	ErrUnknownReference   = errors.New("unknown reference")
	ErrAmbiguousReference = errors.New("ambiguous reference")
)

// Target is one chunk an alias may denote.
type Target struct {
	Name       string // canonical chunk name
	Submodules int
}

// Pair identifies one submodule of one chunk.
type Pair struct {
	Name  string
	Index int
}

// ID renders the pair as "name (III)".
func (p Pair) ID() string {
	return ref.DisplayID(p.Name, p.Index)
}

// Table is a lowercase key -> candidate chunks index. Candidates keep the
// order in which they were first registered.
type Table struct {
	entries map[string][]Target
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string][]Target)}
}

// Add registers target under key. Registering the same target twice under a
// key is a no-op.
func (t *Table) Add(key string, target Target) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}
	if slices.Contains(t.entries[key], target) {
		return
	}
	t.entries[key] = append(t.entries[key], target)
}

// Len reports the number of distinct keys.
func (t *Table) Len() int {
	return len(t.entries)
}

// Keys returns every key in sorted order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the candidates for name, trying the lowercase name first
// and its slug second.
func (t *Table) Lookup(name string) ([]Target, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if c, ok := t.entries[key]; ok {
		return slices.Clone(c), nil
	}
	if c, ok := t.entries[ref.Slugify(key)]; ok {
		return slices.Clone(c), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownReference, name)
}

// Resolve turns a reference such as "Parser (I, III)" into submodule pairs.
//
// Without explicit selectors a reference means every submodule of each
// candidate when allowGroups is set, and the first submodule otherwise. When
// allowGroups is false a name matching more than one chunk is an error.
// Explicit indices are returned as written; range checks belong to the
// caller that owns the chunks.
func (t *Table) Resolve(text string, allowGroups bool) ([]Pair, error) {
	name, indices, err := ref.SplitNameAndSubmodules(text)
	if err != nil {
		return nil, err
	}
	candidates, err := t.Lookup(name)
	if err != nil {
		return nil, err
	}
	if !allowGroups && len(candidates) > 1 {
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.Name
		}
		return nil, fmt.Errorf("%w: %q matches %s", ErrAmbiguousReference, text, strings.Join(names, ", "))
	}

	var pairs []Pair
	for _, c := range candidates {
		switch {
		case len(indices) > 0:
			for _, idx := range indices {
				pairs = append(pairs, Pair{Name: c.Name, Index: idx})
			}
		case allowGroups:
			for idx := 0; idx < c.Submodules; idx++ {
				pairs = append(pairs, Pair{Name: c.Name, Index: idx})
			}
		default:
			pairs = append(pairs, Pair{Name: c.Name, Index: 0})
		}
	}
	return pairs, nil
}

// ResolveIDs is Resolve rendered as display ids.
func (t *Table) ResolveIDs(text string, allowGroups bool) ([]string, error) {
	pairs, err := t.Resolve(text, allowGroups)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(pairs))
	for i, p := range pairs {
		ids[i] = p.ID()
	}
	return ids, nil
}
