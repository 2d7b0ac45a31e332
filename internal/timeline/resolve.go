package timeline

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/doctimeline/internal/alias"
)

// CycleError reports the ancestor chain that led back to a node on it.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicDependency }

// NoRootsError lists the candidates when every submodule is somebody's
// prerequisite.
type NoRootsError struct {
	Candidates []string
}

func (e *NoRootsError) Error() string {
	return fmt.Sprintf("all chunks depend on another chunk, likely a cycle (candidates: %s)",
		strings.Join(e.Candidates, ", "))
}

func (e *NoRootsError) Unwrap() error { return ErrNoRootsFound }

// Diagnostic is a dependency edge dropped because its target could not be
// resolved.
type Diagnostic struct {
	Source string `json:"source"` // display id of the declaring submodule
	Ref    string `json:"ref"`
	Err    error  `json:"-"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: dependency %q dropped: %v", d.Source, d.Ref, d.Err)
}

// Forest is the resolved dependency forest of a session at one instant.
type Forest struct {
	Roots       []*SubmoduleNode
	Diagnostics []Diagnostic
	Now         time.Time

	session   *Session
	aliases   *alias.Table
	resolved  map[alias.Pair]*SubmoduleNode   // first node built per pair
	instances map[alias.Pair][]*SubmoduleNode // every node built per pair
	log       *slog.Logger
}

// Resolve builds the dependency forest. Roots are the submodules nobody
// depends on, ordered by (name, index). Unresolvable dependency names are
// dropped with a diagnostic; cycles, a rootless graph and out-of-range
// submodules are errors.
func (s *Session) Resolve(now time.Time) (*Forest, error) {
	f := &Forest{
		Now:       now,
		session:   s,
		aliases:   s.Aliases(),
		resolved:  make(map[alias.Pair]*SubmoduleNode),
		instances: make(map[alias.Pair][]*SubmoduleNode),
		log:       s.log,
	}

	chunks := s.Chunks()
	var candidates []alias.Pair
	referenced := make(map[alias.Pair]bool)
	for _, c := range chunks {
		for i := 0; i < c.NumSubmodules(); i++ {
			candidates = append(candidates, alias.Pair{Name: c.Name, Index: i})
		}
		for _, idx := range c.dependentIndices() {
			if idx >= c.NumSubmodules() {
				return nil, fmt.Errorf("%w: dependencies declared for %s (%d submodules)",
					ErrUnresolvedSubmodule, alias.Pair{Name: c.Name, Index: idx}.ID(), c.NumSubmodules())
			}
			for _, dep := range c.Dependencies(idx) {
				pairs, err := f.aliases.Resolve(dep, true)
				if err != nil {
					// Reported once, during expansion.
					continue
				}
				for _, p := range pairs {
					referenced[p] = true
				}
			}
		}
	}

	var roots []alias.Pair
	for _, p := range candidates {
		if !referenced[p] {
			roots = append(roots, p)
		}
	}
	if len(roots) == 0 && len(candidates) > 0 {
		ids := make([]string, len(candidates))
		for i, p := range candidates {
			ids[i] = p.ID()
		}
		return nil, &NoRootsError{Candidates: ids}
	}
	sort.SliceStable(roots, func(i, j int) bool {
		if roots[i].Name != roots[j].Name {
			return roots[i].Name < roots[j].Name
		}
		return roots[i].Index < roots[j].Index
	})

	for _, p := range roots {
		n, err := f.newNode(p)
		if err != nil {
			return nil, err
		}
		f.Roots = append(f.Roots, n)
	}
	for _, n := range f.Roots {
		if err := f.expand(n, nil); err != nil {
			return nil, err
		}
	}
	if err := f.detectCycles(candidates); err != nil {
		return nil, err
	}
	f.log.Debug("resolved forest", "roots", len(f.Roots), "chunks", len(chunks),
		"diagnostics", len(f.Diagnostics))
	return f, nil
}

// Nodes returns every node built for p, in construction order.
func (f *Forest) Nodes(p alias.Pair) []*SubmoduleNode {
	return f.instances[p]
}

func (f *Forest) newNode(p alias.Pair) (*SubmoduleNode, error) {
	c, ok := f.session.chunks[p.Name]
	if !ok {
		return nil, fmt.Errorf("%w: no chunk %q", ErrUnresolvedSubmodule, p.Name)
	}
	if p.Index < 0 || p.Index >= c.NumSubmodules() {
		return nil, fmt.Errorf("%w: %s has %d submodules", ErrUnresolvedSubmodule, p.ID(), c.NumSubmodules())
	}
	n := &SubmoduleNode{Chunk: c, Index: p.Index, forest: f}
	if _, ok := f.resolved[p]; !ok {
		f.resolved[p] = n
	}
	f.instances[p] = append(f.instances[p], n)
	return n, nil
}

// expand attaches n's prerequisites and recurses. chain holds the ancestors
// of n on the current path.
func (f *Forest) expand(n *SubmoduleNode, chain []alias.Pair) error {
	path := append(slices.Clip(chain), n.Pair())

	for _, dep := range n.Chunk.Dependencies(n.Index) {
		pairs, err := f.aliases.Resolve(dep, true)
		if err != nil {
			if errors.Is(err, alias.ErrUnknownReference) {
				f.diagnose(Diagnostic{Source: n.ID(), Ref: dep, Err: err})
				continue
			}
			return fmt.Errorf("dependency of %s: %w", n.ID(), err)
		}
		for _, p := range pairs {
			if slices.Contains(path, p) {
				ids := make([]string, 0, len(path)+1)
				for _, a := range path {
					ids = append(ids, a.ID())
				}
				return &CycleError{Chain: append(ids, p.ID())}
			}
			child, err := f.newNode(p)
			if err != nil {
				return fmt.Errorf("dependency %q of %s: %w", dep, n.ID(), err)
			}
			n.Children = append(n.Children, child)
		}
	}

	for _, c := range n.Children {
		if err := f.expand(c, path); err != nil {
			return err
		}
	}
	return nil
}

// detectCycles walks the submodules no root reached. Each of them is the
// prerequisite of another unreached submodule, so a cycle is among them.
func (f *Forest) detectCycles(candidates []alias.Pair) error {
	const (
		visiting = 1
		visited  = 2
	)
	state := make(map[alias.Pair]int)

	var visit func(p alias.Pair, path []alias.Pair) error
	visit = func(p alias.Pair, path []alias.Pair) error {
		switch state[p] {
		case visiting:
			loop := path[slices.Index(path, p):]
			ids := make([]string, 0, len(loop)+1)
			for _, a := range loop {
				ids = append(ids, a.ID())
			}
			return &CycleError{Chain: append(ids, p.ID())}
		case visited:
			return nil
		}
		state[p] = visiting
		path = append(slices.Clip(path), p)
		if c, ok := f.session.chunks[p.Name]; ok {
			for _, dep := range c.Dependencies(p.Index) {
				pairs, err := f.aliases.Resolve(dep, true)
				if err != nil {
					continue
				}
				for _, q := range pairs {
					if err := visit(q, path); err != nil {
						return err
					}
				}
			}
		}
		state[p] = visited
		return nil
	}

	for _, p := range candidates {
		if len(f.instances[p]) > 0 {
			continue
		}
		if err := visit(p, nil); err != nil {
			return err
		}
	}
	return nil
}

func (f *Forest) diagnose(d Diagnostic) {
	for _, seen := range f.Diagnostics {
		if seen.Source == d.Source && seen.Ref == d.Ref {
			return
		}
	}
	f.Diagnostics = append(f.Diagnostics, d)
	f.log.Warn("dropped dependency edge", "source", d.Source, "ref", d.Ref, "error", d.Err)
}
