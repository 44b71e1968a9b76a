package membership

import (
	"fmt"

	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
)

// Groupset is the input/output vocabulary of one inference engine: an
// ordered collection of groups keyed by name.
type Groupset struct {
	groups []*Group
	index  map[string]*Group
}

// NewGroupset builds a groupset; group names must be unique.
func NewGroupset(groups []*Group) (*Groupset, error) {
	s := &Groupset{
		groups: make([]*Group, 0, len(groups)),
		index:  make(map[string]*Group, len(groups)),
	}
	for _, g := range groups {
		if _, dup := s.index[g.Name()]; dup {
			return nil, fmt.Errorf("membership: duplicate group %q: %w",
				g.Name(), fuzzerr.ErrConfiguration)
		}
		s.groups = append(s.groups, g)
		s.index[g.Name()] = g
	}
	return s, nil
}

// Group looks a group up by name.
func (s *Groupset) Group(name string) (*Group, error) {
	g, ok := s.index[name]
	if !ok {
		return nil, fmt.Errorf("membership: group %q: %w", name, fuzzerr.ErrLookup)
	}
	return g, nil
}

// Groups returns the groups in insertion order.
func (s *Groupset) Groups() []*Group {
	out := make([]*Group, len(s.groups))
	copy(out, s.groups)
	return out
}

// Copy deep-copies the groupset, its groups and their functions.
func (s *Groupset) Copy() *Groupset {
	groups := make([]*Group, len(s.groups))
	for i, g := range s.groups {
		groups[i] = g.copyGroup()
	}
	dup, _ := NewGroupset(groups) // names already unique
	return dup
}

// Replace swaps the named group for g, or appends g when the name is new.
// Used by approximation and conversion to rebuild output vocabularies.
func (s *Groupset) Replace(g *Group) {
	if _, ok := s.index[g.Name()]; ok {
		for i, old := range s.groups {
			if old.Name() == g.Name() {
				s.groups[i] = g
				break
			}
		}
	} else {
		s.groups = append(s.groups, g)
	}
	s.index[g.Name()] = g
}
