package membership

import (
	"fmt"

	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
	"github.com/ericzander/hotfis/pkg/hotfis/values"
)

// Group is a named, ordered collection of membership functions sharing a
// domain interval. The domain bounds Mamdani discretization and centroid
// defuzzification.
type Group struct {
	name  string
	min   float64
	max   float64
	fns   []*Func
	index map[string]*Func
}

// NewGroup builds a group. The domain must satisfy min < max and function
// names must be unique within the group.
func NewGroup(name string, min, max float64, fns []*Func) (*Group, error) {
	if min >= max {
		return nil, fmt.Errorf("membership: group %q domain [%v, %v] is empty: %w",
			name, min, max, fuzzerr.ErrConfiguration)
	}
	g := &Group{
		name:  name,
		min:   min,
		max:   max,
		fns:   make([]*Func, 0, len(fns)),
		index: make(map[string]*Func, len(fns)),
	}
	for _, f := range fns {
		if _, dup := g.index[f.Name()]; dup {
			return nil, fmt.Errorf("membership: group %q has duplicate function %q: %w",
				name, f.Name(), fuzzerr.ErrConfiguration)
		}
		g.fns = append(g.fns, f)
		g.index[f.Name()] = f
	}
	return g, nil
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Domain returns the (min, max) interval.
func (g *Group) Domain() (float64, float64) { return g.min, g.max }

// Func looks a function up by name.
func (g *Group) Func(name string) (*Func, error) {
	f, ok := g.index[name]
	if !ok {
		return nil, fmt.Errorf("membership: function %q in group %q: %w",
			name, g.name, fuzzerr.ErrLookup)
	}
	return f, nil
}

// Funcs returns the functions in insertion order.
func (g *Group) Funcs() []*Func {
	out := make([]*Func, len(g.fns))
	copy(out, g.fns)
	return out
}

// EvaluateAll returns the membership of x to every function in the group,
// keyed by function name. TSK output functions are skipped: they carry no
// membership to report.
func (g *Group) EvaluateAll(x values.Value) (map[string]values.Value, error) {
	out := make(map[string]values.Value, len(g.fns))
	for _, f := range g.fns {
		if f.Kind() == KindTSK {
			continue
		}
		v, err := f.Evaluate(x)
		if err != nil {
			return nil, err
		}
		out[f.Name()] = v
	}
	return out, nil
}

// copyGroup duplicates the group and its functions.
func (g *Group) copyGroup() *Group {
	fns := make([]*Func, len(g.fns))
	for i, f := range g.fns {
		fns[i] = f.copyFunc()
	}
	dup, _ := NewGroup(g.name, g.min, g.max, fns) // inputs already validated
	return dup
}
