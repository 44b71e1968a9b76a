// Package fis binds a membership groupset to a ruleset and evaluates it:
// raw membership lookups, Mamdani fuzzification and centroid
// defuzzification, zeroth-order Takagi-Sugeno-Kang output, and approximate
// conversion between the two representations.
package fis

import (
	"fmt"

	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
	"github.com/ericzander/hotfis/pkg/hotfis/membership"
	"github.com/ericzander/hotfis/pkg/hotfis/rules"
	"github.com/ericzander/hotfis/pkg/hotfis/values"
)

// DefaultMamdaniPoints is the default sample resolution for Mamdani
// output curves.
const DefaultMamdaniPoints = 100

// Options configures an engine at construction. There is no module-level
// mutable state; every default is resolved here.
type Options struct {
	// MamdaniPoints is the number of samples taken over an output
	// group's domain when building Mamdani curves. Zero means
	// DefaultMamdaniPoints.
	MamdaniPoints int
}

// Engine is one fuzzy inference system. Immutable after construction.
type Engine struct {
	groupset *membership.Groupset
	ruleset  *rules.Ruleset
	points   int
}

// New binds a groupset and ruleset, validating that every group and
// function the rules reference resolves, and that no TSK output function
// appears as an antecedent.
func New(gs *membership.Groupset, rs *rules.Ruleset, opts ...Options) (*Engine, error) {
	points := DefaultMamdaniPoints
	if len(opts) > 0 && opts[0].MamdaniPoints > 0 {
		points = opts[0].MamdaniPoints
	}

	for _, r := range rs.Rules() {
		for _, ant := range r.Antecedents() {
			f, err := resolve(gs, ant)
			if err != nil {
				return nil, err
			}
			if f.Kind() == membership.KindTSK {
				return nil, fmt.Errorf("fis: tsk function %q.%q used as antecedent in rule %q: %w",
					ant.Group, ant.Fn, r.Text(), fuzzerr.ErrConfiguration)
			}
		}
		if _, err := resolve(gs, r.Consequent()); err != nil {
			return nil, err
		}
	}

	return &Engine{groupset: gs, ruleset: rs, points: points}, nil
}

// Groupset returns the engine's membership vocabulary.
func (e *Engine) Groupset() *membership.Groupset { return e.groupset }

// Ruleset returns the engine's rules.
func (e *Engine) Ruleset() *rules.Ruleset { return e.ruleset }

// MamdaniPoints returns the configured sample resolution.
func (e *Engine) MamdaniPoints() int { return e.points }

// EvalMembership evaluates every required input group's full membership
// vector for the given inputs: group name → function name → degree.
func (e *Engine) EvalMembership(inputs map[string]values.Value) (map[string]map[string]values.Value, error) {
	if err := checkShapes(inputs); err != nil {
		return nil, err
	}
	out := make(map[string]map[string]values.Value)
	for _, name := range e.ruleset.InputNames() {
		x, ok := inputs[name]
		if !ok {
			return nil, fmt.Errorf("fis: input group %q: %w", name, fuzzerr.ErrMissingInput)
		}
		g, err := e.groupset.Group(name)
		if err != nil {
			return nil, err
		}
		memb, err := g.EvaluateAll(x)
		if err != nil {
			return nil, err
		}
		out[name] = memb
	}
	return out, nil
}

// lookup builds the membership-lookup callback rules evaluate through.
func (e *Engine) lookup(inputs map[string]values.Value) rules.Lookup {
	return func(group, fn string) (values.Value, error) {
		x, ok := inputs[group]
		if !ok {
			return values.Value{}, fmt.Errorf("fis: input group %q: %w",
				group, fuzzerr.ErrMissingInput)
		}
		g, err := e.groupset.Group(group)
		if err != nil {
			return values.Value{}, err
		}
		f, err := g.Func(fn)
		if err != nil {
			return values.Value{}, err
		}
		return f.Evaluate(x)
	}
}

func resolve(gs *membership.Groupset, ref rules.Ref) (*membership.Func, error) {
	g, err := gs.Group(ref.Group)
	if err != nil {
		return nil, err
	}
	return g.Func(ref.Fn)
}

func checkShapes(inputs map[string]values.Value) error {
	vs := make([]values.Value, 0, len(inputs))
	for _, v := range inputs {
		vs = append(vs, v)
	}
	if _, ok := values.Broadcastable(vs...); !ok {
		return fmt.Errorf("fis: input arrays do not share a common shape: %w",
			fuzzerr.ErrConfiguration)
	}
	return nil
}

// linspace samples n evenly spaced points over [min, max] inclusive.
func linspace(min, max float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = min
		return out
	}
	step := (max - min) / float64(n-1)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	return out
}
