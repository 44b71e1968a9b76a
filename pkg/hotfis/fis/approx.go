package fis

import (
	"fmt"
	"sort"

	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
	"github.com/ericzander/hotfis/pkg/hotfis/membership"
	"github.com/ericzander/hotfis/pkg/hotfis/rules"
	"github.com/ericzander/hotfis/pkg/hotfis/values"
)

// approxTemplates are the antecedent shapes Mamdani approximation can
// sample. Anything else lacks the (left, center, right) structure the
// sweep relies on.
var approxTemplates = map[string]bool{
	"triangular":  true,
	"trapezoidal": true,
	"leftedge":    true,
	"rightedge":   true,
}

// triple is an antecedent's (leftmost parameter, center, rightmost
// parameter) sample points.
type triple [3]float64

// ApproximateMamdani builds a new engine whose TSK output constants are
// reinterpreted as Mamdani membership functions. Each rule's consequent
// shape is derived by sweeping the rule's antecedents across their
// (left..center, center, center..right) sample ranges, averaging the TSK
// output of each sweep, and sorting the three averages into triangular
// (or edge) parameters. Rules sharing a consequent average their derived
// parameters component-wise.
func (e *Engine) ApproximateMamdani() (*Engine, error) {
	type derived struct {
		sum   triple
		count int
	}
	perConsequent := make(map[rules.Ref]*derived)
	consOrder := make([]rules.Ref, 0)

	for _, r := range e.ruleset.Rules() {
		params, err := e.approxParams(r)
		if err != nil {
			return nil, err
		}

		// Three sweeps: (left, center), (center), (center, right).
		// Each averages TSK output over the cross-product of the
		// participating antecedent samples.
		var outs triple
		bounds := [3][2]int{{0, 2}, {1, 2}, {1, 3}}
		for k, b := range bounds {
			inputs := crossProduct(params, b[0], b[1])
			res, err := e.EvalTSK(inputs)
			if err != nil {
				return nil, err
			}
			outs[k] = res[r.Consequent().Group].Mean()
		}
		sort.Float64s(outs[:])

		d, ok := perConsequent[r.Consequent()]
		if !ok {
			d = &derived{}
			perConsequent[r.Consequent()] = d
			consOrder = append(consOrder, r.Consequent())
		}
		for i := range outs {
			d.sum[i] += outs[i]
		}
		d.count++
	}

	// Build the approximated output functions, grouped by output group.
	groupFns := make(map[string][]*membership.Func)
	groupOrder := make([]string, 0)
	for _, ref := range consOrder {
		d := perConsequent[ref]
		var ps triple
		for i := range ps {
			ps[i] = d.sum[i] / float64(d.count)
		}
		fn, err := approxFunc(ref.Fn, ps)
		if err != nil {
			return nil, err
		}
		if _, ok := groupFns[ref.Group]; !ok {
			groupOrder = append(groupOrder, ref.Group)
		}
		groupFns[ref.Group] = append(groupFns[ref.Group], fn)
	}

	gs := e.groupset.Copy()
	for _, name := range groupOrder {
		fns := groupFns[name]
		min, max := fns[0].Params()[0], fns[0].Params()[0]
		for _, fn := range fns {
			for _, p := range fn.Params() {
				if p < min {
					min = p
				}
				if p > max {
					max = p
				}
			}
		}
		g, err := membership.NewGroup(name, min, max, fns)
		if err != nil {
			return nil, err
		}
		gs.Replace(g)
	}

	return New(gs, e.ruleset, Options{MamdaniPoints: e.points})
}

// approxParams collects the (left, center, right) sample triple for each
// antecedent group the engine's ruleset touches: the rule's own
// antecedents take precedence; groups only other rules reference
// contribute an iteratively averaged default triple.
func (e *Engine) approxParams(r *rules.Rule) (map[string]triple, error) {
	params := make(map[string]triple)
	for _, ant := range r.Antecedents() {
		fn, err := resolve(e.groupset, ant)
		if err != nil {
			return nil, err
		}
		t, err := funcTriple(fn)
		if err != nil {
			return nil, err
		}
		params[ant.Group] = t
	}

	aux := make(map[string]triple)
	for _, other := range e.ruleset.Rules() {
		if other == r {
			continue
		}
		for _, ant := range other.Antecedents() {
			if _, owned := params[ant.Group]; owned {
				continue
			}
			fn, err := resolve(e.groupset, ant)
			if err != nil {
				return nil, err
			}
			t, err := funcTriple(fn)
			if err != nil {
				return nil, err
			}
			if prev, ok := aux[ant.Group]; ok {
				for i := range t {
					t[i] = (prev[i] + t[i]) / 2
				}
			}
			aux[ant.Group] = t
		}
	}
	for g, t := range aux {
		params[g] = t
	}
	return params, nil
}

func funcTriple(fn *membership.Func) (triple, error) {
	if !approxTemplates[fn.Template()] {
		return triple{}, fmt.Errorf("fis: antecedent function %q (%s) does not support Mamdani approximation: %w",
			fn.Name(), fn.Template(), fuzzerr.ErrUnsupportedOperation)
	}
	ps := fn.Params()
	return triple{ps[0], fn.Center(), ps[len(ps)-1]}, nil
}

// crossProduct expands params[group][start:end] into vector inputs
// holding every combination, one column per group.
func crossProduct(params map[string]triple, start, end int) map[string]values.Value {
	groups := make([]string, 0, len(params))
	for g := range params {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	width := end - start
	total := 1
	for range groups {
		total *= width
	}

	inputs := make(map[string]values.Value, len(groups))
	stride := total
	for _, g := range groups {
		stride /= width
		col := make([]float64, total)
		for i := range col {
			col[i] = params[g][start+(i/stride)%width]
		}
		inputs[g] = values.Vector(col)
	}
	return inputs
}

// approxFunc builds the output function for a sorted parameter triple:
// an edge when two parameters coincide, a triangle otherwise.
func approxFunc(name string, ps triple) (*membership.Func, error) {
	switch {
	case ps[0] == ps[1] && ps[1] == ps[2]:
		return nil, fmt.Errorf("fis: approximation for %q degenerated to a point (%v): %w",
			name, ps[0], fuzzerr.ErrUnsupportedOperation)
	case ps[0] == ps[1]:
		return membership.New(name, "leftedge", []float64{ps[1], ps[2]})
	case ps[1] == ps[2]:
		return membership.New(name, "rightedge", []float64{ps[0], ps[1]})
	default:
		return membership.New(name, "triangular", ps[:])
	}
}
