package fis

import (
	"fmt"

	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
	"github.com/ericzander/hotfis/pkg/hotfis/membership"
	"github.com/ericzander/hotfis/pkg/hotfis/values"
)

// MamdaniOutput is one output group's fuzzified result: the sampled
// domain and the aggregated membership at each sample. Codomain entries
// are elementwise over array inputs.
type MamdaniOutput struct {
	Domain   []float64
	Codomain []values.Value
}

// EvalMamdani evaluates the ruleset with Mamdani implication: each rule's
// firing strength clips (min) its consequent's membership curve, and each
// output group takes the pointwise union (max) of its rules' clipped
// curves.
func (e *Engine) EvalMamdani(inputs map[string]values.Value) (map[string]MamdaniOutput, error) {
	if err := checkShapes(inputs); err != nil {
		return nil, err
	}
	lookup := e.lookup(inputs)

	out := make(map[string]MamdaniOutput)
	for _, r := range e.ruleset.Rules() {
		strength, err := r.Strength(lookup)
		if err != nil {
			return nil, err
		}

		cons := r.Consequent()
		fn, err := resolve(e.groupset, cons)
		if err != nil {
			return nil, err
		}
		if fn.Kind() == membership.KindTSK {
			return nil, fmt.Errorf("fis: tsk function %q.%q cannot be fuzzified in Mamdani evaluation: %w",
				cons.Group, cons.Fn, fuzzerr.ErrConfiguration)
		}

		acc, ok := out[cons.Group]
		if !ok {
			g, err := e.groupset.Group(cons.Group)
			if err != nil {
				return nil, err
			}
			min, max := g.Domain()
			acc = MamdaniOutput{
				Domain:   linspace(min, max, e.points),
				Codomain: make([]values.Value, e.points),
			}
		}

		for i, x := range acc.Domain {
			fv, err := fn.Evaluate(values.Scalar(x))
			if err != nil {
				return nil, err
			}
			clipped, err := values.Min(strength, fv)
			if err != nil {
				return nil, err
			}
			acc.Codomain[i], err = values.Max(acc.Codomain[i], clipped)
			if err != nil {
				return nil, err
			}
		}
		out[cons.Group] = acc
	}
	return out, nil
}

// DefuzzMamdani collapses a fuzzified output to its centroid,
// elementwise over array inputs. When no rule fired (the codomain sums
// to zero) the result is the domain midpoint rather than an error.
func DefuzzMamdani(out MamdaniOutput) (values.Value, error) {
	if len(out.Domain) == 0 || len(out.Domain) != len(out.Codomain) {
		return values.Value{}, fmt.Errorf("fis: malformed mamdani output (%d domain, %d codomain samples): %w",
			len(out.Domain), len(out.Codomain), fuzzerr.ErrConfiguration)
	}
	mid := (out.Domain[0] + out.Domain[len(out.Domain)-1]) / 2

	top := values.Scalar(0)
	bot := values.Scalar(0)
	for i, x := range out.Domain {
		weighted, err := values.Mul(out.Codomain[i], values.Scalar(x))
		if err != nil {
			return values.Value{}, err
		}
		if top, err = values.Add(top, weighted); err != nil {
			return values.Value{}, err
		}
		if bot, err = values.Add(bot, out.Codomain[i]); err != nil {
			return values.Value{}, err
		}
	}
	return values.Div(top, bot, mid)
}
