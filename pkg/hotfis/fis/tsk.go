package fis

import (
	"fmt"

	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
	"github.com/ericzander/hotfis/pkg/hotfis/membership"
	"github.com/ericzander/hotfis/pkg/hotfis/values"
)

// EvalTSK evaluates the ruleset with zeroth-order Takagi-Sugeno-Kang
// inference: per output group, the weighted average of the rules'
// consequent constants by firing strength. Where every strength is zero
// the output is 0 rather than NaN.
func (e *Engine) EvalTSK(inputs map[string]values.Value) (map[string]values.Value, error) {
	if err := checkShapes(inputs); err != nil {
		return nil, err
	}
	lookup := e.lookup(inputs)

	type accum struct{ num, den values.Value }
	acc := make(map[string]*accum)
	order := make([]string, 0)

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
		if fn.Kind() != membership.KindTSK {
			return nil, fmt.Errorf("fis: consequent %q.%q is not a tsk function: %w",
				cons.Group, cons.Fn, fuzzerr.ErrConfiguration)
		}

		a, ok := acc[cons.Group]
		if !ok {
			a = &accum{num: values.Scalar(0), den: values.Scalar(0)}
			acc[cons.Group] = a
			order = append(order, cons.Group)
		}
		weighted, err := values.Mul(strength, values.Scalar(fn.Center()))
		if err != nil {
			return nil, err
		}
		if a.num, err = values.Add(a.num, weighted); err != nil {
			return nil, err
		}
		if a.den, err = values.Add(a.den, strength); err != nil {
			return nil, err
		}
	}

	out := make(map[string]values.Value, len(acc))
	for _, name := range order {
		a := acc[name]
		v, err := values.Div(a.num, a.den, 0)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
