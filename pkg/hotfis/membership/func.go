// Package membership defines membership functions and their named
// groupings. A membership function maps an input value to a degree of
// membership in a fuzzy set; groups collect the functions that partition
// one variable (for example "cold", "warm" and "hot" for temperature).
package membership

import (
	"fmt"
	"math"
	"sort"

	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
	"github.com/ericzander/hotfis/pkg/hotfis/values"
)

// Kind is the closed set of membership function variants.
type Kind int

const (
	// KindLinear is a piecewise-linear function over ordered control
	// points. All the shape templates except gaussian build this kind.
	KindLinear Kind = iota

	// KindSpecial delegates evaluation to a supplied callable.
	KindSpecial

	// KindTSK is a zeroth-order Takagi-Sugeno-Kang output constant. It
	// is valid only as a rule consequent and cannot produce membership.
	KindTSK
)

// SpecialFn evaluates a custom membership function at x given the
// function's parameters.
type SpecialFn func(x float64, params []float64) float64

// Shape templates: control-point membership levels for the linear
// templates, keyed by template name.
var templates = map[string][]float64{
	"triangular":  {0, 1, 0},
	"trapezoidal": {0, 1, 1, 0},
	"leftedge":    {1, 0},
	"rightedge":   {0, 1},
}

// Gaussian is the one built-in special template: exp(-(x-mean)^2/(2*sd^2))
// with params (mean, sd).
func Gaussian(x float64, params []float64) float64 {
	d := x - params[0]
	return math.Exp(-(d * d) / (2 * params[1] * params[1]))
}

// Func is a named membership function.
type Func struct {
	name     string
	kind     Kind
	template string // template name, or "custom"
	params   []float64
	levels   []float64 // membership at each param, linear kind only
	call     SpecialFn // special kind only
	center   float64
}

// New builds a function from a named template. Template names are
// "triangular", "trapezoidal", "leftedge", "rightedge", "gaussian" and
// "tsk"; anything else is a configuration error.
func New(name, template string, params []float64) (*Func, error) {
	switch template {
	case "gaussian":
		if len(params) != 2 {
			return nil, fmt.Errorf("membership: gaussian %q needs 2 params, got %d: %w",
				name, len(params), fuzzerr.ErrConfiguration)
		}
		f, err := NewSpecial(name, params, Gaussian)
		if err != nil {
			return nil, err
		}
		f.template = "gaussian"
		return f, nil
	case "tsk":
		if len(params) != 1 {
			return nil, fmt.Errorf("membership: tsk %q needs 1 param, got %d: %w",
				name, len(params), fuzzerr.ErrConfiguration)
		}
		return NewTSK(name, params[0]), nil
	}

	levels, ok := templates[template]
	if !ok {
		return nil, fmt.Errorf("membership: unknown template %q for function %q: %w",
			template, name, fuzzerr.ErrConfiguration)
	}
	if len(params) != len(levels) {
		return nil, fmt.Errorf("membership: template %q needs %d params, got %d: %w",
			template, len(levels), len(params), fuzzerr.ErrConfiguration)
	}
	f, err := NewLinear(name, params, levels)
	if err != nil {
		return nil, err
	}
	f.template = template
	return f, nil
}

// NewLinear builds a custom piecewise-linear function from ordered
// parameters and their membership levels. Levels must lie in [0,1] and
// match the parameter count; parameters are sorted ascending. Coincident
// parameters collapse into a single control point at the highest of
// their levels, so a degenerate triangle becomes an edge.
func NewLinear(name string, params, levels []float64) (*Func, error) {
	if len(params) != len(levels) {
		return nil, fmt.Errorf("membership: %q has %d params but %d levels: %w",
			name, len(params), len(levels), fuzzerr.ErrConfiguration)
	}
	if len(params) < 2 {
		return nil, fmt.Errorf("membership: %q needs at least 2 control points: %w",
			name, fuzzerr.ErrConfiguration)
	}
	for _, l := range levels {
		if l < 0 || l > 1 {
			return nil, fmt.Errorf("membership: %q level %v outside [0,1]: %w",
				name, l, fuzzerr.ErrConfiguration)
		}
	}

	type point struct{ x, y float64 }
	pts := make([]point, len(params))
	for i := range params {
		pts[i] = point{params[i], levels[i]}
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].x < pts[j].x })

	ps := make([]float64, 0, len(pts))
	ls := make([]float64, 0, len(pts))
	for _, p := range pts {
		if n := len(ps); n > 0 && ps[n-1] == p.x {
			if p.y > ls[n-1] {
				ls[n-1] = p.y
			}
			continue
		}
		ps = append(ps, p.x)
		ls = append(ls, p.y)
	}
	if len(ps) < 2 {
		return nil, fmt.Errorf("membership: %q needs at least 2 distinct control points: %w",
			name, fuzzerr.ErrConfiguration)
	}

	return &Func{
		name:     name,
		kind:     KindLinear,
		template: "custom",
		params:   ps,
		levels:   ls,
		center:   linearCenter(ps, ls),
	}, nil
}

// NewSpecial builds a function around a custom callable. The center
// defaults to the first parameter; override it with SetCenter.
func NewSpecial(name string, params []float64, fn SpecialFn) (*Func, error) {
	if fn == nil {
		return nil, fmt.Errorf("membership: %q given nil callable: %w",
			name, fuzzerr.ErrConfiguration)
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("membership: %q needs at least one param: %w",
			name, fuzzerr.ErrConfiguration)
	}
	ps := make([]float64, len(params))
	copy(ps, params)
	return &Func{
		name:     name,
		kind:     KindSpecial,
		template: "custom",
		params:   ps,
		call:     fn,
		center:   ps[0],
	}, nil
}

// NewTSK builds a zeroth-order TSK output constant.
func NewTSK(name string, value float64) *Func {
	return &Func{
		name:     name,
		kind:     KindTSK,
		template: "tsk",
		params:   []float64{value},
		center:   value,
	}
}

// Name returns the function name.
func (f *Func) Name() string { return f.name }

// Kind returns the function variant.
func (f *Func) Kind() Kind { return f.kind }

// Template returns the template name the function was built from, or
// "custom".
func (f *Func) Template() string { return f.template }

// Params returns a copy of the ordered parameters.
func (f *Func) Params() []float64 {
	out := make([]float64, len(f.params))
	copy(out, f.params)
	return out
}

// Levels returns a copy of the control-point membership levels, or nil
// for non-linear kinds.
func (f *Func) Levels() []float64 {
	if f.levels == nil {
		return nil
	}
	out := make([]float64, len(f.levels))
	copy(out, f.levels)
	return out
}

// Center returns the cached center value: the midpoint of maximal
// membership for linear functions, the first parameter for specials
// unless overridden, and the constant for TSK functions.
func (f *Func) Center() float64 { return f.center }

// SetCenter overrides the cached center.
func (f *Func) SetCenter(c float64) { f.center = c }

// Evaluate returns the membership of x elementwise. TSK output functions
// cannot produce membership; evaluating one is a configuration error.
func (f *Func) Evaluate(x values.Value) (values.Value, error) {
	switch f.kind {
	case KindLinear:
		return x.Map(f.interp), nil
	case KindSpecial:
		return x.Map(func(v float64) float64 { return f.call(v, f.params) }), nil
	default:
		return values.Value{}, fmt.Errorf("membership: tsk function %q cannot produce membership: %w",
			f.name, fuzzerr.ErrConfiguration)
	}
}

// interp is the piecewise-linear evaluation: clamp to the edge level
// outside the outermost parameters, interpolate between control points
// inside.
func (f *Func) interp(x float64) float64 {
	ps, ls := f.params, f.levels
	if x <= ps[0] {
		return ls[0]
	}
	last := len(ps) - 1
	if x >= ps[last] {
		return ls[last]
	}
	i := sort.SearchFloat64s(ps, x) // ps[i-1] < x <= ps[i]
	t := (x - ps[i-1]) / (ps[i] - ps[i-1])
	return ls[i-1] + t*(ls[i]-ls[i-1])
}

// copyFunc duplicates f, including parameter storage.
func (f *Func) copyFunc() *Func {
	dup := *f
	dup.params = f.Params()
	dup.levels = f.Levels()
	return &dup
}

// linearCenter averages the parameters at maximal membership: the peak
// for triangular, the plateau midpoint for trapezoidal, the outer
// boundary for edges.
func linearCenter(params, levels []float64) float64 {
	max := levels[0]
	for _, l := range levels[1:] {
		if l > max {
			max = l
		}
	}
	var sum float64
	var n int
	for i, l := range levels {
		if l == max {
			sum += params[i]
			n++
		}
	}
	return sum / float64(n)
}
