package fis

import (
	"fmt"
	"sort"

	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
	"github.com/ericzander/hotfis/pkg/hotfis/membership"
)

// ConvertToTSK builds a new engine whose output-group functions are
// relabeled as zeroth-order TSK constants at their centers. Structural
// only: no resampling, no rule evaluation.
func (e *Engine) ConvertToTSK() (*Engine, error) {
	gs := e.groupset.Copy()
	for _, name := range e.ruleset.OutputNames() {
		g, err := gs.Group(name)
		if err != nil {
			return nil, err
		}
		fns := g.Funcs()
		converted := make([]*membership.Func, len(fns))
		for i, fn := range fns {
			converted[i] = membership.NewTSK(fn.Name(), fn.Center())
		}
		min, max := g.Domain()
		ng, err := membership.NewGroup(name, min, max, converted)
		if err != nil {
			return nil, err
		}
		gs.Replace(ng)
	}
	return New(gs, e.ruleset, Options{MamdaniPoints: e.points})
}

// ConvertToMamdani builds a new engine whose TSK output constants are
// relabeled as a linear partition over their sorted centers: a left edge,
// triangles between neighboring centers, and a right edge. Coincident
// centers share a partition cell, each shaped by the nearest distinct
// neighbors. Structural only; output groups holding non-TSK functions
// are a configuration error.
func (e *Engine) ConvertToMamdani() (*Engine, error) {
	gs := e.groupset.Copy()
	for _, name := range e.ruleset.OutputNames() {
		g, err := gs.Group(name)
		if err != nil {
			return nil, err
		}
		fns := g.Funcs()
		for _, fn := range fns {
			if fn.Kind() != membership.KindTSK {
				return nil, fmt.Errorf("fis: function %q.%q is not tsk, cannot relabel as Mamdani: %w",
					name, fn.Name(), fuzzerr.ErrConfiguration)
			}
		}
		sort.SliceStable(fns, func(i, j int) bool { return fns[i].Center() < fns[j].Center() })

		min, max := g.Domain()
		converted := make([]*membership.Func, len(fns))
		for i, fn := range fns {
			nf, err := partitionFunc(fns, i, min, max)
			if err != nil {
				return nil, err
			}
			nf.SetCenter(fn.Center())
			converted[i] = nf
		}
		ng, err := membership.NewGroup(name, min, max, converted)
		if err != nil {
			return nil, err
		}
		gs.Replace(ng)
	}
	return New(gs, e.ruleset, Options{MamdaniPoints: e.points})
}

func partitionFunc(fns []*membership.Func, i int, min, max float64) (*membership.Func, error) {
	name := fns[i].Name()
	c := fns[i].Center()

	// Nearest distinct centers on either side; fns are sorted by center.
	var prev, next float64
	hasPrev, hasNext := false, false
	for j := i - 1; j >= 0; j-- {
		if fns[j].Center() < c {
			prev, hasPrev = fns[j].Center(), true
			break
		}
	}
	for j := i + 1; j < len(fns); j++ {
		if fns[j].Center() > c {
			next, hasNext = fns[j].Center(), true
			break
		}
	}

	switch {
	case !hasPrev && !hasNext:
		// A single constant covers the whole domain.
		return membership.NewLinear(name, []float64{min, max}, []float64{1, 1})
	case !hasPrev:
		return membership.New(name, "leftedge", []float64{c, next})
	case !hasNext:
		return membership.New(name, "rightedge", []float64{prev, c})
	default:
		return membership.New(name, "triangular", []float64{prev, c, next})
	}
}
