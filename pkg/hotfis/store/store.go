// Package store persists named inference engine definitions and recorded
// evaluation runs. Implementations: memstore (in-memory, for tests) and
// sqlite.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ericzander/hotfis/pkg/hotfis/fis"
	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
	"github.com/ericzander/hotfis/pkg/hotfis/membership"
	"github.com/ericzander/hotfis/pkg/hotfis/rules"
)

// Store is the persistence interface for engine definitions and runs.
type Store interface {
	Close() error

	// Engines
	SaveEngine(ctx context.Context, e Engine) error
	GetEngine(ctx context.Context, name string) (Engine, bool, error)
	ListEngines(ctx context.Context) ([]string, error)
	DeleteEngine(ctx context.Context, name string) error

	// Runs
	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context, engine string, limit int) ([]Run, error)
}

// Engine is the serializable snapshot of one inference engine.
type Engine struct {
	Name          string
	MamdaniPoints int
	Groups        []Group
	Rules         []string
}

// Group is the serializable snapshot of one membership group.
type Group struct {
	Name  string
	Min   float64
	Max   float64
	Funcs []Func
}

// Func is the serializable snapshot of one membership function. Kind is
// "linear" or "tsk"; special callables cannot be persisted.
type Func struct {
	Name     string
	Kind     string
	Template string
	Params   []float64
	Levels   []float64
	Center   float64
}

// Run records one evaluation: its inputs and its crisp outputs (Mamdani
// outputs are recorded defuzzified). Scalars are stored as length-1
// slices.
type Run struct {
	ID        string
	Engine    string
	Method    string // "mamdani" or "tsk"
	Inputs    map[string][]float64
	Outputs   map[string][]float64
	CreatedAt time.Time
}

// Snapshot captures a live engine as a storable definition. Engines
// holding special-callable functions cannot be serialized.
func Snapshot(name string, e *fis.Engine) (Engine, error) {
	def := Engine{Name: name, MamdaniPoints: e.MamdaniPoints()}
	for _, g := range e.Groupset().Groups() {
		min, max := g.Domain()
		sg := Group{Name: g.Name(), Min: min, Max: max}
		for _, fn := range g.Funcs() {
			var kind string
			switch fn.Kind() {
			case membership.KindLinear:
				kind = "linear"
			case membership.KindTSK:
				kind = "tsk"
			default:
				return Engine{}, fmt.Errorf("store: function %q.%q wraps a callable and cannot be persisted: %w",
					g.Name(), fn.Name(), fuzzerr.ErrUnsupportedOperation)
			}
			sg.Funcs = append(sg.Funcs, Func{
				Name:     fn.Name(),
				Kind:     kind,
				Template: fn.Template(),
				Params:   fn.Params(),
				Levels:   fn.Levels(),
				Center:   fn.Center(),
			})
		}
		def.Groups = append(def.Groups, sg)
	}
	for _, r := range e.Ruleset().Rules() {
		def.Rules = append(def.Rules, r.Text())
	}
	return def, nil
}

// Build reconstructs a live engine from a stored definition.
func (def Engine) Build() (*fis.Engine, error) {
	groups := make([]*membership.Group, 0, len(def.Groups))
	for _, sg := range def.Groups {
		fns := make([]*membership.Func, 0, len(sg.Funcs))
		for _, sf := range sg.Funcs {
			fn, err := buildFunc(sf)
			if err != nil {
				return nil, fmt.Errorf("store: engine %q: %w", def.Name, err)
			}
			fns = append(fns, fn)
		}
		g, err := membership.NewGroup(sg.Name, sg.Min, sg.Max, fns)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	gs, err := membership.NewGroupset(groups)
	if err != nil {
		return nil, err
	}
	rs, err := rules.ParseRuleset(def.Rules)
	if err != nil {
		return nil, err
	}
	return fis.New(gs, rs, fis.Options{MamdaniPoints: def.MamdaniPoints})
}

func buildFunc(sf Func) (*membership.Func, error) {
	var (
		fn  *membership.Func
		err error
	)
	switch {
	case sf.Kind == "tsk":
		fn = membership.NewTSK(sf.Name, sf.Params[0])
	case sf.Kind == "linear" && sf.Template != "custom":
		fn, err = membership.New(sf.Name, sf.Template, sf.Params)
	case sf.Kind == "linear":
		fn, err = membership.NewLinear(sf.Name, sf.Params, sf.Levels)
	default:
		return nil, fmt.Errorf("function %q has unloadable kind %q: %w",
			sf.Name, sf.Kind, fuzzerr.ErrUnsupportedOperation)
	}
	if err != nil {
		return nil, err
	}
	fn.SetCenter(sf.Center)
	return fn, nil
}
