package network

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ericzander/hotfis/pkg/hotfis/fis"
	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
	"github.com/ericzander/hotfis/pkg/hotfis/membership"
	"github.com/ericzander/hotfis/pkg/hotfis/rules"
	"github.com/ericzander/hotfis/pkg/hotfis/values"
)

// tskEngine builds a one-rule TSK engine: in[group] rightedge(lo, hi)
// drives out[group] to the given constant.
func tskEngine(t *testing.T, inGroup string, lo, hi float64, outGroup string, constant float64) *fis.Engine {
	t.Helper()
	inFn, err := membership.New("high", "rightedge", []float64{lo, hi})
	if err != nil {
		t.Fatal(err)
	}
	in, err := membership.NewGroup(inGroup, lo-1, hi+1, []*membership.Func{inFn})
	if err != nil {
		t.Fatal(err)
	}
	out, err := membership.NewGroup(outGroup, 0, constant*2, []*membership.Func{
		membership.NewTSK("on", constant),
	})
	if err != nil {
		t.Fatal(err)
	}
	gs, err := membership.NewGroupset([]*membership.Group{in, out})
	if err != nil {
		t.Fatal(err)
	}
	rs, err := rules.ParseRuleset([]string{
		"if " + inGroup + " is high then " + outGroup + " is on",
	})
	if err != nil {
		t.Fatal(err)
	}
	e, err := fis.New(gs, rs)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

// chain builds temperature → fan → noise.
func chain(t *testing.T) *Network {
	t.Helper()
	n := New()
	if err := n.Insert(tskEngine(t, "temperature", 50, 80, "fan", 8), "fan-control"); err != nil {
		t.Fatal(err)
	}
	if err := n.Insert(tskEngine(t, "fan", 4, 8, "noise", 70), "noise-model"); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestEvalTSKChain(t *testing.T) {
	n := chain(t)
	out, err := n.EvalTSK(map[string]values.Value{
		"temperature": values.Scalar(100),
	})
	if err != nil {
		t.Fatal(err)
	}
	// temperature 100 fully fires the fan rule, producing fan=8; that
	// fully fires the noise rule downstream.
	if math.Abs(out["fan"].Float()-8) > 1e-12 {
		t.Errorf("fan: expected 8, got %v", out["fan"].Float())
	}
	if math.Abs(out["noise"].Float()-70) > 1e-12 {
		t.Errorf("noise: expected 70, got %v", out["noise"].Float())
	}
}

func TestEvalTSKMissingRootInput(t *testing.T) {
	n := chain(t)
	_, err := n.EvalTSK(map[string]values.Value{"fan": values.Scalar(8)})
	if !errors.Is(err, fuzzerr.ErrMissingInput) {
		t.Fatalf("expected missing-input error, got %v", err)
	}
}

func TestRootsAndNames(t *testing.T) {
	n := chain(t)
	if got, want := n.Names(), []string{"fan-control", "noise-model"}; !reflect.DeepEqual(got, want) {
		t.Errorf("names: expected %v, got %v", want, got)
	}
	if got, want := n.Roots(), []string{"fan-control"}; !reflect.DeepEqual(got, want) {
		t.Errorf("roots: expected %v, got %v", want, got)
	}
}

func TestReqInputs(t *testing.T) {
	n := chain(t)

	// The downstream node's fan input is produced upstream, so only the
	// root's input remains external.
	got, err := n.ReqInputs("noise-model")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"temperature"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	got, err = n.ReqInputs("fan-control")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"temperature"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if _, err := n.ReqInputs("missing"); !errors.Is(err, fuzzerr.ErrLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestInsertRejectsDuplicateName(t *testing.T) {
	n := New()
	if err := n.Insert(tskEngine(t, "a", 0, 1, "b", 5), "node"); err != nil {
		t.Fatal(err)
	}
	err := n.Insert(tskEngine(t, "c", 0, 1, "d", 5), "node")
	if !errors.Is(err, fuzzerr.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestInsertRejectsCycle(t *testing.T) {
	n := chain(t)

	// noise → temperature closes the loop back to the root.
	err := n.Insert(tskEngine(t, "noise", 0, 100, "temperature", 60), "thermal-feedback")
	if !errors.Is(err, fuzzerr.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}

	// The rejected insert left the network unchanged.
	if got, want := n.Names(), []string{"fan-control", "noise-model"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("network changed after rejected insert: %v", got)
	}
	out, err := n.EvalTSK(map[string]values.Value{"temperature": values.Scalar(100)})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(out["noise"].Float()-70) > 1e-12 {
		t.Fatalf("network broken after rejected insert: %v", out["noise"].Float())
	}
}

func TestInsertRejectsSelfEdge(t *testing.T) {
	// An engine producing one of its own input groups is a one-node cycle.
	high, err := membership.New("high", "rightedge", []float64{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	x, err := membership.NewGroup("x", 0, 10, []*membership.Func{
		high,
		membership.NewTSK("on", 5),
	})
	if err != nil {
		t.Fatal(err)
	}
	gs, err := membership.NewGroupset([]*membership.Group{x})
	if err != nil {
		t.Fatal(err)
	}
	rs, err := rules.ParseRuleset([]string{"if x is high then x is on"})
	if err != nil {
		t.Fatal(err)
	}
	e, err := fis.New(gs, rs)
	if err != nil {
		t.Fatal(err)
	}

	n := New()
	if err := n.Insert(e, "loop"); !errors.Is(err, fuzzerr.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(n.Names()) != 0 {
		t.Fatalf("rejected insert must not add the node: %v", n.Names())
	}
}

func TestEngineLookup(t *testing.T) {
	n := chain(t)
	if _, err := n.Engine("fan-control"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if _, err := n.Engine("missing"); !errors.Is(err, fuzzerr.ErrLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestEvalMamdaniChain(t *testing.T) {
	// A Mamdani chain: the upstream node's defuzzified output feeds the
	// downstream node's antecedents.
	upIn, err := membership.New("hot", "rightedge", []float64{50, 80})
	if err != nil {
		t.Fatal(err)
	}
	temperature, err := membership.NewGroup("temperature", 0, 100, []*membership.Func{upIn})
	if err != nil {
		t.Fatal(err)
	}
	fanOut, err := membership.New("on", "rightedge", []float64{4, 8})
	if err != nil {
		t.Fatal(err)
	}
	fanProd, err := membership.NewGroup("fan", 0, 10, []*membership.Func{fanOut})
	if err != nil {
		t.Fatal(err)
	}
	upGS, err := membership.NewGroupset([]*membership.Group{temperature, fanProd})
	if err != nil {
		t.Fatal(err)
	}
	upRS, err := rules.ParseRuleset([]string{"if temperature is hot then fan is on"})
	if err != nil {
		t.Fatal(err)
	}
	up, err := fis.New(upGS, upRS)
	if err != nil {
		t.Fatal(err)
	}

	fanIn, err := membership.New("fast", "rightedge", []float64{2, 6})
	if err != nil {
		t.Fatal(err)
	}
	fanCons, err := membership.NewGroup("fan", 0, 10, []*membership.Func{fanIn})
	if err != nil {
		t.Fatal(err)
	}
	noiseOut, err := membership.New("loud", "rightedge", []float64{40, 80})
	if err != nil {
		t.Fatal(err)
	}
	noise, err := membership.NewGroup("noise", 0, 100, []*membership.Func{noiseOut})
	if err != nil {
		t.Fatal(err)
	}
	downGS, err := membership.NewGroupset([]*membership.Group{fanCons, noise})
	if err != nil {
		t.Fatal(err)
	}
	downRS, err := rules.ParseRuleset([]string{"if fan is fast then noise is loud"})
	if err != nil {
		t.Fatal(err)
	}
	down, err := fis.New(downGS, downRS)
	if err != nil {
		t.Fatal(err)
	}

	n := New()
	if err := n.Insert(up, "fan-control"); err != nil {
		t.Fatal(err)
	}
	if err := n.Insert(down, "noise-model"); err != nil {
		t.Fatal(err)
	}

	out, err := n.EvalMamdani(map[string]values.Value{
		"temperature": values.Scalar(100),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out["fan"]; !ok {
		t.Fatal("expected an upstream fan curve")
	}
	curve, ok := out["noise"]
	if !ok {
		t.Fatal("expected a downstream noise curve")
	}
	crisp, err := fis.DefuzzMamdani(curve)
	if err != nil {
		t.Fatal(err)
	}
	// Fully fired upstream, so the chain produces a loud noise estimate.
	if crisp.Float() <= 50 || crisp.Float() > 100 {
		t.Fatalf("expected a loud crisp noise, got %v", crisp.Float())
	}
}
