package hotfis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ericzander/hotfis/pkg/hotfis/fis"
	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
	"github.com/ericzander/hotfis/pkg/hotfis/membership"
	"github.com/ericzander/hotfis/pkg/hotfis/rules"
	"github.com/ericzander/hotfis/pkg/hotfis/store/memstore"
)

func tippingEngine(t *testing.T) *fis.Engine {
	t.Helper()
	mk := func(name, template string, params ...float64) *membership.Func {
		fn, err := membership.New(name, template, params)
		if err != nil {
			t.Fatal(err)
		}
		return fn
	}
	service, err := membership.NewGroup("service", 0, 10, []*membership.Func{
		mk("poor", "leftedge", 3, 5),
		mk("good", "triangular", 3, 5, 7),
		mk("excellent", "rightedge", 5, 7),
	})
	if err != nil {
		t.Fatal(err)
	}
	food, err := membership.NewGroup("food", 0, 10, []*membership.Func{
		mk("rancid", "leftedge", 4, 6),
		mk("delicious", "rightedge", 4, 6),
	})
	if err != nil {
		t.Fatal(err)
	}
	tip, err := membership.NewGroup("tip", 0, 30, []*membership.Func{
		membership.NewTSK("cheap", 7),
		membership.NewTSK("average", 17),
		membership.NewTSK("generous", 26),
	})
	if err != nil {
		t.Fatal(err)
	}
	gs, err := membership.NewGroupset([]*membership.Group{service, food, tip})
	if err != nil {
		t.Fatal(err)
	}
	rs, err := rules.ParseRuleset([]string{
		"if service is poor or food is rancid then tip is cheap",
		"if service is good then tip is average",
		"if service is excellent or food is delicious then tip is generous",
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

func TestServiceSaveAndEval(t *testing.T) {
	ctx := context.Background()
	svc := New(memstore.New())

	if err := svc.SaveEngine(ctx, "tipping", tippingEngine(t)); err != nil {
		t.Fatal(err)
	}

	names, err := svc.ListEngines(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "tipping" {
		t.Fatalf("expected [tipping], got %v", names)
	}

	id, out, err := svc.EvalTSK(ctx, "tipping", map[string][]float64{
		"service": {4.3},
		"food":    {6.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("expected a run ID")
	}
	if math.Abs(out["tip"][0]-19.75) > 1e-9 {
		t.Fatalf("expected 19.75, got %v", out["tip"][0])
	}

	run, err := svc.Run(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if run.Method != "tsk" || run.Engine != "tipping" {
		t.Fatalf("unexpected run record: %+v", run)
	}
	if math.Abs(run.Outputs["tip"][0]-19.75) > 1e-9 {
		t.Fatalf("run output mismatch: %v", run.Outputs)
	}
	if run.Inputs["food"][0] != 6.5 {
		t.Fatalf("run input mismatch: %v", run.Inputs)
	}
}

func TestServiceEvalMamdani(t *testing.T) {
	ctx := context.Background()
	svc := New(memstore.New())

	// Mamdani needs linear consequents; relabel the TSK constants first.
	converted, err := tippingEngine(t).ConvertToMamdani()
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.SaveEngine(ctx, "tipping-mamdani", converted); err != nil {
		t.Fatal(err)
	}

	id, out, err := svc.EvalMamdani(ctx, "tipping-mamdani", map[string][]float64{
		"service": {4.3},
		"food":    {6.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	tip := out["tip"][0]
	if tip < 0 || tip > 30 {
		t.Fatalf("tip %v outside domain", tip)
	}

	runs, err := svc.Runs(ctx, "tipping-mamdani", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != id || runs[0].Method != "mamdani" {
		t.Fatalf("expected one mamdani run %s, got %+v", id, runs)
	}
}

func TestServiceRunIDsAreSortable(t *testing.T) {
	ctx := context.Background()
	svc := New(memstore.New())
	if err := svc.SaveEngine(ctx, "tipping", tippingEngine(t)); err != nil {
		t.Fatal(err)
	}

	inputs := map[string][]float64{"service": {5}, "food": {5}}
	var prev string
	for i := 0; i < 5; i++ {
		id, _, err := svc.EvalTSK(ctx, "tipping", inputs)
		if err != nil {
			t.Fatal(err)
		}
		if id <= prev {
			t.Fatalf("run IDs must increase: %q after %q", id, prev)
		}
		prev = id
	}
}

func TestServiceUnknownEngine(t *testing.T) {
	ctx := context.Background()
	svc := New(memstore.New())
	if _, err := svc.Engine(ctx, "nope"); !errors.Is(err, fuzzerr.ErrLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	if _, _, err := svc.EvalTSK(ctx, "nope", nil); !errors.Is(err, fuzzerr.ErrLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	if _, err := svc.Run(ctx, "nope"); !errors.Is(err, fuzzerr.ErrLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}
