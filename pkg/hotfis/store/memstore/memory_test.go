package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/ericzander/hotfis/pkg/hotfis/store"
)

func sampleEngine(name string) store.Engine {
	return store.Engine{
		Name:          name,
		MamdaniPoints: 100,
		Groups: []store.Group{
			{
				Name: "x", Min: 0, Max: 10,
				Funcs: []store.Func{
					{Name: "high", Kind: "linear", Template: "rightedge", Params: []float64{4, 8}, Levels: []float64{0, 1}, Center: 8},
				},
			},
		},
		Rules: []string{"if x is high then y is on"},
	}
}

func TestEngineCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	defer s.Close()

	if err := s.SaveEngine(ctx, sampleEngine("b")); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveEngine(ctx, sampleEngine("a")); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.GetEngine(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got.Name != "a" {
		t.Fatalf("expected engine a, got %+v (ok=%v)", got, ok)
	}

	names, err := s.ListEngines(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("expected sorted [a b], got %v", names)
	}

	if err := s.DeleteEngine(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.GetEngine(ctx, "a"); ok {
		t.Fatal("engine a should be gone")
	}
	// Deleting again is fine.
	if err := s.DeleteEngine(ctx, "a"); err != nil {
		t.Fatal(err)
	}
}

func TestGetEngineReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SaveEngine(ctx, sampleEngine("e")); err != nil {
		t.Fatal(err)
	}
	got, _, err := s.GetEngine(ctx, "e")
	if err != nil {
		t.Fatal(err)
	}
	got.Groups[0].Funcs[0].Params[0] = 999
	got.Rules[0] = "mutated"

	again, _, err := s.GetEngine(ctx, "e")
	if err != nil {
		t.Fatal(err)
	}
	if again.Groups[0].Funcs[0].Params[0] != 4 {
		t.Fatal("stored params aliased by a returned copy")
	}
	if again.Rules[0] != "if x is high then y is on" {
		t.Fatal("stored rules aliased by a returned copy")
	}
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := New()

	now := time.Now()
	for i, id := range []string{"r1", "r2", "r3"} {
		r := store.Run{
			ID:        id,
			Engine:    "e",
			Method:    "tsk",
			Inputs:    map[string][]float64{"x": {float64(i)}},
			Outputs:   map[string][]float64{"y": {float64(i * 10)}},
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}
		if err := s.SaveRun(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SaveRun(ctx, store.Run{ID: "other", Engine: "f", Method: "tsk"}); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.GetRun(ctx, "r2")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got.Outputs["y"][0] != 10 {
		t.Fatalf("expected run r2 with output 10, got %+v (ok=%v)", got, ok)
	}
	if _, ok, _ := s.GetRun(ctx, "missing"); ok {
		t.Fatal("expected not found")
	}

	runs, err := s.ListRuns(ctx, "e", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "r3" || runs[1].ID != "r2" {
		t.Fatalf("expected [r3 r2], got %+v", runs)
	}

	// Zero limit falls back to the default and still excludes other
	// engines' runs.
	runs, err = s.ListRuns(ctx, "e", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
}
