// Package hotfis ties the fuzzy inference packages to a persistence
// backend. A Service stores engine definitions, rebuilds them on demand,
// and records every evaluation as a run.
package hotfis

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ericzander/hotfis/pkg/hotfis/fis"
	"github.com/ericzander/hotfis/pkg/hotfis/fuzzerr"
	"github.com/ericzander/hotfis/pkg/hotfis/store"
	"github.com/ericzander/hotfis/pkg/hotfis/values"
)

// Service provides stored-engine evaluation on top of a Store.
type Service struct {
	store store.Store

	mu      sync.Mutex
	entropy io.Reader
}

// New creates a Service backed by the given store.
func New(st store.Store) *Service {
	return &Service{
		store:   st,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// newRunID generates a ULID for a run. ULIDs sort lexically by creation
// time, which ListRuns relies on.
func (s *Service) newRunID(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
}

// SaveEngine snapshots an engine under the given name and persists it.
func (s *Service) SaveEngine(ctx context.Context, name string, e *fis.Engine) error {
	def, err := store.Snapshot(name, e)
	if err != nil {
		return err
	}
	return s.store.SaveEngine(ctx, def)
}

// Engine rebuilds a stored engine by name.
func (s *Service) Engine(ctx context.Context, name string) (*fis.Engine, error) {
	def, ok, err := s.store.GetEngine(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("hotfis: engine %q: %w", name, fuzzerr.ErrLookup)
	}
	return def.Build()
}

// ListEngines returns the names of stored engines.
func (s *Service) ListEngines(ctx context.Context) ([]string, error) {
	return s.store.ListEngines(ctx)
}

// DeleteEngine removes a stored engine.
func (s *Service) DeleteEngine(ctx context.Context, name string) error {
	return s.store.DeleteEngine(ctx, name)
}

// Runs returns up to limit recorded runs for an engine, most recent first.
func (s *Service) Runs(ctx context.Context, engine string, limit int) ([]store.Run, error) {
	return s.store.ListRuns(ctx, engine, limit)
}

// Run retrieves a recorded run by ID.
func (s *Service) Run(ctx context.Context, id string) (store.Run, error) {
	r, ok, err := s.store.GetRun(ctx, id)
	if err != nil {
		return store.Run{}, err
	}
	if !ok {
		return store.Run{}, fmt.Errorf("hotfis: run %q: %w", id, fuzzerr.ErrLookup)
	}
	return r, nil
}

// EvalTSK evaluates a stored engine with TSK inference and records the
// run. It returns the run ID alongside the crisp outputs.
func (s *Service) EvalTSK(ctx context.Context, engine string, inputs map[string][]float64) (string, map[string][]float64, error) {
	e, err := s.Engine(ctx, engine)
	if err != nil {
		return "", nil, err
	}
	out, err := e.EvalTSK(toValues(inputs))
	if err != nil {
		return "", nil, err
	}
	outputs := fromValues(out)
	id, err := s.record(ctx, engine, "tsk", inputs, outputs)
	return id, outputs, err
}

// EvalMamdani evaluates a stored engine with Mamdani inference,
// defuzzifies each output, and records the run.
func (s *Service) EvalMamdani(ctx context.Context, engine string, inputs map[string][]float64) (string, map[string][]float64, error) {
	e, err := s.Engine(ctx, engine)
	if err != nil {
		return "", nil, err
	}
	curves, err := e.EvalMamdani(toValues(inputs))
	if err != nil {
		return "", nil, err
	}
	out := make(map[string]values.Value, len(curves))
	for name, curve := range curves {
		crisp, err := fis.DefuzzMamdani(curve)
		if err != nil {
			return "", nil, err
		}
		out[name] = crisp
	}
	outputs := fromValues(out)
	id, err := s.record(ctx, engine, "mamdani", inputs, outputs)
	return id, outputs, err
}

func (s *Service) record(ctx context.Context, engine, method string, inputs, outputs map[string][]float64) (string, error) {
	now := time.Now()
	run := store.Run{
		ID:        s.newRunID(now),
		Engine:    engine,
		Method:    method,
		Inputs:    copyFloats(inputs),
		Outputs:   copyFloats(outputs),
		CreatedAt: now,
	}
	if err := s.store.SaveRun(ctx, run); err != nil {
		return "", err
	}
	return run.ID, nil
}

func toValues(m map[string][]float64) map[string]values.Value {
	out := make(map[string]values.Value, len(m))
	for name, xs := range m {
		if len(xs) == 1 {
			out[name] = values.Scalar(xs[0])
		} else {
			out[name] = values.Vector(xs)
		}
	}
	return out
}

func fromValues(m map[string]values.Value) map[string][]float64 {
	out := make(map[string][]float64, len(m))
	for name, v := range m {
		out[name] = v.Slice()
	}
	return out
}

func copyFloats(m map[string][]float64) map[string][]float64 {
	out := make(map[string][]float64, len(m))
	for name, xs := range m {
		cp := make([]float64, len(xs))
		copy(cp, xs)
		out[name] = cp
	}
	return out
}
