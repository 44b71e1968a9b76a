// Package memstore is an in-memory store.Store implementation for tests
// and ephemeral use.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/ericzander/hotfis/pkg/hotfis/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu      sync.RWMutex
	engines map[string]store.Engine
	runs    map[string]store.Run
	runSeq  []string // run IDs in insertion order
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		engines: make(map[string]store.Engine),
		runs:    make(map[string]store.Run),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveEngine inserts or replaces an engine definition by name.
func (s *Store) SaveEngine(ctx context.Context, e store.Engine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engines[e.Name] = copyEngine(e)
	return nil
}

// GetEngine retrieves an engine definition by name.
func (s *Store) GetEngine(ctx context.Context, name string) (store.Engine, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.engines[name]
	if !ok {
		return store.Engine{}, false, nil
	}
	return copyEngine(e), true, nil
}

// ListEngines returns the stored engine names, sorted.
func (s *Store) ListEngines(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.engines))
	for name := range s.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteEngine removes an engine definition. Deleting a missing name is
// not an error.
func (s *Store) DeleteEngine(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.engines, name)
	return nil
}

// SaveRun records an evaluation run.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[r.ID]; !exists {
		s.runSeq = append(s.runSeq, r.ID)
	}
	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, false, nil
	}
	return copyRun(r), true, nil
}

// ListRuns returns up to limit runs for an engine, most recent first.
func (s *Store) ListRuns(ctx context.Context, engine string, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	var out []store.Run
	for i := len(s.runSeq) - 1; i >= 0 && len(out) < limit; i-- {
		r := s.runs[s.runSeq[i]]
		if r.Engine == engine {
			out = append(out, copyRun(r))
		}
	}
	return out, nil
}

func copyEngine(e store.Engine) store.Engine {
	dup := e
	dup.Rules = append([]string(nil), e.Rules...)
	dup.Groups = make([]store.Group, len(e.Groups))
	for i, g := range e.Groups {
		dg := g
		dg.Funcs = make([]store.Func, len(g.Funcs))
		for j, f := range g.Funcs {
			df := f
			df.Params = append([]float64(nil), f.Params...)
			df.Levels = append([]float64(nil), f.Levels...)
			dg.Funcs[j] = df
		}
		dup.Groups[i] = dg
	}
	return dup
}

func copyRun(r store.Run) store.Run {
	dup := r
	dup.Inputs = copyValues(r.Inputs)
	dup.Outputs = copyValues(r.Outputs)
	return dup
}

func copyValues(m map[string][]float64) map[string][]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string][]float64, len(m))
	for k, v := range m {
		out[k] = append([]float64(nil), v...)
	}
	return out
}
