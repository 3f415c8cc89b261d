package usecase

import (
	"slices"
	"sync/atomic"

	"FinScreen/internal/domain/models"
)

// ResultStore holds the last published output of every screener.
// The scheduling goroutine is the only writer; readers never block it.
type ResultStore struct {
	results atomic.Pointer[map[string][]any]
	states  atomic.Pointer[[]models.ScreenerState]
	version atomic.Uint64
}

func NewResultStore() *ResultStore {
	s := &ResultStore{}
	empty := map[string][]any{}
	s.results.Store(&empty)
	noStates := []models.ScreenerState{}
	s.states.Store(&noStates)
	return s
}

// Publish replaces the output of one screener.
func (s *ResultStore) Publish(name string, rows []any) {
	cur := *s.results.Load()
	next := make(map[string][]any, len(cur)+1)
	for k, v := range cur {
		next[k] = v
	}
	next[name] = rows
	s.results.Store(&next)
	s.version.Add(1)
}

// PublishStates replaces the schedule view. The version moves only when
// the view differs from the previous one.
func (s *ResultStore) PublishStates(states []models.ScreenerState) {
	if slices.Equal(*s.states.Load(), states) {
		return
	}
	cp := make([]models.ScreenerState, len(states))
	copy(cp, states)
	s.states.Store(&cp)
	s.version.Add(1)
}

// All returns a copy of the latest outputs keyed by screener name.
func (s *ResultStore) All() map[string][]any {
	cur := *s.results.Load()
	out := make(map[string][]any, len(cur))
	for k, v := range cur {
		out[k] = v
	}
	return out
}

// Get returns the output of one screener.
func (s *ResultStore) Get(name string) ([]any, bool) {
	rows, ok := (*s.results.Load())[name]
	return rows, ok
}

func (s *ResultStore) States() []models.ScreenerState {
	return *s.states.Load()
}

// Version increases on every Publish and state change; stream handlers use it to skip unchanged pushes.
func (s *ResultStore) Version() uint64 { return s.version.Load() }
