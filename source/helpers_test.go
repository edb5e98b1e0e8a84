package source

import (
	"context"
	"errors"
	"sync"

	"github.com/jonwraymond/cachefu/cache"
)

type widget struct {
	ID   string
	Name string
}

func (w *widget) PrimaryID() string { return w.ID }

// flakySource fails the first failures calls of each kind.
type flakySource struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
	records  map[string]*widget
}

func newFlakySource(failures int, recs ...*widget) *flakySource {
	s := &flakySource{failures: failures, err: errors.New("connection refused"), records: map[string]*widget{}}
	for _, r := range recs {
		s.records[r.ID] = r
	}
	return s
}

func (s *flakySource) attempt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return s.err
	}
	return nil
}

func (s *flakySource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *flakySource) FetchOne(_ context.Context, id string, _ cache.Options) (*widget, bool, error) {
	if err := s.attempt(); err != nil {
		return nil, false, err
	}
	rec, ok := s.records[id]
	return rec, ok, nil
}

func (s *flakySource) FetchMany(_ context.Context, ids []string, _ cache.Options) ([]*widget, error) {
	if err := s.attempt(); err != nil {
		return nil, err
	}
	var out []*widget
	for _, id := range ids {
		if rec, ok := s.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}
