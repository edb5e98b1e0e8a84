package cache

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"
)

type story struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	Draft     bool      `json:"-"`
}

func (s *story) PrimaryID() string       { return strconv.Itoa(s.ID) }
func (s *story) LastModified() time.Time { return s.UpdatedAt }
func (s *story) Persisted() bool         { return !s.Draft }

// fakeSource is an in-memory DataSource that records every call.
type fakeSource struct {
	mu        sync.Mutex
	records   map[string]*story
	oneCalls  []string
	manyCalls [][]string
	lastOpts  Options
	err       error
	delay     time.Duration
}

func newFakeSource(recs ...*story) *fakeSource {
	src := &fakeSource{records: make(map[string]*story)}
	for _, r := range recs {
		src.records[r.PrimaryID()] = r
	}
	return src
}

func (s *fakeSource) FetchOne(_ context.Context, id string, opts Options) (*story, bool, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oneCalls = append(s.oneCalls, id)
	s.lastOpts = opts
	if s.err != nil {
		return nil, false, s.err
	}
	rec, ok := s.records[id]
	return rec, ok, nil
}

func (s *fakeSource) FetchMany(_ context.Context, ids []string, opts Options) ([]*story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manyCalls = append(s.manyCalls, slices.Clone(ids))
	s.lastOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	var out []*story
	// Reverse order: callers must not rely on source ordering.
	for i := len(ids) - 1; i >= 0; i-- {
		if rec, ok := s.records[ids[i]]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeSource) calls() (one int, many int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.oneCalls), len(s.manyCalls)
}

// spyStore wraps MemoryStore with error injection and write capture.
type spyStore struct {
	*MemoryStore
	mu        sync.Mutex
	readErr   error
	writeErr  error
	writes    map[string]Directives
	readMany  int
	readCalls int
}

func newSpyStore() *spyStore {
	return &spyStore{MemoryStore: NewMemoryStore(), writes: make(map[string]Directives)}
}

func (s *spyStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	s.readCalls++
	err := s.readErr
	s.mu.Unlock()
	if err != nil {
		return nil, false, err
	}
	return s.MemoryStore.Read(ctx, key)
}

func (s *spyStore) ReadMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	s.mu.Lock()
	s.readMany++
	err := s.readErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.MemoryStore.ReadMany(ctx, keys)
}

func (s *spyStore) Write(ctx context.Context, key string, value []byte, d Directives) error {
	s.mu.Lock()
	s.writes[key] = d
	err := s.writeErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Write(ctx, key, value, d)
}

func newTestClient(t *testing.T, cfg Config, store Store, src DataSource[*story]) *Client[*story] {
	t.Helper()
	if cfg.Scope == "" {
		cfg.Scope = "Story"
	}
	c, err := New[*story](cfg, store, src)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func mustKey(t *testing.T, c *Client[*story], id string, opts Options) string {
	t.Helper()
	key, err := c.Key(id, opts)
	if err != nil {
		t.Fatalf("Key(%q) error = %v", id, err)
	}
	return key
}
