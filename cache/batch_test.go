package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"testing"
)

func TestGetBatch_OnlyMissesFetched(t *testing.T) {
	ctx := context.Background()
	store := newSpyStore()
	src := newFakeSource(&story{ID: 1, Title: "A"}, &story{ID: 2, Title: "B"}, &story{ID: 3, Title: "C"})
	c := newTestClient(t, Config{}, store, src)

	_, _ = c.Set(ctx, "1", &story{ID: 1, Title: "A"}, Options{})
	_, _ = c.Set(ctx, "3", nil, Options{})

	got, err := c.GetBatch(ctx, []string{"1", "2", "3"}, Options{})
	if err != nil {
		t.Fatalf("GetBatch() error = %v", err)
	}

	_, many := src.calls()
	if many != 1 {
		t.Fatalf("FetchMany calls = %d, want 1", many)
	}
	if !slices.Equal(src.manyCalls[0], []string{"2"}) {
		t.Errorf("FetchMany ids = %v, want [2]", src.manyCalls[0])
	}
	if store.readMany != 1 {
		t.Errorf("ReadMany calls = %d, want 1", store.readMany)
	}

	if len(got) != 2 {
		t.Fatalf("GetBatch() = %v, want 2 entries", got)
	}
	if got["1"].Title != "A" || got["2"].Title != "B" {
		t.Errorf("GetBatch() = %+v", got)
	}
	if _, ok := got["3"]; ok {
		t.Error("cached absence should be omitted from the result")
	}

	if ok, _ := c.Exists(ctx, "2", Options{}); !ok {
		t.Error("fetched record was not backfilled")
	}
}

func TestGetBatch_AllHits(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	c := newTestClient(t, Config{}, NewMemoryStore(), src)
	for i := 1; i <= 3; i++ {
		_, _ = c.Set(ctx, fmt.Sprint(i), &story{ID: i}, Options{})
	}

	got, err := c.GetBatch(ctx, []string{"1", "2", "3"}, Options{})
	if err != nil || len(got) != 3 {
		t.Fatalf("GetBatch() = %v, %v", got, err)
	}
	if _, many := src.calls(); many != 0 {
		t.Errorf("FetchMany calls = %d, want 0", many)
	}
}

func TestGetBatch_CachesUnresolvedIDs(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(&story{ID: 1})
	c := newTestClient(t, Config{}, NewMemoryStore(), src)

	for range 2 {
		got, err := c.GetBatch(ctx, []string{"1", "404"}, Options{})
		if err != nil {
			t.Fatalf("GetBatch() error = %v", err)
		}
		if len(got) != 1 {
			t.Errorf("GetBatch() = %v, want only id 1", got)
		}
	}
	if _, many := src.calls(); many != 1 {
		t.Errorf("FetchMany calls = %d, want 1", many)
	}
	if ok, _ := c.Exists(ctx, "404", Options{}); !ok {
		t.Error("unresolved id should be cached as absent")
	}
}

func TestGetBatch_Duplicates(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(&story{ID: 1}, &story{ID: 2})
	c := newTestClient(t, Config{}, NewMemoryStore(), src)

	got, err := c.GetBatch(ctx, []string{"1", "2", "1", "2"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("GetBatch() = %v", got)
	}
	if !slices.Equal(src.manyCalls[0], []string{"1", "2"}) {
		t.Errorf("FetchMany ids = %v, want [1 2]", src.manyCalls[0])
	}
}

func TestGetBatch_Empty(t *testing.T) {
	src := newFakeSource()
	store := newSpyStore()
	c := newTestClient(t, Config{}, store, src)

	got, err := c.GetBatch(context.Background(), nil, Options{})
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("GetBatch(nil) = %v, %v", got, err)
	}
	if store.readMany != 0 {
		t.Error("empty batch should not touch the store")
	}
}

func TestGetBatch_FetchErrorCachesNothing(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("timeout")
	src := newFakeSource(&story{ID: 1})
	src.err = boom
	store := NewMemoryStore()
	c := newTestClient(t, Config{}, store, src)

	if _, err := c.GetBatch(ctx, []string{"1", "2"}, Options{}); !errors.Is(err, boom) {
		t.Fatalf("GetBatch() error = %v, want %v", err, boom)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d entries after fetch error", store.Len())
	}
}

func TestGetBatch_BackfillError(t *testing.T) {
	ctx := context.Background()
	full := errors.New("out of memory")

	tests := []struct {
		name     string
		tolerate bool
		wantErr  bool
	}{
		{"surfaced by default", false, true},
		{"tolerated", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newSpyStore()
			store.writeErr = full
			src := newFakeSource(&story{ID: 1, Title: "A"})
			c := newTestClient(t, Config{TolerateWriteErrors: tt.tolerate, BackfillConcurrency: 4}, store, src)

			got, err := c.GetBatch(ctx, []string{"1", "2"}, Options{})
			if tt.wantErr {
				if !errors.Is(err, ErrBackfill) || !errors.Is(err, full) {
					t.Errorf("GetBatch() error = %v, want ErrBackfill wrapping %v", err, full)
				}
			} else if err != nil {
				t.Errorf("GetBatch() error = %v", err)
			}
			if got["1"] == nil || got["1"].Title != "A" {
				t.Errorf("fetched records must be returned despite write failures: %v", got)
			}
		})
	}
}

func TestGetBatch_ArgsAndNamespace(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(&story{ID: 1, Title: "A"})
	c := newTestClient(t, Config{}, NewMemoryStore(), src)
	opts := Options{Namespace: "tenant", Args: map[string]any{"lang": "en"}}

	if _, err := c.GetBatch(ctx, []string{"1"}, opts); err != nil {
		t.Fatal(err)
	}
	// Backfilled under the same key a single Get would use.
	got, found, err := c.GetWith(ctx, "1", opts, func(context.Context) (*story, bool, error) {
		t.Fatal("single read missed the batch backfill")
		return nil, false, nil
	})
	if err != nil || !found || got.Title != "A" {
		t.Errorf("Get() = %+v, %v, %v", got, found, err)
	}
}

type sluggedStory struct {
	story
	Slug string `json:"slug"`
}

func (s *sluggedStory) LookupID() string { return s.Slug }

type slugSource struct{ recs []*sluggedStory }

func (s slugSource) FetchOne(context.Context, string, Options) (*sluggedStory, bool, error) {
	return nil, false, nil
}

func (s slugSource) FetchMany(_ context.Context, ids []string, _ Options) ([]*sluggedStory, error) {
	var out []*sluggedStory
	for _, r := range s.recs {
		if slices.Contains(ids, r.Slug) {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestGetBatch_LookupIdentifier(t *testing.T) {
	ctx := context.Background()
	src := slugSource{recs: []*sluggedStory{{story: story{ID: 1}, Slug: "hello"}}}
	c, err := New[*sluggedStory](Config{Scope: "Story", FindBy: "slug"}, NewMemoryStore(), src)
	if err != nil {
		t.Fatal(err)
	}

	got, err := c.GetBatch(ctx, []string{"hello", "missing"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got["hello"] == nil || got["hello"].ID != 1 {
		t.Errorf("GetBatch() = %v, want record keyed by slug", got)
	}
	if ok, _ := c.Exists(ctx, "hello", Options{}); !ok {
		t.Error("record should be backfilled under its lookup id")
	}
}

func TestGetMany_Order(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(&story{ID: 1}, &story{ID: 2}, &story{ID: 3})
	c := newTestClient(t, Config{}, NewMemoryStore(), src)
	_, _ = c.Set(ctx, "2", &story{ID: 2}, Options{})

	ids := []string{"3", "404", "1", "2", "3"}
	got, err := c.GetMany(ctx, ids, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(ids) {
		t.Fatalf("len(GetMany()) = %d, want %d", len(got), len(ids))
	}
	want := []int{3, 0, 1, 2, 3}
	for i, rec := range got {
		if want[i] == 0 {
			if rec != nil {
				t.Errorf("got[%d] = %+v, want nil", i, rec)
			}
			continue
		}
		if rec == nil || rec.ID != want[i] {
			t.Errorf("got[%d] = %+v, want id %d", i, rec, want[i])
		}
	}
}

func TestGetBatch_Disabled(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(&story{ID: 1}, &story{ID: 2})
	c := newTestClient(t, Config{Disabled: true}, nil, src)

	for range 2 {
		got, err := c.GetBatch(ctx, []string{"1", "2", "1"}, Options{})
		if err != nil || len(got) != 2 {
			t.Fatalf("GetBatch() = %v, %v", got, err)
		}
	}
	if _, many := src.calls(); many != 2 {
		t.Errorf("FetchMany calls = %d, want 2", many)
	}
}

func TestGetBatch_SkipReads(t *testing.T) {
	ctx := context.Background()
	store := newSpyStore()
	src := newFakeSource(&story{ID: 1, Title: "fresh"})
	c := newTestClient(t, Config{SkipReads: true}, store, src)
	_ = store.Write(ctx, mustKey(t, c, "1", Options{}), []byte(`{"id":1,"title":"stale"}`), Directives{})

	got, err := c.GetBatch(ctx, []string{"1"}, Options{})
	if err != nil || got["1"].Title != "fresh" {
		t.Fatalf("GetBatch() = %v, %v", got, err)
	}
	if store.readMany != 0 {
		t.Errorf("ReadMany calls = %d, want 0", store.readMany)
	}
}

func TestResetMany(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(&story{ID: 1, Title: "new"})
	c := newTestClient(t, Config{}, NewMemoryStore(), src)
	_, _ = c.Set(ctx, "1", &story{ID: 1, Title: "old"}, Options{})
	_, _ = c.Set(ctx, "2", &story{ID: 2, Title: "gone"}, Options{})

	recs, err := c.ResetMany(ctx, []string{"1", "2", "1"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Title != "new" {
		t.Errorf("ResetMany() = %v", recs)
	}
	if !slices.Equal(src.manyCalls[0], []string{"1", "2"}) {
		t.Errorf("FetchMany ids = %v", src.manyCalls[0])
	}

	got, err := c.GetBatch(ctx, []string{"1", "2"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got["1"].Title != "new" {
		t.Errorf("id 1 = %+v, want refreshed", got["1"])
	}
	if _, ok := got["2"]; ok {
		t.Error("id 2 should now be cached as absent")
	}
}

func TestGetBatch_DropsPagination(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(&story{ID: 1}, &story{ID: 2}, &story{ID: 3})
	c := newTestClient(t, Config{}, NewMemoryStore(), src)

	got, err := c.GetBatch(ctx, []string{"1", "2", "3"}, Options{Page: 1, PerPage: 2})
	if err != nil || len(got) != 3 {
		t.Fatalf("GetBatch() = %v, %v", got, err)
	}
	if src.lastOpts.Page != 0 || src.lastOpts.PerPage != 0 {
		t.Errorf("source saw page %d per_page %d, want none", src.lastOpts.Page, src.lastOpts.PerPage)
	}
	if rec, found, err := c.Get(ctx, "3", Options{}); err != nil || !found || rec.ID != 3 {
		t.Errorf("Get(3) = %v, %v, %v", rec, found, err)
	}
}

func TestBatch_FindByNeedsLookupIdentifier(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  Config
		opts Options
	}{
		{"config find_by", Config{FindBy: "slug"}, Options{}},
		{"per-call find_by", Config{}, Options{Finder: "find_by_slug"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			src := newFakeSource(&story{ID: 1})
			c := newTestClient(t, tt.cfg, store, src)

			if _, err := c.GetBatch(ctx, []string{"hello"}, tt.opts); !errors.Is(err, ErrNoLookupID) {
				t.Errorf("GetBatch() error = %v, want %v", err, ErrNoLookupID)
			}
			if _, err := c.ResetMany(ctx, []string{"hello"}, tt.opts); !errors.Is(err, ErrNoLookupID) {
				t.Errorf("ResetMany() error = %v, want %v", err, ErrNoLookupID)
			}
			if _, many := src.calls(); many != 0 || store.Len() != 0 {
				t.Errorf("FetchMany calls = %d, entries = %d, want none", many, store.Len())
			}
		})
	}

	// Named finders other than find_by are unaffected.
	c := newTestClient(t, Config{}, NewMemoryStore(), newFakeSource(&story{ID: 1}))
	if _, err := c.GetBatch(ctx, []string{"1"}, Options{Finder: "published"}); err != nil {
		t.Errorf("GetBatch() with named finder error = %v", err)
	}
}

// normalizingSource reads ids as integers, so "007" loads the story reported as "7".
type normalizingSource struct{ *fakeSource }

func (s normalizingSource) normalize(id string) string {
	n, err := strconv.Atoi(id)
	if err != nil {
		return id
	}
	return strconv.Itoa(n)
}

func (s normalizingSource) FetchOne(ctx context.Context, id string, opts Options) (*story, bool, error) {
	return s.fakeSource.FetchOne(ctx, s.normalize(id), opts)
}

func (s normalizingSource) FetchMany(ctx context.Context, ids []string, opts Options) ([]*story, error) {
	norm := make([]string, len(ids))
	for i, id := range ids {
		norm[i] = s.normalize(id)
	}
	return s.fakeSource.FetchMany(ctx, norm, opts)
}

func TestGetBatch_UnrequestedRecordsNotCached(t *testing.T) {
	ctx := context.Background()
	store := newSpyStore()
	src := normalizingSource{newFakeSource(&story{ID: 7, Title: "Bond"}, &story{ID: 1})}
	c := newTestClient(t, Config{}, store, src)

	got, err := c.GetBatch(ctx, []string{"007", "1", "404"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got["1"] == nil {
		t.Errorf("GetBatch() = %v, want only id 1", got)
	}
	if len(store.writes) != 1 {
		t.Errorf("writes = %d, want only the matched record", len(store.writes))
	}
	for _, id := range []string{"007", "7", "404"} {
		if ok, _ := c.Exists(ctx, id, Options{}); ok {
			t.Errorf("Exists(%s) = true, want nothing cached", id)
		}
	}
	if rec, found, err := c.Get(ctx, "007", Options{}); err != nil || !found || rec.Title != "Bond" {
		t.Errorf("Get(007) = %v, %v, %v", rec, found, err)
	}
}

type numericID int

func (n numericID) String() string { return fmt.Sprintf("n%d", int(n)) }

func TestIDs(t *testing.T) {
	one := "one"
	tests := []struct {
		name   string
		values []any
		want   []string
	}{
		{"strings", []any{"a", "b"}, []string{"a", "b"}},
		{"ints", []any{1, 2}, []string{"1", "2"}},
		{"nested", []any{[]any{"a", []int{1, 2}}, "b"}, []string{"a", "1", "2", "b"}},
		{"nil dropped", []any{nil, "a", nil}, []string{"a"}},
		{"duplicates kept", []any{"a", "a"}, []string{"a", "a"}},
		{"stringer", []any{numericID(4)}, []string{"n4"}},
		{"pointer", []any{&one}, []string{"one"}},
		{"string slice", []any{[]string{"x", "y"}}, []string{"x", "y"}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IDs(tt.values...); !slices.Equal(got, tt.want) {
				t.Errorf("IDs() = %v, want %v", got, tt.want)
			}
		})
	}
}
