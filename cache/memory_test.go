package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClockedStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC)}
	s := NewMemoryStore()
	s.now = clock.Now
	return s, clock
}

func TestMemoryStore_ReadWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, ok, err := s.Read(ctx, "k"); ok || err != nil {
		t.Fatalf("Read() on empty store = %v, %v", ok, err)
	}
	if err := s.Write(ctx, "k", []byte("v"), Directives{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, ok, err := s.Read(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("Read() = %q, %v, %v", got, ok, err)
	}

	// Returned slices are copies.
	got[0] = 'x'
	again, _, _ := s.Read(ctx, "k")
	if string(again) != "v" {
		t.Errorf("stored value mutated through returned slice: %q", again)
	}
}

func TestMemoryStore_ReadMany(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Write(ctx, "a", []byte("1"), Directives{})
	_ = s.Write(ctx, "c", AbsentSentinel(), Directives{})

	got, err := s.ReadMany(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("ReadMany() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(ReadMany()) = %d, want 2", len(got))
	}
	if string(got["a"]) != "1" {
		t.Errorf("a = %q", got["a"])
	}
	if !IsAbsent(got["c"]) {
		t.Errorf("c = %q, want absent-sentinel", got["c"])
	}
	if _, ok := got["b"]; ok {
		t.Error("missing key b should be omitted")
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	s, clock := newClockedStore()

	_ = s.Write(ctx, "short", []byte("1"), Directives{TTL: time.Minute})
	_ = s.Write(ctx, "forever", []byte("2"), Directives{})

	clock.Advance(59 * time.Second)
	if ok, _ := s.Exists(ctx, "short"); !ok {
		t.Fatal("entry expired early")
	}

	clock.Advance(time.Second)
	if ok, _ := s.Exists(ctx, "short"); ok {
		t.Error("entry should expire at its TTL")
	}
	if got, _ := s.ReadMany(ctx, []string{"short", "forever"}); len(got) != 1 {
		t.Errorf("ReadMany() = %v, want only forever", got)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want expired entry evicted", s.Len())
	}

	clock.Advance(24 * 365 * time.Hour)
	if ok, _ := s.Exists(ctx, "forever"); !ok {
		t.Error("entry without TTL should not expire")
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Write(ctx, "k", []byte("v"), Directives{})

	for i := range 2 {
		if err := s.Delete(ctx, "k"); err != nil {
			t.Fatalf("Delete() #%d error = %v", i+1, err)
		}
	}
	if ok, _ := s.Exists(ctx, "k"); ok {
		t.Error("key still exists after Delete()")
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := string(rune('a' + i%26))
			_ = s.Write(ctx, key, []byte{byte(i)}, Directives{TTL: time.Hour})
			_, _, _ = s.Read(ctx, key)
			_, _ = s.ReadMany(ctx, []string{key, "z"})
			if i%5 == 0 {
				_ = s.Delete(ctx, key)
			}
		}()
	}
	wg.Wait()
}
