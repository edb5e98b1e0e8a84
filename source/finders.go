package source

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jonwraymond/cachefu/cache"
)

// Finders routes lookups by Options.Finder. An empty finder uses the
// fallback source.
type Finders[T cache.Record] struct {
	fallback cache.DataSource[T]

	mu     sync.RWMutex
	byName map[string]cache.DataSource[T]
}

// NewFinders creates a router. fallback may be nil, in which case every
// call must name a registered finder.
func NewFinders[T cache.Record](fallback cache.DataSource[T]) *Finders[T] {
	return &Finders[T]{
		fallback: fallback,
		byName:   make(map[string]cache.DataSource[T]),
	}
}

// Register adds a named source, e.g. "find_by_slug".
func (f *Finders[T]) Register(name string, src cache.DataSource[T]) error {
	if name == "" || src == nil {
		return ErrInvalidFinder
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFinder, name)
	}
	f.byName[name] = src
	return nil
}

// Unregister removes a named source.
func (f *Finders[T]) Unregister(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byName, name)
}

// Names returns registered finder names in sorted order.
func (f *Finders[T]) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.byName))
	for name := range f.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (f *Finders[T]) FetchOne(ctx context.Context, id string, opts cache.Options) (T, bool, error) {
	src, err := f.resolve(opts.Finder)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return src.FetchOne(ctx, id, opts)
}

func (f *Finders[T]) FetchMany(ctx context.Context, ids []string, opts cache.Options) ([]T, error) {
	src, err := f.resolve(opts.Finder)
	if err != nil {
		return nil, err
	}
	return src.FetchMany(ctx, ids, opts)
}

func (f *Finders[T]) resolve(name string) (cache.DataSource[T], error) {
	if name == "" {
		if f.fallback == nil {
			return nil, fmt.Errorf("%w: no default finder", ErrUnknownFinder)
		}
		return f.fallback, nil
	}
	f.mu.RLock()
	src, ok := f.byName[name]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFinder, name)
	}
	return src, nil
}
