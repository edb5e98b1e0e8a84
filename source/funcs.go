package source

import (
	"context"

	"github.com/jonwraymond/cachefu/cache"
)

// Funcs adapts lookup functions to cache.DataSource.
//
// When One is nil, FetchOne issues a single-element Many call. A nil Many
// is not emulated with repeated One calls; FetchMany returns ErrUnsupported.
type Funcs[T cache.Record] struct {
	One  func(ctx context.Context, id string, opts cache.Options) (T, bool, error)
	Many func(ctx context.Context, ids []string, opts cache.Options) ([]T, error)
}

var _ cache.DataSource[cache.Record] = Funcs[cache.Record]{}

func (f Funcs[T]) FetchOne(ctx context.Context, id string, opts cache.Options) (T, bool, error) {
	var zero T
	switch {
	case f.One != nil:
		return f.One(ctx, id, opts)
	case f.Many != nil:
		recs, err := f.Many(ctx, []string{id}, opts)
		if err != nil || len(recs) == 0 {
			return zero, false, err
		}
		return recs[0], true, nil
	default:
		return zero, false, ErrUnsupported
	}
}

func (f Funcs[T]) FetchMany(ctx context.Context, ids []string, opts cache.Options) ([]T, error) {
	if f.Many == nil {
		return nil, ErrUnsupported
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return f.Many(ctx, ids, opts)
}
