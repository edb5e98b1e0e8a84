package cache

import (
	"context"
	"strings"
)

// Finder is a named lookup whose result is cached by Cached. It receives the
// discriminator arguments the call was keyed by.
type Finder[V any] func(ctx context.Context, args ...string) (V, bool, error)

// Cached caches the result of a named lookup.
//
// The key segment is method, followed by the separator and the discriminator
// arguments when any are given. Multiple arguments are joined with the
// separator so ["one","two"] and ["onetwo"] stay distinct; set
// Config.LegacyWithsJoin to concatenate them instead. On a miss fn is called
// with the arguments and its result, absence included, is cached.
func Cached[T Record, V any](ctx context.Context, c *Client[T], method string, opts Options, fn Finder[V], with ...string) (V, bool, error) {
	var zero V
	key, err := c.keys.KeyFor(c.wrapSegment(method, with), opts)
	if err != nil {
		return zero, false, err
	}
	return readThrough(ctx, c.engine, "cached", key, opts, bind(fn, with))
}

// CachedFor is Cached scoped to one record. The key segment is prefixed with
// the record's cache identity, so a record update also retires its wrapped
// lookups.
func CachedFor[T Record, V any](ctx context.Context, c *Client[T], rec T, method string, opts Options, fn Finder[V], with ...string) (V, bool, error) {
	var zero V
	key, err := c.keys.KeyFor(c.RecordCacheID(rec, c.wrapSegment(method, with)), opts)
	if err != nil {
		return zero, false, err
	}
	return readThrough(ctx, c.engine, "cached_for", key, opts, bind(fn, with))
}

// ExpireCached deletes the entry written by Cached for the same method and arguments.
func (c *Client[T]) ExpireCached(ctx context.Context, method string, opts Options, with ...string) error {
	key, err := c.keys.KeyFor(c.wrapSegment(method, with), opts)
	if err != nil {
		return err
	}
	return c.tel.Run(ctx, c.meta("expire_cached", opts, 1), func(ctx context.Context) error {
		return c.delete(ctx, key)
	})
}

func (e *engine) wrapSegment(method string, with []string) string {
	if len(with) == 0 {
		return method
	}
	sep := e.keys.Separator()
	joiner := sep
	if e.cfg.LegacyWithsJoin {
		joiner = ""
	}
	return method + sep + strings.Join(with, joiner)
}

func bind[V any](fn Finder[V], args []string) Producer[V] {
	return func(ctx context.Context) (V, bool, error) {
		return fn(ctx, args...)
	}
}
